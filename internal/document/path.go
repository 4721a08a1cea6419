package document

import (
	"strconv"
	"strings"
)

// Segment is one step of a parsed path. Key is the object key; Index is
// the numeric form used when the segment lands on an array, or -1 when
// the segment text is not all digits.
type Segment struct {
	Key   string
	Index int
}

// Path is the parsed form of a slash-delimited locator such as
// "customer/address/city" or "key/0". The zero value is the empty path:
// it reads as MISSING and writes as a no-op.
type Path struct {
	raw  string
	segs []Segment
}

// ParsePath splits raw on "/" into segments. Empty segments (leading,
// trailing, or doubled slashes) are dropped, so a path consisting only
// of slashes parses to the empty path. All-digit segments also carry
// their numeric value for array indexing on reads.
func ParsePath(raw string) Path {
	if raw == "" {
		return Path{}
	}
	parts := strings.Split(raw, "/")
	segs := make([]Segment, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		idx := -1
		if n, err := strconv.Atoi(part); err == nil && n >= 0 {
			idx = n
		}
		segs = append(segs, Segment{Key: part, Index: idx})
	}
	return Path{raw: raw, segs: segs}
}

// IsEmpty reports whether p has no segments.
func (p Path) IsEmpty() bool { return len(p.segs) == 0 }

// String returns the original path text.
func (p Path) String() string { return p.raw }

// Read resolves p against doc and returns the value it leads to.
// ok is false (MISSING) when the path is empty, any intermediate
// segment is absent or not a container, an array index is out of
// range, or the terminal segment is absent. Read never panics and
// never mutates doc.
func Read(doc Document, p Path) (any, bool) {
	if len(p.segs) == 0 {
		return nil, false
	}
	var cur any = doc
	for _, seg := range p.segs {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg.Key]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			if seg.Index < 0 || seg.Index >= len(node) {
				return nil, false
			}
			cur = node[seg.Index]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Write sets v at p inside doc, creating an empty object at every
// intermediate segment whose current value is absent or not an object.
// Segments address object keys on writes; array traversal exists only
// on the read side. Writing the empty path, or writing into a nil
// document, is a no-op. Only documents being built by an operator may
// be written; registered dataset entries are read-only by convention.
func Write(doc Document, p Path, v any) {
	if doc == nil || len(p.segs) == 0 {
		return
	}
	cur := doc
	for _, seg := range p.segs[:len(p.segs)-1] {
		next, ok := cur[seg.Key].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[seg.Key] = next
		}
		cur = next
	}
	cur[p.segs[len(p.segs)-1].Key] = v
}
