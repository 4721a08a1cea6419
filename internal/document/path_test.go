package document

import (
	"reflect"
	"testing"
)

// TestParsePath_EmptySegments verifies the documented choice for odd
// path strings: empty segments are dropped, and a path with no usable
// segments is the empty path (MISSING on read, no-op on write).
func TestParsePath_EmptySegments(t *testing.T) {
	t.Parallel()

	if p := ParsePath(""); !p.IsEmpty() {
		t.Fatalf("ParsePath(%q).IsEmpty() = false, want true", "")
	}
	if p := ParsePath("///"); !p.IsEmpty() {
		t.Fatalf("ParsePath(%q).IsEmpty() = false, want true", "///")
	}

	doc := Document{"a": map[string]any{"b": 1}}
	v, ok := Read(doc, ParsePath("a//b"))
	if !ok || v != 1 {
		t.Fatalf("Read(a//b) = (%v, %v), want (1, true)", v, ok)
	}
}

// TestRead_Nested walks object values several levels deep.
func TestRead_Nested(t *testing.T) {
	t.Parallel()

	doc := Document{
		"customer": map[string]any{
			"address": map[string]any{"city": "Brno"},
		},
	}
	v, ok := Read(doc, ParsePath("customer/address/city"))
	if !ok || v != "Brno" {
		t.Fatalf("Read = (%v, %v), want (Brno, true)", v, ok)
	}
}

// TestRead_Missing covers the MISSING cases: absent intermediate key,
// scalar in the middle of the path, absent terminal key, empty path,
// and a nil document.
func TestRead_Missing(t *testing.T) {
	t.Parallel()

	doc := Document{"a": map[string]any{"b": 2}, "s": "text"}

	cases := []string{"x/b", "s/b", "a/x", ""}
	for _, raw := range cases {
		if v, ok := Read(doc, ParsePath(raw)); ok {
			t.Fatalf("Read(%q) = (%v, true), want MISSING", raw, v)
		}
	}
	if _, ok := Read(nil, ParsePath("a")); ok {
		t.Fatalf("Read(nil doc) resolved, want MISSING")
	}
}

// TestRead_PresentNull distinguishes a present null from MISSING: the
// value resolves with ok=true and is nil.
func TestRead_PresentNull(t *testing.T) {
	t.Parallel()

	doc := Document{"a": nil}
	v, ok := Read(doc, ParsePath("a"))
	if !ok || v != nil {
		t.Fatalf("Read(a) = (%v, %v), want (nil, true)", v, ok)
	}
}

// TestRead_ArrayIndex selects array elements by all-digit segments and
// reports MISSING for out-of-range indexes and for non-numeric segments
// landing on an array.
func TestRead_ArrayIndex(t *testing.T) {
	t.Parallel()

	doc := Document{"key": []any{"C1", "North"}}

	v, ok := Read(doc, ParsePath("key/0"))
	if !ok || v != "C1" {
		t.Fatalf("Read(key/0) = (%v, %v), want (C1, true)", v, ok)
	}
	v, ok = Read(doc, ParsePath("key/1"))
	if !ok || v != "North" {
		t.Fatalf("Read(key/1) = (%v, %v), want (North, true)", v, ok)
	}
	if _, ok := Read(doc, ParsePath("key/2")); ok {
		t.Fatalf("Read(key/2) resolved, want MISSING")
	}
	if _, ok := Read(doc, ParsePath("key/name")); ok {
		t.Fatalf("Read(key/name) resolved, want MISSING")
	}
}

// TestWrite_CreatesIntermediates verifies that writes create empty
// objects along the way, both over absent segments and over segments
// currently holding a scalar.
func TestWrite_CreatesIntermediates(t *testing.T) {
	t.Parallel()

	doc := Document{}
	Write(doc, ParsePath("totals/byRegion/north"), 42)
	want := Document{
		"totals": map[string]any{
			"byRegion": map[string]any{"north": 42},
		},
	}
	if !reflect.DeepEqual(doc, want) {
		t.Fatalf("doc = %#v, want %#v", doc, want)
	}

	over := Document{"totals": "scalar"}
	Write(over, ParsePath("totals/count"), 1)
	if v, ok := Read(over, ParsePath("totals/count")); !ok || v != 1 {
		t.Fatalf("write over scalar: Read = (%v, %v), want (1, true)", v, ok)
	}
}

// TestWrite_Noop verifies the empty path and a nil document are safe.
func TestWrite_Noop(t *testing.T) {
	t.Parallel()

	doc := Document{"a": 1}
	Write(doc, ParsePath(""), 99)
	if !reflect.DeepEqual(doc, Document{"a": 1}) {
		t.Fatalf("empty-path write mutated doc: %#v", doc)
	}
	Write(nil, ParsePath("a/b"), 99) // must not panic
}

// TestWrite_TerminalOverwrite replaces an existing terminal value.
func TestWrite_TerminalOverwrite(t *testing.T) {
	t.Parallel()

	doc := Document{"n": 1}
	Write(doc, ParsePath("n"), 2)
	if doc["n"] != 2 {
		t.Fatalf("doc[n] = %v, want 2", doc["n"])
	}
}

// TestRead_Allocs pins Read as allocation-free; it runs on every record
// in joins, filters, and aggregations.
func TestRead_Allocs(t *testing.T) {
	doc := Document{
		"customer": map[string]any{
			"address": map[string]any{"city": "Brno"},
		},
	}
	p := ParsePath("customer/address/city")

	allocs := testing.AllocsPerRun(500, func() {
		_, _ = Read(doc, p)
	})
	if allocs > 0.10 {
		t.Fatalf("Read allocs/op = %.2f, want 0", allocs)
	}
}

func BenchmarkRead_Nested(b *testing.B) {
	doc := Document{
		"customer": map[string]any{
			"address": map[string]any{"city": "Brno"},
		},
	}
	p := ParsePath("customer/address/city")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Read(doc, p)
	}
}

func BenchmarkParsePath(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = ParsePath("customer/address/city")
	}
}
