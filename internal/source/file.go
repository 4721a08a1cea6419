package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"dtl/internal/document"
	"dtl/internal/engine"
)

// maxLineBytes bounds a single jsonl document. Exports with very wide
// records fit comfortably; anything larger is almost certainly not NDJSON.
const maxLineBytes = 16 << 20 // 16 MiB

// fileSource reads documents from a local file.
type fileSource struct {
	format string // "jsonl" or "json"
	path   string
}

// Materialize opens the file and decodes it according to the declared
// format. If ctx is already done, the filesystem is not touched.
func (s *fileSource) Materialize(ctx context.Context) (document.Dataset, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	r := bomReader(f)
	switch s.format {
	case "jsonl":
		return readLines(ctx, r)
	case "json":
		return readArray(r)
	default:
		return nil, engine.Configf("unknown dataSource format %q", s.format)
	}
}

// bomReader wraps r so that a UTF-8 BOM is stripped and UTF-16 input (with
// BOM) is transcoded to UTF-8. Input without a BOM passes through untouched.
func bomReader(r io.Reader) io.Reader {
	t := unicode.BOMOverride(unicode.UTF8.NewDecoder().Transformer)
	return transform.NewReader(r, t)
}

// readLines decodes newline-delimited JSON objects. Blank lines are
// skipped; a non-object line is a ShapeError naming the line number.
func readLines(ctx context.Context, r io.Reader) (document.Dataset, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), maxLineBytes)

	var ds document.Dataset
	line := 0
	for sc.Scan() {
		line++
		if line%1024 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		doc, err := decodeDocument([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ds = append(ds, doc)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return ds, nil
}

// readArray decodes a single top-level JSON array of objects. Any other
// top level is a ShapeError.
func readArray(r io.Reader) (document.Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		if err == io.EOF {
			return document.Dataset{}, nil
		}
		return nil, fmt.Errorf("decode: %w", err)
	}

	arr, ok := root.([]any)
	if !ok {
		return nil, engine.Shapef("top-level JSON value is %T, want an array of documents", root)
	}
	return datasetFromAny(arr)
}

// datasetFromAny checks every element of a decoded array is an object.
func datasetFromAny(arr []any) (document.Dataset, error) {
	ds := make(document.Dataset, 0, len(arr))
	for i, elem := range arr {
		doc, ok := elem.(map[string]any)
		if !ok {
			return nil, engine.Shapef("element %d is %T, want an object", i, elem)
		}
		ds = append(ds, doc)
	}
	return ds, nil
}

// decodeDocument decodes one JSON object with UseNumber.
func decodeDocument(b []byte) (document.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	doc, ok := root.(map[string]any)
	if !ok {
		return nil, engine.Shapef("document is %T, want an object", root)
	}
	return doc, nil
}
