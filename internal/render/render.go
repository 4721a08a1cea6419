// Package render serializes a dataset back to JSON for output.
package render

import (
	"encoding/json"
	"io"

	"dtl/internal/document"
)

// Write encodes ds to w as a pretty-printed JSON array with two-space
// indentation and a trailing newline. A nil dataset renders as [] so the
// output is always a valid JSON array.
func Write(w io.Writer, ds document.Dataset) error {
	if ds == nil {
		ds = document.Dataset{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ds)
}
