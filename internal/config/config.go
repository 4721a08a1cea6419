// Package config defines the canonical, JSON-serializable specification
// document consumed by the dtl engine. It is intentionally small, explicit,
// and dependency-light so that specs can be loaded from disk (or other
// sources) and passed through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in spec
//     files (version, dataSources, steps).
//  3. Minimalism: No third-party config libraries; decoding is performed by
//     the standard library. Step bodies stay raw so the engine decodes them
//     exactly once into typed steps.
//
// Example (trimmed):
//
//	{
//	  "version": "1.0",
//	  "dataSources": {
//	    "orders":    { "type": "inline", "data": [ {"orderId": 1} ] },
//	    "customers": { "type": "file", "format": "jsonl", "path": "customers.jsonl" }
//	  },
//	  "steps": [
//	    { "op": "join", "leftSource": "orders", "rightSource": "customers",
//	      "leftKey": "customerId", "rightKey": "id", "joinType": "inner",
//	      "outputAs": "enriched" }
//	  ]
//	}
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Spec is the top-level specification document: named data sources plus an
// ordered pipeline of steps. The final step's output is the program result.
type Spec struct {
	// Version identifies the spec dialect. Informational for now.
	Version string `json:"version"`

	// DataSources maps dataset names to their source declarations. Every
	// declared source is materialized before the first step runs.
	DataSources map[string]DataSource `json:"dataSources"`

	// Steps is the ordered pipeline. Each entry is kept raw here; the
	// engine decodes it into a typed step based on its "op" key.
	Steps []json.RawMessage `json:"steps"`
}

// DataSource declares where one named dataset comes from.
//
// type = "file":   Format ("jsonl" or "json") and Path are required.
// type = "inline": Data must hold a JSON array of objects.
type DataSource struct {
	// Type selects the source implementation: "file" or "inline".
	Type string `json:"type"`

	// Format applies to file sources: "jsonl" (one object per line) or
	// "json" (a single top-level array of objects).
	Format string `json:"format,omitempty"`

	// Path is the local filesystem path for file sources.
	Path string `json:"path,omitempty"`

	// Data carries the literal documents for inline sources. It stays raw
	// so the materializer can decode it with the same number handling as
	// file sources.
	Data json.RawMessage `json:"data,omitempty"`
}

// Load reads and decodes a spec document from a file on disk.
func Load(path string) (Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return Spec{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	spec, err := Decode(f)
	if err != nil {
		return Spec{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return spec, nil
}

// Decode decodes a spec document from r. Step bodies are left raw; callers
// hand them to the engine for typed decoding. Trailing garbage after the
// top-level object is rejected.
func Decode(r io.Reader) (Spec, error) {
	dec := json.NewDecoder(r)

	var s Spec
	if err := dec.Decode(&s); err != nil {
		return Spec{}, err
	}
	// A second document (or junk) after the spec is almost always a
	// copy/paste accident; surface it instead of silently ignoring it.
	if dec.More() {
		return Spec{}, fmt.Errorf("unexpected trailing content after spec document")
	}
	return s, nil
}
