package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// -----------------------------------------------------------------------------
// Spec decoding tests
// -----------------------------------------------------------------------------
//
// These tests validate that the top-level spec JSON structure decodes into
// the intended Go struct graph. We prefer parsing from JSON strings to keep
// tests hermetic and focused on the API surface rather than filesystem wiring.

const sampleSpec = `{
  "version": "1.0",
  "dataSources": {
    "orders": {
      "type": "inline",
      "data": [
        { "orderId": 1, "customerId": "C1", "amount": 150, "status": "PAID" },
        { "orderId": 2, "customerId": "C2", "amount": 80,  "status": "PENDING" },
        { "orderId": 3, "customerId": "C1", "amount": 200, "status": "PAID" }
      ]
    },
    "customers": { "type": "file", "format": "jsonl", "path": "testdata/customers.jsonl" }
  },
  "steps": [
    { "op": "join", "leftSource": "orders", "rightSource": "customers",
      "leftKey": "customerId", "rightKey": "id", "joinType": "inner",
      "outputAs": "enriched" },
    { "op": "filter", "source": "enriched",
      "condition": { "all": [
        { "path": "amount", "operator": "gt", "value": 100 },
        { "path": "status", "operator": "eq", "value": "PAID" }
      ] },
      "outputAs": "bigPaid" }
  ]
}`

// TestDecode_RoundTrip checks that the three top-level sections land in the
// right fields and that step bodies stay raw for the engine to decode.
func TestDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	s, err := Decode(strings.NewReader(sampleSpec))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if s.Version != "1.0" {
		t.Fatalf("version = %q, want 1.0", s.Version)
	}
	if len(s.DataSources) != 2 {
		t.Fatalf("dataSources = %d entries, want 2", len(s.DataSources))
	}

	orders, ok := s.DataSources["orders"]
	if !ok {
		t.Fatalf("dataSources missing %q", "orders")
	}
	if orders.Type != "inline" || len(orders.Data) == 0 {
		t.Fatalf("orders source = %#v, want inline with data", orders)
	}

	customers := s.DataSources["customers"]
	if customers.Type != "file" || customers.Format != "jsonl" || customers.Path != "testdata/customers.jsonl" {
		t.Fatalf("customers source = %#v, want file/jsonl/testdata path", customers)
	}

	if len(s.Steps) != 2 {
		t.Fatalf("steps = %d entries, want 2", len(s.Steps))
	}
	// Steps stay raw; spot-check the op key survives untouched.
	var head struct {
		Op string `json:"op"`
	}
	if err := json.Unmarshal(s.Steps[0], &head); err != nil || head.Op != "join" {
		t.Fatalf("steps[0] head = (%q, %v), want op=join", head.Op, err)
	}
}

// TestDecode_TrailingContent rejects a second document after the spec.
func TestDecode_TrailingContent(t *testing.T) {
	t.Parallel()

	_, err := Decode(strings.NewReader(`{"version":"1"} {"version":"2"}`))
	if err == nil {
		t.Fatalf("Decode accepted trailing content, want error")
	}
}

// TestDecode_Malformed surfaces JSON syntax errors.
func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	_, err := Decode(strings.NewReader(`{"version": `))
	if err == nil {
		t.Fatalf("Decode accepted malformed JSON, want error")
	}
}

// TestLoad reads a spec from disk and wraps failures with the path.
func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "spec.json")
	if err := os.WriteFile(path, []byte(sampleSpec), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Version != "1.0" || len(s.Steps) != 2 {
		t.Fatalf("Load decoded version=%q steps=%d, want 1.0 and 2", s.Version, len(s.Steps))
	}

	if _, err := Load(filepath.Join(dir, "absent.json")); err == nil {
		t.Fatalf("Load of missing file succeeded, want error")
	}
	if _, err := Load(filepath.Join(dir, "absent.json")); err != nil && !strings.Contains(err.Error(), "absent.json") {
		t.Fatalf("Load error %q does not name the path", err)
	}
}
