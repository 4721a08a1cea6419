package flipwatch

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"dtl/internal/document"
)

func snapOf(t *testing.T, ds document.Dataset) Snapshot {
	t.Helper()
	snap, err := Snap("run-1", "status", "test.jsonl", ds, document.ParsePath("id"), document.ParsePath("status"))
	if err != nil {
		t.Fatalf("Snap() error = %v", err)
	}
	return snap
}

// TestSnap captures key, fingerprint, and watched value per record. The
// fixture exercises a record with no watched value, one with no key
// (skipped), a duplicated key (last record wins), and a numeric key with
// a null value.
func TestSnap(t *testing.T) {
	t.Parallel()

	ds := document.Dataset{
		{"id": "A", "status": "open", "n": json.Number("1")},
		{"id": "B"},
		{"status": "orphan"},
		{"id": "A", "status": "closed"},
		{"id": json.Number("7"), "status": nil},
	}
	snap := snapOf(t, ds)

	if snap.RunID != "run-1" || snap.Watch != "status" || snap.Source != "test.jsonl" {
		t.Fatalf("snapshot header = %+v, want run-1/status/test.jsonl", snap)
	}
	if len(snap.Rows) != 3 {
		t.Fatalf("Rows = %d, want 3", len(snap.Rows))
	}
	if snap.Rows[0].Key != "A" || snap.Rows[0].Value != "closed" {
		t.Fatalf("Rows[0] = %+v, want key A value closed (last duplicate wins)", snap.Rows[0])
	}
	if snap.Rows[1].Key != "B" || snap.Rows[1].Value != "" {
		t.Fatalf("Rows[1] = %+v, want key B with empty value", snap.Rows[1])
	}
	if snap.Rows[2].Key != "7" || snap.Rows[2].Value != "" {
		t.Fatalf("Rows[2] = %+v, want key 7 with empty value", snap.Rows[2])
	}
	if snap.TakenAt.IsZero() {
		t.Fatalf("TakenAt not set")
	}
}

// TestFingerprintStable hashes the canonical encoding, so insertion order
// of map keys cannot change the fingerprint.
func TestFingerprintStable(t *testing.T) {
	t.Parallel()

	a := document.Document{}
	a["x"] = json.Number("1")
	a["y"] = "text"
	a["z"] = map[string]any{"nested": true}

	b := document.Document{}
	b["z"] = map[string]any{"nested": true}
	b["y"] = "text"
	b["x"] = json.Number("1")

	fa, err := Fingerprint(a)
	if err != nil {
		t.Fatalf("Fingerprint(a) error = %v", err)
	}
	fb, err := Fingerprint(b)
	if err != nil {
		t.Fatalf("Fingerprint(b) error = %v", err)
	}
	if fa != fb {
		t.Fatalf("Fingerprint differs across key order: %x vs %x", fa, fb)
	}

	c := document.Document{"x": json.Number("2"), "y": "text", "z": map[string]any{"nested": true}}
	fc, err := Fingerprint(c)
	if err != nil {
		t.Fatalf("Fingerprint(c) error = %v", err)
	}
	if fc == fa {
		t.Fatalf("distinct documents collided: %x", fc)
	}
}

// TestFingerprintUnencodable surfaces a marshal failure instead of panicking.
func TestFingerprintUnencodable(t *testing.T) {
	t.Parallel()

	if _, err := Fingerprint(document.Document{"ch": make(chan int)}); err == nil {
		t.Fatalf("Fingerprint() error = nil, want marshal error")
	}
}

// TestDiffNoChanges reports nothing when the dataset did not move.
func TestDiffNoChanges(t *testing.T) {
	t.Parallel()

	ds := document.Dataset{
		{"id": "A", "status": "open"},
		{"id": "B", "status": "closed"},
	}
	rep := Diff(snapOf(t, ds), snapOf(t, ds))

	if len(rep.Flips) != 0 || len(rep.New) != 0 || len(rep.Gone) != 0 {
		t.Fatalf("Diff() = %+v, want empty report", rep)
	}
}

// TestDiffFlip produces exactly one Flip carrying the old and new values
// when a watched value changes.
func TestDiffFlip(t *testing.T) {
	t.Parallel()

	prev := snapOf(t, document.Dataset{
		{"id": "A", "status": "open"},
		{"id": "B", "status": "closed"},
	})
	cur := snapOf(t, document.Dataset{
		{"id": "A", "status": "escalated"},
		{"id": "B", "status": "closed"},
	})

	rep := Diff(prev, cur)
	want := []Flip{{Key: "A", Old: "open", New: "escalated"}}
	if !reflect.DeepEqual(rep.Flips, want) {
		t.Fatalf("Flips = %+v, want %+v", rep.Flips, want)
	}
	if len(rep.New) != 0 || len(rep.Gone) != 0 {
		t.Fatalf("Diff() reported new=%v gone=%v, want none", rep.New, rep.Gone)
	}
}

// TestDiffUnwatchedChange ignores records whose fingerprint changed while
// the watched value stayed put.
func TestDiffUnwatchedChange(t *testing.T) {
	t.Parallel()

	prev := snapOf(t, document.Dataset{
		{"id": "A", "status": "open", "note": "v1"},
	})
	cur := snapOf(t, document.Dataset{
		{"id": "A", "status": "open", "note": "v2"},
	})

	rep := Diff(prev, cur)
	if len(rep.Flips) != 0 {
		t.Fatalf("Flips = %+v, want none for an unwatched change", rep.Flips)
	}
}

// TestDiffFingerprintShortCircuit never compares values when fingerprints
// match; rows built by hand with equal fingerprints but divergent values
// prove the skip.
func TestDiffFingerprintShortCircuit(t *testing.T) {
	t.Parallel()

	prev := Snapshot{Rows: []Row{{Key: "A", Fingerprint: 42, Value: "old"}}}
	cur := Snapshot{Rows: []Row{{Key: "A", Fingerprint: 42, Value: "new"}}}

	if rep := Diff(prev, cur); len(rep.Flips) != 0 {
		t.Fatalf("Flips = %+v, want none when fingerprints match", rep.Flips)
	}
}

// TestDiffNewAndGone separates appeared and disappeared keys from flips.
func TestDiffNewAndGone(t *testing.T) {
	t.Parallel()

	prev := snapOf(t, document.Dataset{
		{"id": "A", "status": "open"},
		{"id": "B", "status": "open"},
	})
	cur := snapOf(t, document.Dataset{
		{"id": "B", "status": "open"},
		{"id": "C", "status": "fresh"},
	})

	rep := Diff(prev, cur)
	if !reflect.DeepEqual(rep.New, []string{"C"}) {
		t.Fatalf("New = %v, want [C]", rep.New)
	}
	if !reflect.DeepEqual(rep.Gone, []string{"A"}) {
		t.Fatalf("Gone = %v, want [A]", rep.Gone)
	}
	if len(rep.Flips) != 0 {
		t.Fatalf("Flips = %+v, want none", rep.Flips)
	}
}

// TestDiffEmptyPrev marks every key as new on the first run.
func TestDiffEmptyPrev(t *testing.T) {
	t.Parallel()

	cur := snapOf(t, document.Dataset{
		{"id": "A", "status": "open"},
		{"id": "B", "status": "open"},
	})
	rep := Diff(Snapshot{}, cur)

	if !reflect.DeepEqual(rep.New, []string{"A", "B"}) {
		t.Fatalf("New = %v, want [A B]", rep.New)
	}
	if len(rep.Flips) != 0 || len(rep.Gone) != 0 {
		t.Fatalf("Diff() = %+v, want only new keys", rep)
	}
}

// TestIdent normalizes watch paths into table-name-safe identifiers.
func TestIdent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"status", "status"},
		{"customer/tier", "customer_tier"},
		{"PČV číslo", "pcv_cislo"},
		{"Straße", "stra_e"},
		{"  spaced out  ", "spaced_out"},
		{"a--b..c", "a_b_c"},
		{"///", "watch"},
		{"", "watch"},
		{"key/0", "key_0"},
	}
	for _, tt := range tests {
		if got := Ident(tt.in); got != tt.want {
			t.Fatalf("Ident(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// BenchmarkFingerprint hashes a typical small record.
func BenchmarkFingerprint(b *testing.B) {
	doc := document.Document{
		"id":     "A-1000",
		"status": "open",
		"amount": json.Number("125.50"),
		"nested": map[string]any{"region": "North", "tier": json.Number("2")},
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Fingerprint(doc); err != nil {
			b.Fatalf("Fingerprint error = %v", err)
		}
	}
}

// BenchmarkDiff compares two 10k-row snapshots with 1% flips.
func BenchmarkDiff(b *testing.B) {
	const n = 10000
	prev := Snapshot{Rows: make([]Row, n)}
	cur := Snapshot{Rows: make([]Row, n)}
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("K%05d", i)
		prev.Rows[i] = Row{Key: key, Fingerprint: uint64(i), Value: "open"}
		fp := uint64(i)
		val := "open"
		if i%100 == 0 {
			fp++
			val = "closed"
		}
		cur.Rows[i] = Row{Key: key, Fingerprint: fp, Value: val}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Diff(prev, cur)
	}
}
