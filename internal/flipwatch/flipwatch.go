// Package flipwatch tracks changes ("flips") of one watched field across
// successive snapshots of a keyed dataset. Each run snapshots every
// record's key, a fingerprint of the whole record, and the watched
// field's text value; comparing a snapshot against the previous one
// yields the flips plus the keys that appeared or disappeared.
//
// flipwatch shares the document model with the pipeline engine but none
// of its operators; it is a self-contained demo of the snapshot store
// backends.
package flipwatch

import (
	"time"

	"dtl/internal/document"
)

// Row is one record's tracked state inside a snapshot.
type Row struct {
	// Key identifies the record across runs.
	Key string
	// Fingerprint summarizes the whole record; equal fingerprints mean
	// the record did not change and the values need no comparison.
	Fingerprint uint64
	// Value is the watched field's text form at snapshot time. A field
	// that resolved MISSING or null records as "".
	Value string
}

// Snapshot is one run's view of the dataset under a named watch.
type Snapshot struct {
	RunID   string
	Watch   string
	Source  string
	TakenAt time.Time
	Rows    []Row
}

// Flip is one observed change of the watched value for a key.
type Flip struct {
	Key string
	Old string
	New string
}

// Report is the outcome of comparing two snapshots.
type Report struct {
	// Flips holds keys whose watched value changed, in current-snapshot
	// order.
	Flips []Flip
	// New holds keys present now but not in the previous snapshot.
	New []string
	// Gone holds keys from the previous snapshot that disappeared.
	Gone []string
}

// Snap builds a snapshot of ds. The record key is the text form of the
// value at keyPath; records whose key resolves MISSING are skipped, and
// a duplicated key keeps only its last record. The watched value is the
// text form of the value at watchPath, "" when MISSING.
func Snap(runID, watch, source string, ds document.Dataset, keyPath, watchPath document.Path) (Snapshot, error) {
	snap := Snapshot{
		RunID:   runID,
		Watch:   watch,
		Source:  source,
		TakenAt: time.Now().UTC(),
		Rows:    make([]Row, 0, len(ds)),
	}

	seen := make(map[string]int, len(ds))
	for _, doc := range ds {
		kv, ok := document.Read(doc, keyPath)
		if !ok {
			continue
		}
		fp, err := Fingerprint(doc)
		if err != nil {
			return Snapshot{}, err
		}

		var value string
		if wv, ok := document.Read(doc, watchPath); ok {
			value = document.Text(wv)
		}

		row := Row{Key: document.Text(kv), Fingerprint: fp, Value: value}
		if i, dup := seen[row.Key]; dup {
			snap.Rows[i] = row
			continue
		}
		seen[row.Key] = len(snap.Rows)
		snap.Rows = append(snap.Rows, row)
	}
	return snap, nil
}

// Diff compares cur against prev. A key produces a Flip only when its
// fingerprint changed and the watched value actually differs; records
// whose fingerprint is unchanged are skipped without comparing values.
// An empty prev marks every current key as New.
func Diff(prev, cur Snapshot) Report {
	prevByKey := make(map[string]Row, len(prev.Rows))
	for _, r := range prev.Rows {
		prevByKey[r.Key] = r
	}

	var rep Report
	curKeys := make(map[string]struct{}, len(cur.Rows))
	for _, r := range cur.Rows {
		curKeys[r.Key] = struct{}{}
		old, ok := prevByKey[r.Key]
		if !ok {
			rep.New = append(rep.New, r.Key)
			continue
		}
		if old.Fingerprint == r.Fingerprint {
			continue
		}
		if old.Value != r.Value {
			rep.Flips = append(rep.Flips, Flip{Key: r.Key, Old: old.Value, New: r.Value})
		}
	}

	for _, r := range prev.Rows {
		if _, ok := curKeys[r.Key]; !ok {
			rep.Gone = append(rep.Gone, r.Key)
		}
	}
	return rep
}
