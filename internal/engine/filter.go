package engine

import (
	"encoding/json"
	"fmt"

	"dtl/internal/document"
)

// filterStep retains the records of one dataset that satisfy a
// condition tree.
type filterStep struct {
	op     string
	source string
	cond   Condition
	output string
}

func decodeFilter(raw json.RawMessage) (Step, error) {
	var w struct {
		Op        string          `json:"op"`
		Source    string          `json:"source"`
		Condition json.RawMessage `json:"condition"`
		OutputAs  string          `json:"outputAs"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, Configf("filter: %v", err)
	}
	if err := requireKeys("filter",
		"source", w.Source,
		"outputAs", w.OutputAs,
	); err != nil {
		return nil, err
	}
	if len(w.Condition) == 0 {
		return nil, Configf("filter: missing required key %q", "condition")
	}
	cond, err := DecodeCondition(w.Condition)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	return &filterStep{
		op:     w.Op,
		source: w.Source,
		cond:   cond,
		output: w.OutputAs,
	}, nil
}

func (s *filterStep) Op() string       { return s.op }
func (s *filterStep) Output() string   { return s.output }
func (s *filterStep) Inputs() []string { return []string{s.source} }

// Apply emits the order-preserving subsequence of the source on which
// the condition evaluates true. Records pass through unchanged; filter
// never builds new documents.
func (s *filterStep) Apply(reg *Registry, pol Policy) (document.Dataset, error) {
	src, err := reg.Lookup(s.source)
	if err != nil {
		return nil, err
	}
	out := make(document.Dataset, 0, len(src))
	for _, rec := range src {
		keep, err := s.cond.eval(rec, pol)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, rec)
		}
	}
	pol.observe("filtered_out", len(src)-len(out))
	return out, nil
}
