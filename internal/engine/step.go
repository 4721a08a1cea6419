// Package engine implements the transformation core: the dataset
// registry, the decoded pipeline steps (join, filter, aggregate,
// map/project), the condition evaluator, and the sequential driver
// that runs a pipeline to its final dataset.
//
// Steps are decoded from their raw spec documents once, up front, so
// every configuration defect surfaces before the first record moves.
package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"dtl/internal/document"
)

// Step is one decoded pipeline operation.
type Step interface {
	// Op names the operation as the spec declared it.
	Op() string
	// Output is the dataset name the result registers under.
	Output() string
	// Inputs lists the dataset names the step reads.
	Inputs() []string
	// Apply runs the step against datasets already in reg and returns
	// the output dataset. Apply never mutates its inputs.
	Apply(reg *Registry, pol Policy) (document.Dataset, error)
}

// stepDecoder turns one raw step document into a decoded Step.
type stepDecoder func(raw json.RawMessage) (Step, error)

// decoders maps op names to their decoders. Matching is case-sensitive
// and exact; "map" and "project" are synonyms.
var decoders = map[string]stepDecoder{
	"join":      decodeJoin,
	"filter":    decodeFilter,
	"aggregate": decodeAggregate,
	"map":       decodeProject,
	"project":   decodeProject,
}

// Ops returns the recognized op names, sorted.
func Ops() []string {
	ops := make([]string, 0, len(decoders))
	for op := range decoders {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// DecodeStep decodes one raw step document. A missing or unrecognized
// op is a ConfigError, as is any missing required key.
func DecodeStep(raw json.RawMessage) (Step, error) {
	var head struct {
		Op string `json:"op"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, Configf("step is not an object: %v", err)
	}
	if strings.TrimSpace(head.Op) == "" {
		return nil, Configf("step is missing op")
	}
	dec, ok := decoders[head.Op]
	if !ok {
		return nil, Configf("unsupported step.op=%s (known ops: %s)", head.Op, strings.Join(Ops(), ", "))
	}
	return dec(raw)
}

// DecodeSteps decodes a whole pipeline eagerly, before any step runs.
func DecodeSteps(raws []json.RawMessage) ([]Step, error) {
	steps := make([]Step, 0, len(raws))
	for i, raw := range raws {
		st, err := DecodeStep(raw)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		steps = append(steps, st)
	}
	return steps, nil
}

// requireKeys returns a ConfigError naming the first empty value in
// pairs, which alternates key name and value.
func requireKeys(op string, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return Configf("%s: missing required key %q", op, pairs[i])
		}
	}
	return nil
}

// Sentinels for equality and grouping keys. missingKey stands in for a
// path that resolved to MISSING or null, so absent keys bucket together
// and never collide with real text. groupSep joins multi-path group
// keys and is not expected to occur in data.
const (
	missingKey = "\x00"
	groupSep   = "\x1f"
)

// keyText renders a resolved path value for key equality.
func keyText(v any, ok bool) string {
	if !ok || v == nil {
		return missingKey
	}
	return document.Text(v)
}
