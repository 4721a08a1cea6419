package engine

import (
	"encoding/json"
	"strings"

	"dtl/internal/document"
)

type joinType int

const (
	joinInner joinType = iota
	joinLeft
	joinFull
)

func parseJoinType(s string) (joinType, error) {
	switch strings.ToLower(s) {
	case "inner":
		return joinInner, nil
	case "left":
		return joinLeft, nil
	case "full":
		return joinFull, nil
	}
	return 0, Configf("join: unknown joinType %q (want inner, left, or full)", s)
}

// joinStep merges two datasets on an equality key.
type joinStep struct {
	op       string
	left     string
	right    string
	leftKey  document.Path
	rightKey document.Path
	kind     joinType
	output   string
}

func decodeJoin(raw json.RawMessage) (Step, error) {
	var w struct {
		Op          string `json:"op"`
		LeftSource  string `json:"leftSource"`
		RightSource string `json:"rightSource"`
		LeftKey     string `json:"leftKey"`
		RightKey    string `json:"rightKey"`
		JoinType    string `json:"joinType"`
		OutputAs    string `json:"outputAs"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, Configf("join: %v", err)
	}
	if err := requireKeys("join",
		"leftSource", w.LeftSource,
		"rightSource", w.RightSource,
		"leftKey", w.LeftKey,
		"rightKey", w.RightKey,
		"joinType", w.JoinType,
		"outputAs", w.OutputAs,
	); err != nil {
		return nil, err
	}
	kind, err := parseJoinType(w.JoinType)
	if err != nil {
		return nil, err
	}
	return &joinStep{
		op:       w.Op,
		left:     w.LeftSource,
		right:    w.RightSource,
		leftKey:  document.ParsePath(w.LeftKey),
		rightKey: document.ParsePath(w.RightKey),
		kind:     kind,
		output:   w.OutputAs,
	}, nil
}

func (s *joinStep) Op() string       { return s.op }
func (s *joinStep) Output() string   { return s.output }
func (s *joinStep) Inputs() []string { return []string{s.left, s.right} }

// Apply indexes the right side by key text (duplicate keys are
// last-write-wins) and walks the left side in order. A match emits a
// fresh document holding the left record's fields plus the matched
// right record under "joined". A miss is dropped for inner joins and
// emitted with "joined" set to an empty object for left and full
// joins. Right-only records are never emitted, full joins included.
// A record whose key resolves to MISSING lands in the missing-key
// bucket: it matches right records whose key is also MISSING and never
// matches real values.
func (s *joinStep) Apply(reg *Registry, pol Policy) (document.Dataset, error) {
	left, err := reg.Lookup(s.left)
	if err != nil {
		return nil, err
	}
	right, err := reg.Lookup(s.right)
	if err != nil {
		return nil, err
	}

	index := make(map[string]document.Document, len(right))
	for _, rec := range right {
		index[keyText(document.Read(rec, s.rightKey))] = rec
	}

	out := make(document.Dataset, 0, len(left))
	for _, rec := range left {
		match, hit := index[keyText(document.Read(rec, s.leftKey))]
		if !hit && s.kind == joinInner {
			continue
		}
		merged := make(document.Document, len(rec)+1)
		for k, v := range rec {
			merged[k] = v
		}
		if hit {
			merged["joined"] = match
		} else {
			merged["joined"] = document.Document{}
		}
		out = append(out, merged)
	}
	return out, nil
}
