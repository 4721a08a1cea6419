package engine

import (
	"encoding/json"

	"dtl/internal/document"
)

type projectField struct {
	target  document.Path
	from    document.Path
	hasFrom bool
}

// projectStep rewrites each record into a fresh document via
// target-from-source path pairs. The spec may declare it as either
// "map" or "project".
type projectStep struct {
	op     string
	source string
	fields []projectField
	output string
}

func decodeProject(raw json.RawMessage) (Step, error) {
	var w struct {
		Op     string `json:"op"`
		Source string `json:"source"`
		Fields []struct {
			Target string  `json:"target"`
			From   *string `json:"from"`
		} `json:"fields"`
		OutputAs string `json:"outputAs"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, Configf("%s: %v", "map/project", err)
	}
	op := w.Op
	if err := requireKeys(op,
		"source", w.Source,
		"outputAs", w.OutputAs,
	); err != nil {
		return nil, err
	}
	if w.Fields == nil {
		return nil, Configf("%s: missing required key %q", op, "fields")
	}

	fields := make([]projectField, len(w.Fields))
	for i, f := range w.Fields {
		if f.Target == "" {
			return nil, Configf("%s: fields[%d] is missing target", op, i)
		}
		pf := projectField{target: document.ParsePath(f.Target)}
		if f.From != nil {
			pf.from = document.ParsePath(*f.From)
			pf.hasFrom = true
		}
		fields[i] = pf
	}
	return &projectStep{
		op:     op,
		source: w.Source,
		fields: fields,
		output: w.OutputAs,
	}, nil
}

func (s *projectStep) Op() string       { return s.op }
func (s *projectStep) Output() string   { return s.output }
func (s *projectStep) Inputs() []string { return []string{s.source} }

// Apply builds one fresh document per input record. Fields without a
// "from" contribute nothing, as does a "from" that resolves MISSING;
// the target key simply stays absent. Index segments in "from" read
// through arrays, so key/0 addresses the key array aggregate emits.
func (s *projectStep) Apply(reg *Registry, pol Policy) (document.Dataset, error) {
	src, err := reg.Lookup(s.source)
	if err != nil {
		return nil, err
	}
	out := make(document.Dataset, 0, len(src))
	for _, rec := range src {
		doc := document.Document{}
		for _, f := range s.fields {
			if !f.hasFrom {
				continue
			}
			v, ok := document.Read(rec, f.from)
			if !ok {
				continue
			}
			document.Write(doc, f.target, v)
		}
		out = append(out, doc)
	}
	return out, nil
}
