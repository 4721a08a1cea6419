package engine

import (
	"encoding/json"
	"sort"
	"strings"

	"dtl/internal/document"
)

// accumulator folds one value per source record into a final result.
type accumulator interface {
	add(v any, ok bool, pol Policy) error
	result() any
}

// accFuncs is the registry of aggregation functions. New functions slot
// in here without touching the fold itself.
var accFuncs = map[string]func(fieldText string) accumulator{
	"sum":   func(field string) accumulator { return &sumAcc{field: field} },
	"count": func(string) accumulator { return &countAcc{} },
}

// fieldless marks functions that never read the field path.
var fieldless = map[string]bool{
	"count": true,
}

// AccFuncs returns the registered aggregation function names, sorted.
func AccFuncs() []string {
	names := make([]string, 0, len(accFuncs))
	for name := range accFuncs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sumAcc totals the numeric values at a field path. A MISSING or null
// value contributes 0; a present value that fails float coercion is a
// policy miss.
type sumAcc struct {
	field string
	total float64
}

func (a *sumAcc) add(v any, ok bool, pol Policy) error {
	if !ok || v == nil {
		pol.absorb()
		return nil
	}
	f, fok := document.Float(v)
	if !fok {
		return pol.miss("sum", a.field)
	}
	a.total += f
	return nil
}

func (a *sumAcc) result() any { return a.total }

// countAcc counts records per group, ignoring the field entirely.
type countAcc struct {
	n int
}

func (a *countAcc) add(any, bool, Policy) error { a.n++; return nil }
func (a *countAcc) result() any                 { return a.n }

type aggSpec struct {
	field     document.Path
	fieldText string
	fn        string
	target    document.Path
}

// aggregateStep groups one dataset by a composite key and reduces each
// group with the declared accumulator functions.
type aggregateStep struct {
	op          string
	source      string
	groupBy     []document.Path
	groupByText []string
	aggs        []aggSpec
	output      string
}

func decodeAggregate(raw json.RawMessage) (Step, error) {
	var w struct {
		Op           string   `json:"op"`
		Source       string   `json:"source"`
		GroupBy      []string `json:"groupBy"`
		Aggregations []struct {
			Field  string `json:"field"`
			Func   string `json:"func"`
			Target string `json:"target"`
		} `json:"aggregations"`
		OutputAs string `json:"outputAs"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, Configf("aggregate: %v", err)
	}
	if err := requireKeys("aggregate",
		"source", w.Source,
		"outputAs", w.OutputAs,
	); err != nil {
		return nil, err
	}

	st := &aggregateStep{
		op:          w.Op,
		source:      w.Source,
		groupByText: w.GroupBy,
		output:      w.OutputAs,
	}
	st.groupBy = make([]document.Path, len(w.GroupBy))
	for i, p := range w.GroupBy {
		st.groupBy[i] = document.ParsePath(p)
	}
	st.aggs = make([]aggSpec, len(w.Aggregations))
	for i, a := range w.Aggregations {
		if strings.TrimSpace(a.Func) == "" {
			return nil, Configf("aggregate: aggregations[%d] is missing func", i)
		}
		if _, ok := accFuncs[a.Func]; !ok {
			return nil, Configf("aggregate: aggregations[%d] has unknown func %q (known funcs: %s)",
				i, a.Func, strings.Join(AccFuncs(), ", "))
		}
		if strings.TrimSpace(a.Target) == "" {
			return nil, Configf("aggregate: aggregations[%d] is missing target", i)
		}
		if strings.TrimSpace(a.Field) == "" && !fieldless[a.Func] {
			return nil, Configf("aggregate: aggregations[%d] (%s) is missing field", i, a.Func)
		}
		st.aggs[i] = aggSpec{
			field:     document.ParsePath(a.Field),
			fieldText: a.Field,
			fn:        a.Func,
			target:    document.ParsePath(a.Target),
		}
	}
	return st, nil
}

func (s *aggregateStep) Op() string       { return s.op }
func (s *aggregateStep) Output() string   { return s.output }
func (s *aggregateStep) Inputs() []string { return []string{s.source} }

// Apply makes a single pass over the source. Each record's composite
// key is its group-by paths rendered to text and joined with groupSep;
// groups are created lazily in first-seen order, which is also the
// emission order. Every output document carries a "key" field holding
// the ordered group-by values (an empty string stands in where the
// path was MISSING, so key/i is always addressable) plus one value per
// aggregation written at its target path, which may be nested.
func (s *aggregateStep) Apply(reg *Registry, pol Policy) (document.Dataset, error) {
	src, err := reg.Lookup(s.source)
	if err != nil {
		return nil, err
	}

	type group struct {
		key  []any
		accs []accumulator
	}
	groups := make(map[string]*group)
	order := make([]string, 0, 16)

	for _, rec := range src {
		parts := make([]string, len(s.groupBy))
		for i, p := range s.groupBy {
			parts[i] = keyText(document.Read(rec, p))
		}
		composite := strings.Join(parts, groupSep)

		g, seen := groups[composite]
		if !seen {
			key := make([]any, len(s.groupBy))
			for i, p := range s.groupBy {
				v, ok := document.Read(rec, p)
				if !ok {
					v = ""
				}
				key[i] = v
			}
			accs := make([]accumulator, len(s.aggs))
			for i, a := range s.aggs {
				accs[i] = accFuncs[a.fn](a.fieldText)
			}
			g = &group{key: key, accs: accs}
			groups[composite] = g
			order = append(order, composite)
		}

		for i, a := range s.aggs {
			v, ok := document.Read(rec, a.field)
			if err := g.accs[i].add(v, ok, pol); err != nil {
				return nil, err
			}
		}
	}

	out := make(document.Dataset, 0, len(order))
	for _, composite := range order {
		g := groups[composite]
		doc := document.Document{"key": g.key}
		for i, a := range s.aggs {
			document.Write(doc, a.target, g.accs[i].result())
		}
		out = append(out, doc)
	}
	pol.observe("groups", len(order))
	return out, nil
}
