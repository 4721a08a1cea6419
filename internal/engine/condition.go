package engine

import (
	"bytes"
	"encoding/json"
	"fmt"

	"dtl/internal/document"
)

// Condition is one node of the predicate tree a filter step evaluates
// against each record: a combinator (all, any, not) over child nodes or
// a leaf comparison {path, operator, value}.
type Condition interface {
	eval(doc document.Document, pol Policy) (bool, error)
}

// DecodeCondition decodes one condition node. A node holding an "all",
// "any", or "not" key is a combinator; anything else must carry a
// "path" and decodes as a leaf. Structural defects are ConfigErrors.
func DecodeCondition(raw json.RawMessage) (Condition, error) {
	var node map[string]json.RawMessage
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, Configf("condition: node is not an object: %v", err)
	}

	if kids, ok := node["all"]; ok {
		list, err := decodeConditionList("all", kids)
		if err != nil {
			return nil, err
		}
		return &allCond{kids: list}, nil
	}
	if kids, ok := node["any"]; ok {
		list, err := decodeConditionList("any", kids)
		if err != nil {
			return nil, err
		}
		return &anyCond{kids: list}, nil
	}
	if kid, ok := node["not"]; ok {
		c, err := DecodeCondition(kid)
		if err != nil {
			return nil, err
		}
		return &notCond{kid: c}, nil
	}

	rawPath, ok := node["path"]
	if !ok {
		return nil, Configf("condition: node has no all/any/not combinator and no path")
	}
	var pathText string
	if err := json.Unmarshal(rawPath, &pathText); err != nil {
		return nil, Configf("condition: path is not a string: %v", err)
	}
	var op string
	if rawOp, ok := node["operator"]; ok {
		if err := json.Unmarshal(rawOp, &op); err != nil {
			return nil, Configf("condition: operator is not a string: %v", err)
		}
	}

	var value any
	if rawVal, ok := node["value"]; ok {
		dec := json.NewDecoder(bytes.NewReader(rawVal))
		dec.UseNumber()
		if err := dec.Decode(&value); err != nil {
			return nil, Configf("condition: value: %v", err)
		}
	}

	leaf := &leafCond{
		path:      document.ParsePath(pathText),
		pathText:  pathText,
		op:        op,
		value:     value,
		valueText: document.Text(value),
	}
	leaf.valueF, leaf.valueOK = document.Float(value)
	return leaf, nil
}

func decodeConditionList(kind string, raw json.RawMessage) ([]Condition, error) {
	var kids []json.RawMessage
	if err := json.Unmarshal(raw, &kids); err != nil {
		return nil, Configf("condition: %s must hold a list of nodes: %v", kind, err)
	}
	list := make([]Condition, 0, len(kids))
	for _, kid := range kids {
		c, err := DecodeCondition(kid)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, nil
}

// allCond is true iff every child is true; vacuously true when empty.
type allCond struct {
	kids []Condition
}

func (c *allCond) eval(doc document.Document, pol Policy) (bool, error) {
	for _, kid := range c.kids {
		ok, err := kid.eval(doc, pol)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// anyCond is true iff at least one child is true; vacuously false when
// empty.
type anyCond struct {
	kids []Condition
}

func (c *anyCond) eval(doc document.Document, pol Policy) (bool, error) {
	for _, kid := range c.kids {
		ok, err := kid.eval(doc, pol)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// notCond negates its single child.
type notCond struct {
	kid Condition
}

func (c *notCond) eval(doc document.Document, pol Policy) (bool, error) {
	ok, err := c.kid.eval(doc, pol)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// leafCond compares the value at path against a literal. The literal's
// text and float forms are precomputed at decode time so evaluation
// does not re-coerce per record.
type leafCond struct {
	path     document.Path
	pathText string
	op       string

	value     any
	valueText string
	valueF    float64
	valueOK   bool
}

// eval resolves the leaf path and dispatches on the operator. A MISSING
// or null value is false regardless of operator. gt compares
// numerically, eq compares text forms, and an unrecognized operator is
// false.
func (c *leafCond) eval(doc document.Document, pol Policy) (bool, error) {
	v, ok := document.Read(doc, c.path)
	if !ok || v == nil {
		pol.absorb()
		return false, nil
	}

	switch c.op {
	case "gt":
		f, fok := document.Float(v)
		if !fok {
			if err := pol.miss("gt", c.pathText); err != nil {
				return false, err
			}
			return false, nil
		}
		if !c.valueOK {
			if pol.Strict {
				return false, fmt.Errorf("gt: cannot coerce condition value %v to number: %w", c.value, ErrCoercion)
			}
			pol.observe("coercion_miss", 1)
			return false, nil
		}
		return f > c.valueF, nil

	case "eq":
		return document.Text(v) == c.valueText, nil

	default:
		return false, nil
	}
}
