package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

// TestOps lists the recognized operations sorted, map and project both
// included.
func TestOps(t *testing.T) {
	t.Parallel()

	got := Ops()
	want := []string{"aggregate", "filter", "join", "map", "project"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Ops() = %v, want %v", got, want)
	}
}

// TestDecodeStep covers the op dispatch defects: missing op, unknown op,
// casing, and non-object steps.
func TestDecodeStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{"missing op", `{"source":"s"}`, "step is missing op"},
		{"blank op", `{"op":"  "}`, "step is missing op"},
		{"unknown op", `{"op":"explode"}`, "unsupported step.op=explode (known ops: aggregate, filter, join, map, project)"},
		{"op casing is exact", `{"op":"Filter"}`, "unsupported step.op=Filter"},
		{"not an object", `[1]`, "step is not an object"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodeStep(json.RawMessage(tt.raw))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("DecodeStep(%s) error = %v, want substring %q", tt.raw, err, tt.wantErr)
			}
			if !IsConfig(err) {
				t.Fatalf("DecodeStep(%s) error is not a config error: %v", tt.raw, err)
			}
		})
	}
}

// TestDecodeSteps prefixes decode failures with the step position.
func TestDecodeSteps(t *testing.T) {
	t.Parallel()

	raws := []json.RawMessage{
		json.RawMessage(`{"op":"filter","source":"s","condition":{"all":[]},"outputAs":"a"}`),
		json.RawMessage(`{"op":"bogus"}`),
	}
	_, err := DecodeSteps(raws)
	if err == nil || !strings.Contains(err.Error(), "steps[1]:") {
		t.Fatalf("DecodeSteps() error = %v, want steps[1] prefix", err)
	}
	if !IsConfig(err) {
		t.Fatalf("DecodeSteps() error is not a config error: %v", err)
	}
}

// TestDecodeStepsAll decodes a whole well-formed pipeline up front.
func TestDecodeStepsAll(t *testing.T) {
	t.Parallel()

	raws := []json.RawMessage{
		json.RawMessage(`{"op":"join","leftSource":"a","rightSource":"b","leftKey":"k","rightKey":"k","joinType":"inner","outputAs":"j"}`),
		json.RawMessage(`{"op":"filter","source":"j","condition":{"all":[]},"outputAs":"f"}`),
		json.RawMessage(`{"op":"aggregate","source":"f","groupBy":["k"],"aggregations":[{"func":"count","target":"n"}],"outputAs":"g"}`),
		json.RawMessage(`{"op":"project","source":"g","fields":[{"target":"n","from":"n"}],"outputAs":"out"}`),
	}
	steps, err := DecodeSteps(raws)
	if err != nil {
		t.Fatalf("DecodeSteps() error = %v", err)
	}
	if len(steps) != 4 {
		t.Fatalf("DecodeSteps() decoded %d steps, want 4", len(steps))
	}
	wantOps := []string{"join", "filter", "aggregate", "project"}
	for i, st := range steps {
		if st.Op() != wantOps[i] {
			t.Fatalf("steps[%d].Op() = %q, want %q", i, st.Op(), wantOps[i])
		}
	}
}
