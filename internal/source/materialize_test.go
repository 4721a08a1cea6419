package source

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"dtl/internal/config"
	"dtl/internal/document"
)

// TestMaterializeAll loads every declared source and keys the result map
// by source name.
func TestMaterializeAll(t *testing.T) {
	t.Parallel()

	sources := map[string]config.DataSource{
		"orders": {
			Type: "inline",
			Data: json.RawMessage(`[{"orderId":"O1"},{"orderId":"O2"}]`),
		},
		"customers": {
			Type: "inline",
			Data: json.RawMessage(`[{"customerId":"C1"}]`),
		},
	}

	got, err := MaterializeAll(context.Background(), sources, 4)
	if err != nil {
		t.Fatalf("MaterializeAll() error = %v", err)
	}
	want := map[string]document.Dataset{
		"orders":    {{"orderId": "O1"}, {"orderId": "O2"}},
		"customers": {{"customerId": "C1"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MaterializeAll() = %v, want %v", got, want)
	}
}

// TestMaterializeAllError names the failing source and returns no partial map.
func TestMaterializeAllError(t *testing.T) {
	t.Parallel()

	sources := map[string]config.DataSource{
		"good": {Type: "inline", Data: json.RawMessage(`[]`)},
		"bad":  {Type: "inline", Data: json.RawMessage(`{"not":"an array"}`)},
	}

	got, err := MaterializeAll(context.Background(), sources, 2)
	if err == nil {
		t.Fatalf("MaterializeAll() error = nil, want shape error")
	}
	if !strings.Contains(err.Error(), "dataSource bad") {
		t.Fatalf("MaterializeAll() error = %q, want failing source name", err)
	}
	if got != nil {
		t.Fatalf("MaterializeAll() = %v, want nil on error", got)
	}
}

// TestMaterializeAllBadConfig fails fast when a source cannot even be built.
func TestMaterializeAllBadConfig(t *testing.T) {
	t.Parallel()

	sources := map[string]config.DataSource{
		"broken": {Type: "carrier-pigeon"},
	}

	_, err := MaterializeAll(context.Background(), sources, 2)
	if err == nil || !strings.Contains(err.Error(), "dataSource broken") {
		t.Fatalf("MaterializeAll() error = %v, want config error naming the source", err)
	}
}

// TestMaterializeAllParallelismFloor treats parallelism below one as one.
func TestMaterializeAllParallelismFloor(t *testing.T) {
	t.Parallel()

	sources := map[string]config.DataSource{
		"a": {Type: "inline", Data: json.RawMessage(`[{"k":"v"}]`)},
		"b": {Type: "inline", Data: json.RawMessage(`[{"k":"w"}]`)},
	}

	got, err := MaterializeAll(context.Background(), sources, 0)
	if err != nil {
		t.Fatalf("MaterializeAll() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("MaterializeAll() returned %d datasets, want 2", len(got))
	}
}

// TestMaterializeAllEmpty returns an empty map for an empty declaration.
func TestMaterializeAllEmpty(t *testing.T) {
	t.Parallel()

	got, err := MaterializeAll(context.Background(), nil, 4)
	if err != nil {
		t.Fatalf("MaterializeAll() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("MaterializeAll() = %v, want empty map", got)
	}
}
