package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"dtl/internal/document"
	"dtl/internal/engine"
)

// inlineSource decodes documents embedded in the spec itself.
type inlineSource struct {
	data json.RawMessage
}

func (s *inlineSource) Materialize(ctx context.Context) (document.Dataset, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	dec := json.NewDecoder(bytes.NewReader(s.data))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decode inline data: %w", err)
	}
	arr, ok := root.([]any)
	if !ok {
		return nil, engine.Shapef("inline data is %T, want an array of documents", root)
	}
	return datasetFromAny(arr)
}
