package source

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"dtl/internal/config"
	"dtl/internal/document"
)

// MaterializeAll loads every declared dataSource, at most parallelism at a
// time, and returns the datasets keyed by source name. The first failure
// cancels the remaining loads and is returned wrapped with the source name.
// A parallelism of zero or less means one source at a time.
func MaterializeAll(ctx context.Context, sources map[string]config.DataSource, parallelism int) (map[string]document.Dataset, error) {
	if parallelism < 1 {
		parallelism = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	var mu sync.Mutex
	out := make(map[string]document.Dataset, len(sources))

	for name, cfg := range sources {
		src, err := New(cfg)
		if err != nil {
			return nil, fmt.Errorf("dataSource %s: %w", name, err)
		}
		name := name
		g.Go(func() error {
			ds, err := src.Materialize(ctx)
			if err != nil {
				return fmt.Errorf("dataSource %s: %w", name, err)
			}
			mu.Lock()
			out[name] = ds
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
