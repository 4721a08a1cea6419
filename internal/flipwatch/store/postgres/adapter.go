package postgres

import (
	"context"

	"dtl/internal/flipwatch/store"
)

// newStore is swapped out by tests to exercise the factory wiring
// without touching a real database.
var newStore = NewStore

var _ store.Store = (*Store)(nil)

func init() {
	store.Register("postgres", func(ctx context.Context, cfg store.Config) (store.Store, error) {
		return newStore(ctx, cfg.DSN)
	})
}
