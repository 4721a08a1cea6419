// Package store defines the snapshot persistence contract for flipwatch
// and a factory registry for its backends. Concrete backends register
// themselves in init; importing dtl/internal/flipwatch/store/all links
// every shipped backend into a binary.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"dtl/internal/flipwatch"
)

// Store persists snapshots and flips across runs. Implementations create
// their tables lazily on first save; the per-watch row tables are named
// after the normalized watch identifier.
type Store interface {
	// SaveSnapshot persists one run's snapshot atomically. Re-saving a
	// run id replaces that run's rows.
	SaveSnapshot(ctx context.Context, snap flipwatch.Snapshot) error
	// LastSnapshot loads the most recent snapshot taken under watch.
	// ok is false when no run was recorded yet.
	LastSnapshot(ctx context.Context, watch string) (flipwatch.Snapshot, bool, error)
	// SaveFlips records the flips observed by the run.
	SaveFlips(ctx context.Context, runID string, flips []flipwatch.Flip) error
	// Close releases the backend's resources.
	Close(ctx context.Context) error
}

// Config selects and configures a backend.
type Config struct {
	// Kind names a registered backend.
	Kind string
	// DSN is passed through to the backend's driver.
	DSN string
}

// Factory constructs a Store from its configuration.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs a backend factory under kind. Re-registering a kind
// replaces the previous factory, which tests use to inject fakes.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New constructs the backend cfg.Kind names.
func New(ctx context.Context, cfg Config) (Store, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported store.kind=%s (known kinds: %s)",
			cfg.Kind, strings.Join(ListKinds(), ", "))
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered backend kinds, sorted, as a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for kind := range factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
