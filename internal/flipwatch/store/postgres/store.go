// Package postgres persists flipwatch snapshots in Postgres using pgx v5.
// Snapshot rows are sent as one pgx batch; re-saving a run under the same
// run id replaces that run's rows instead of failing.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dtl/internal/flipwatch"
)

const runsDDL = `CREATE TABLE IF NOT EXISTS flipwatch_runs (
	run_id   TEXT PRIMARY KEY,
	watch    TEXT NOT NULL,
	source   TEXT NOT NULL,
	taken_at TIMESTAMPTZ NOT NULL
)`

const flipsDDL = `CREATE TABLE IF NOT EXISTS flipwatch_flips (
	run_id    TEXT NOT NULL REFERENCES flipwatch_runs(run_id),
	key       TEXT NOT NULL,
	old_value TEXT NOT NULL,
	new_value TEXT NOT NULL
)`

// rowsDDL is completed with the quoted per-watch table name. seq keeps
// the original insert order for reads.
const rowsDDL = `CREATE TABLE IF NOT EXISTS %s (
	seq         BIGSERIAL,
	run_id      TEXT NOT NULL REFERENCES flipwatch_runs(run_id),
	key         TEXT NOT NULL,
	fingerprint BIGINT NOT NULL,
	value       TEXT NOT NULL,
	PRIMARY KEY (run_id, key)
)`

// Store is a Postgres-backed snapshot store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore opens a connection pool for dsn. Connections are established
// lazily, so a bad address surfaces on first use rather than here.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

// rowsTable names the per-watch row table. The watch name passes through
// identifier normalization again so a raw path is safe here too.
func rowsTable(watch string) string {
	return "flipwatch_" + flipwatch.Ident(watch) + "_rows"
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func (s *Store) ensureTables(ctx context.Context, watch string) error {
	stmts := []string{
		runsDDL,
		flipsDDL,
		fmt.Sprintf(rowsDDL, pgIdent(rowsTable(watch))),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: ensure tables: %w", err)
		}
	}
	return nil
}

// SaveSnapshot writes the run header and every row in one transaction,
// replacing any rows a previous save stored under the same run id.
// Fingerprints are stored as BIGINT with the same bits; readers convert
// back to uint64.
func (s *Store) SaveSnapshot(ctx context.Context, snap flipwatch.Snapshot) error {
	if err := s.ensureTables(ctx, snap.Watch); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO flipwatch_runs (run_id, watch, source, taken_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (run_id) DO UPDATE SET watch = EXCLUDED.watch,
		   source = EXCLUDED.source, taken_at = EXCLUDED.taken_at`,
		snap.RunID, flipwatch.Ident(snap.Watch), snap.Source, snap.TakenAt.UTC(),
	); err != nil {
		return fmt.Errorf("postgres: insert run: %w", err)
	}

	if _, err := tx.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE run_id = $1`, pgIdent(rowsTable(snap.Watch))),
		snap.RunID,
	); err != nil {
		return fmt.Errorf("postgres: clear rows: %w", err)
	}

	insert := fmt.Sprintf(
		`INSERT INTO %s (run_id, key, fingerprint, value) VALUES ($1, $2, $3, $4)`,
		pgIdent(rowsTable(snap.Watch)),
	)
	batch := &pgx.Batch{}
	for _, row := range snap.Rows {
		batch.Queue(insert, snap.RunID, row.Key, int64(row.Fingerprint), row.Value)
	}

	br := tx.SendBatch(ctx, batch)
	for range snap.Rows {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Detail != "" {
				return fmt.Errorf("postgres: insert rows: %s (%s)", pgErr.Detail, pgErr.SQLState())
			}
			return fmt.Errorf("postgres: insert rows: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("postgres: close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// LastSnapshot loads the most recent run recorded under watch, rows in
// their original insert order.
func (s *Store) LastSnapshot(ctx context.Context, watch string) (flipwatch.Snapshot, bool, error) {
	if err := s.ensureTables(ctx, watch); err != nil {
		return flipwatch.Snapshot{}, false, err
	}

	var snap flipwatch.Snapshot
	err := s.pool.QueryRow(ctx,
		`SELECT run_id, watch, source, taken_at FROM flipwatch_runs
		 WHERE watch = $1 ORDER BY taken_at DESC LIMIT 1`,
		flipwatch.Ident(watch),
	).Scan(&snap.RunID, &snap.Watch, &snap.Source, &snap.TakenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return flipwatch.Snapshot{}, false, nil
	}
	if err != nil {
		return flipwatch.Snapshot{}, false, fmt.Errorf("postgres: load run: %w", err)
	}
	snap.TakenAt = snap.TakenAt.UTC()

	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT key, fingerprint, value FROM %s WHERE run_id = $1 ORDER BY seq`,
		pgIdent(rowsTable(watch)),
	), snap.RunID)
	if err != nil {
		return flipwatch.Snapshot{}, false, fmt.Errorf("postgres: load rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r flipwatch.Row
		var fp int64
		if err := rows.Scan(&r.Key, &fp, &r.Value); err != nil {
			return flipwatch.Snapshot{}, false, fmt.Errorf("postgres: scan row: %w", err)
		}
		r.Fingerprint = uint64(fp)
		snap.Rows = append(snap.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return flipwatch.Snapshot{}, false, fmt.Errorf("postgres: rows: %w", err)
	}
	return snap, true, nil
}

// SaveFlips records the run's flips; a run with no flips writes nothing.
func (s *Store) SaveFlips(ctx context.Context, runID string, flips []flipwatch.Flip) error {
	if len(flips) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, runsDDL); err != nil {
		return fmt.Errorf("postgres: ensure tables: %w", err)
	}
	if _, err := s.pool.Exec(ctx, flipsDDL); err != nil {
		return fmt.Errorf("postgres: ensure tables: %w", err)
	}

	batch := &pgx.Batch{}
	for _, flip := range flips {
		batch.Queue(
			`INSERT INTO flipwatch_flips (run_id, key, old_value, new_value) VALUES ($1, $2, $3, $4)`,
			runID, flip.Key, flip.Old, flip.New)
	}

	br := s.pool.SendBatch(ctx, batch)
	for range flips {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("postgres: insert flips: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("postgres: close batch: %w", err)
	}
	return nil
}
