// Package sqlite persists flipwatch snapshots in a SQLite database via
// database/sql. Snapshot rows are inserted with a prepared statement
// inside a single transaction; SQLite has no dedicated bulk-load API,
// but one transaction keeps moderate volumes fast. Re-saving a run under
// the same run id replaces that run's rows instead of failing.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"dtl/internal/flipwatch"
)

const runsDDL = `CREATE TABLE IF NOT EXISTS flipwatch_runs (
	run_id   TEXT PRIMARY KEY,
	watch    TEXT NOT NULL,
	source   TEXT NOT NULL,
	taken_at TEXT NOT NULL
)`

const flipsDDL = `CREATE TABLE IF NOT EXISTS flipwatch_flips (
	run_id    TEXT NOT NULL REFERENCES flipwatch_runs(run_id),
	key       TEXT NOT NULL,
	old_value TEXT NOT NULL,
	new_value TEXT NOT NULL
)`

// rowsDDL is completed with the quoted per-watch table name.
const rowsDDL = `CREATE TABLE IF NOT EXISTS %s (
	run_id      TEXT NOT NULL REFERENCES flipwatch_runs(run_id),
	key         TEXT NOT NULL,
	fingerprint INTEGER NOT NULL,
	value       TEXT NOT NULL,
	PRIMARY KEY (run_id, key)
)`

// takenAtLayout keeps the fractional part fixed-width so stored text
// timestamps sort lexicographically in chronological order; RFC3339Nano
// trims trailing zeros and loses that property.
const takenAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite-backed snapshot store.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database using the provided DSN. The DSN is
// passed directly to database/sql; ":memory:" or a file path both work.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	// Session pragmas; ignore errors where the driver does not support one.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
	} {
		_, _ = db.ExecContext(ctx, pragma)
	}

	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}

// rowsTable names the per-watch row table. The watch name passes through
// identifier normalization again so a raw path is safe here too.
func rowsTable(watch string) string {
	return "flipwatch_" + flipwatch.Ident(watch) + "_rows"
}

// sqlIdent quotes an identifier for SQLite.
func sqlIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func (s *Store) ensureTables(ctx context.Context, watch string) error {
	stmts := []string{
		runsDDL,
		flipsDDL,
		fmt.Sprintf(rowsDDL, sqlIdent(rowsTable(watch))),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: ensure tables: %w", err)
		}
	}
	return nil
}

// SaveSnapshot writes the run header and every row in one transaction,
// replacing any rows a previous save stored under the same run id.
// Fingerprints are stored as int64 with the same bits; readers convert
// back to uint64.
func (s *Store) SaveSnapshot(ctx context.Context, snap flipwatch.Snapshot) error {
	if err := s.ensureTables(ctx, snap.Watch); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO flipwatch_runs (run_id, watch, source, taken_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET watch = excluded.watch,
		   source = excluded.source, taken_at = excluded.taken_at`,
		snap.RunID, flipwatch.Ident(snap.Watch), snap.Source,
		snap.TakenAt.UTC().Format(takenAtLayout),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: insert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE run_id = ?`, sqlIdent(rowsTable(snap.Watch)),
	), snap.RunID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: clear rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (run_id, key, fingerprint, value) VALUES (?, ?, ?, ?)`,
		sqlIdent(rowsTable(snap.Watch)),
	))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range snap.Rows {
		if _, err := stmt.ExecContext(ctx, snap.RunID, row.Key, int64(row.Fingerprint), row.Value); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlite: insert row %q: %w", row.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
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
	var takenAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, watch, source, taken_at FROM flipwatch_runs
		 WHERE watch = ? ORDER BY taken_at DESC, rowid DESC LIMIT 1`,
		flipwatch.Ident(watch),
	).Scan(&snap.RunID, &snap.Watch, &snap.Source, &takenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return flipwatch.Snapshot{}, false, nil
	}
	if err != nil {
		return flipwatch.Snapshot{}, false, fmt.Errorf("sqlite: load run: %w", err)
	}

	snap.TakenAt, err = time.Parse(takenAtLayout, takenAt)
	if err != nil {
		return flipwatch.Snapshot{}, false, fmt.Errorf("sqlite: parse taken_at %q: %w", takenAt, err)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT key, fingerprint, value FROM %s WHERE run_id = ? ORDER BY rowid`,
		sqlIdent(rowsTable(watch)),
	), snap.RunID)
	if err != nil {
		return flipwatch.Snapshot{}, false, fmt.Errorf("sqlite: load rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r flipwatch.Row
		var fp int64
		if err := rows.Scan(&r.Key, &fp, &r.Value); err != nil {
			return flipwatch.Snapshot{}, false, fmt.Errorf("sqlite: scan row: %w", err)
		}
		r.Fingerprint = uint64(fp)
		snap.Rows = append(snap.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return flipwatch.Snapshot{}, false, fmt.Errorf("sqlite: rows: %w", err)
	}
	return snap, true, nil
}

// SaveFlips records the run's flips; a run with no flips writes nothing.
func (s *Store) SaveFlips(ctx context.Context, runID string, flips []flipwatch.Flip) error {
	if len(flips) == 0 {
		return nil
	}
	for _, stmt := range []string{runsDDL, flipsDDL} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: ensure tables: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO flipwatch_flips (run_id, key, old_value, new_value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, flip := range flips {
		if _, err := stmt.ExecContext(ctx, runID, flip.Key, flip.Old, flip.New); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlite: insert flip %q: %w", flip.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}
