package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"dtl/internal/config"
	"dtl/internal/document"
	"dtl/internal/flipwatch"
	"dtl/internal/flipwatch/store"
	"dtl/internal/metrics"
	"dtl/internal/source"
)

// runOptions carries the resolved CLI settings into a watch run.
type runOptions struct {
	inputPath string
	format    string
	keyRaw    string
	watchRaw  string
	storeKind string
	dsn       string
	runID     string
	job       string

	// out receives the flip report; main wires stdout here.
	out  io.Writer
	logf func(format string, a ...any)
}

// run performs one watch cycle: materialize the input, snapshot it,
// diff against the last stored snapshot, print the report, and persist
// the new snapshot plus its flips.
func run(ctx context.Context, opts runOptions) error {
	start := time.Now()

	src, err := source.New(config.DataSource{
		Type:   "file",
		Format: opts.format,
		Path:   opts.inputPath,
	})
	if err != nil {
		return err
	}
	ds, err := src.Materialize(ctx)
	if err != nil {
		return err
	}

	watch := flipwatch.Ident(opts.watchRaw)
	snap, err := flipwatch.Snap(opts.runID, watch, opts.inputPath, ds,
		document.ParsePath(opts.keyRaw), document.ParsePath(opts.watchRaw))
	if err != nil {
		return err
	}
	if opts.logf != nil {
		opts.logf("snapshot: watch=%s keyed %d of %d record(s)", watch, len(snap.Rows), len(ds))
	}

	st, err := store.New(ctx, store.Config{Kind: opts.storeKind, DSN: opts.dsn})
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(ctx); err != nil {
			log.Printf("store: close error: %v", err)
		}
	}()

	prev, ok, err := st.LastSnapshot(ctx, watch)
	if err != nil {
		return err
	}

	var rep flipwatch.Report
	if ok {
		rep = flipwatch.Diff(prev, snap)
		printReport(opts.out, rep)
	} else if opts.logf != nil {
		opts.logf("no previous snapshot for watch=%s; recording baseline", watch)
	}

	if err := st.SaveSnapshot(ctx, snap); err != nil {
		return err
	}
	if err := st.SaveFlips(ctx, opts.runID, rep.Flips); err != nil {
		return err
	}
	metrics.RecordFlips(opts.job, len(rep.Flips))

	if opts.logf != nil {
		opts.logf("run=%s watch=%s rows=%d flips=%d new=%d gone=%d in %s",
			opts.runID, watch, len(snap.Rows),
			len(rep.Flips), len(rep.New), len(rep.Gone),
			time.Since(start).Truncate(time.Millisecond))
	}
	return nil
}

// printReport writes one line per flip, new key, and gone key.
func printReport(w io.Writer, rep flipwatch.Report) {
	for _, f := range rep.Flips {
		fmt.Fprintf(w, "flip %s: %q -> %q\n", f.Key, f.Old, f.New)
	}
	for _, k := range rep.New {
		fmt.Fprintf(w, "new %s\n", k)
	}
	for _, k := range rep.Gone {
		fmt.Fprintf(w, "gone %s\n", k)
	}
}
