// Package source materializes the data sources a spec declares into
// in-memory datasets the engine can run over.
//
// Two source types exist, mirroring the spec document:
//
//   - "file": reads documents from a local file, either newline-delimited
//     JSON objects ("jsonl") or one top-level JSON array ("json"). Files are
//     read through a BOM-tolerant decoder so UTF-8 and UTF-16 exports open
//     transparently.
//   - "inline": returns the literal "data" array from the spec.
//
// All decoding uses json.Decoder.UseNumber, so numeric fields survive
// round-tripping without float drift and the engine's coercion helpers see
// json.Number everywhere, whatever the source type.
package source

import (
	"context"

	"dtl/internal/config"
	"dtl/internal/document"
	"dtl/internal/engine"
)

// Source materializes one declared data source into a dataset.
type Source interface {
	// Materialize loads the full dataset. It honors ctx cancellation
	// between documents and never returns a partial dataset alongside an
	// error.
	Materialize(ctx context.Context) (document.Dataset, error)
}

// New constructs the Source for one spec declaration. An unknown type or
// file format is a ConfigError, surfaced before anything is read.
func New(cfg config.DataSource) (Source, error) {
	switch cfg.Type {
	case "file":
		switch cfg.Format {
		case "jsonl", "json":
		default:
			return nil, engine.Configf("unknown dataSource format %q (want jsonl or json)", cfg.Format)
		}
		if cfg.Path == "" {
			return nil, engine.Configf("file dataSource requires a path")
		}
		return &fileSource{format: cfg.Format, path: cfg.Path}, nil

	case "inline":
		return &inlineSource{data: cfg.Data}, nil

	default:
		return nil, engine.Configf("unknown dataSource type %q (want file or inline)", cfg.Type)
	}
}
