// Package all wires every built-in snapshot store backend into the
// store factory.
//
// It exists purely for side effects: importing it (even as a blank
// import) runs the init functions of the concrete backends, which in
// turn register their factories with the store package. Importing this
// package makes the following store kinds available at runtime:
//
//   - "sqlite"   (dtl/internal/flipwatch/store/sqlite)
//   - "postgres" (dtl/internal/flipwatch/store/postgres)
//
// Typical usage in a wiring layer such as cmd/flipwatch:
//
//	import (
//	    _ "dtl/internal/flipwatch/store/all" // enable all built-in backends
//
//	    "dtl/internal/flipwatch/store"
//	)
//
//	st, err := store.New(ctx, store.Config{Kind: kind, DSN: dsn})
//
// A binary that only needs a subset of backends can import the concrete
// backend packages directly instead of this one.
package all

import (
	_ "dtl/internal/flipwatch/store/postgres"
	_ "dtl/internal/flipwatch/store/sqlite"
)
