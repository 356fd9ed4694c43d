// Package sqlite provides the public API for the SQLite ledger backend.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/crediario/internal/sqlite"
	"github.com/mesh-intelligence/crediario/pkg/types"
)

// NewBackend creates a new SQLite ledger. The ledger is not attached; call
// Attach with a Config to open it.
//
// Example:
//
//	ledger := sqlite.NewBackend(log)
//	err := ledger.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "/var/lib/crediario",
//	})
//	defer ledger.Detach()
func NewBackend(log zerolog.Logger) types.Ledger {
	return sqlite.NewBackend(sqlite.WithLogger(log))
}
