// Package sqlite exposes the SQLite catalog backend while keeping the
// implementation internal.
package sqlite

import (
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/marquee/internal/sqlite"
	"github.com/mesh-intelligence/marquee/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	backend := sqlite.NewBackend(log)
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".marquee-db",
//	    Seed:    types.SeedConfig{Enabled: true},
//	})
//	defer backend.Detach()
func NewBackend(log zerolog.Logger) types.Backend {
	return sqlite.NewBackend(log)
}
