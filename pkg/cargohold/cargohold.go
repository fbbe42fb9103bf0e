// Package cargohold provides the public API for opening a cargo registry
// backed by one of the storage backends, while keeping the implementations
// internal.
//
// Example:
//
//	hold, err := cargohold.Open(types.Config{
//	    Backend: types.BackendFlatFile,
//	    DataDir: ".",
//	}, zerolog.Nop())
//	if err != nil {
//	    return err
//	}
//	if _, err := hold.Registry.Add(cargo); err != nil {
//	    return err
//	}
//	return hold.Save()
package cargohold

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/cargohold/internal/flatfile"
	"github.com/mesh-intelligence/cargohold/internal/sqlite"
	"github.com/mesh-intelligence/cargohold/pkg/types"
)

// Version is the cargohold release version.
const Version = "0.1.0"

// NewBackend creates the storage backend named by cfg.Backend.
func NewBackend(cfg types.Config, logger zerolog.Logger) (types.Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("backend %q: %w", cfg.Backend, err)
	}
	switch cfg.Backend {
	case types.BackendSQLite:
		return sqlite.NewBackend(logger), nil
	default:
		return flatfile.NewBackend(logger), nil
	}
}

// Hold is a registry loaded from storage together with the backend and path
// it was loaded from.
type Hold struct {
	Registry types.Registry

	backend types.Backend
	path    string
}

// Open creates the configured backend and loads the registry from its data
// file. A missing data file yields an empty registry.
func Open(cfg types.Config, logger zerolog.Logger) (*Hold, error) {
	backend, err := NewBackend(cfg, logger)
	if err != nil {
		return nil, err
	}
	path := cfg.DataPath()
	r, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return &Hold{Registry: r, backend: backend, path: path}, nil
}

// Path returns the data file the Hold reads and writes.
func (h *Hold) Path() string {
	return h.path
}

// Save writes the registry back to its data file.
func (h *Hold) Save() error {
	return h.backend.Save(h.Registry, h.path)
}
