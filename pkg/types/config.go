package types

import (
	"errors"
	"path/filepath"
)

// Config selects the storage backend and where its data lives.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// Supported backend names.
const (
	BackendFlatFile = "flatfile"
	BackendSQLite   = "sqlite"
)

// Data file names inside DataDir, per backend.
const (
	FlatFileName = "cargo_data.txt"
	SQLiteName   = "cargo.db"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]string{
	BackendFlatFile: FlatFileName,
	BackendSQLite:   SQLiteName,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if _, ok := knownBackends[c.Backend]; !ok {
		return ErrBackendUnknown
	}
	return nil
}

// DataPath returns the file the configured backend reads and writes.
// An empty DataDir means the current directory.
func (c Config) DataPath() string {
	dir := c.DataDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, knownBackends[c.Backend])
}
