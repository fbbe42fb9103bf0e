// Package flatfile implements the default cargohold storage backend: one
// pipe-delimited record per line in a plain text file.
package flatfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/cargohold/internal/codec"
	"github.com/mesh-intelligence/cargohold/internal/registry"
	"github.com/mesh-intelligence/cargohold/pkg/types"
)

// maxLineBytes bounds a record line. A longer line is skipped as malformed.
const maxLineBytes = 64 * 1024

// Compile-time interface check: Backend must implement types.Backend.
var _ types.Backend = (*Backend)(nil)

// Backend reads and writes the registry as a delimited text file.
type Backend struct {
	logger zerolog.Logger
}

// NewBackend creates a flat file backend that reports skipped lines and I/O
// problems to logger.
func NewBackend(logger zerolog.Logger) *Backend {
	return &Backend{logger: logger}
}

// Load reads the registry stored at path.
//
// A missing or unreadable file yields an empty registry: it is the expected
// state on first run and is never an error. Lines that fail to decode, that
// exceed maxLineBytes, or that repeat an id or tracking number already
// loaded, are skipped. Loading stops once the registry is full.
func (b *Backend) Load(path string) (types.Registry, error) {
	store := registry.New()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			b.logger.Info().Str("path", path).Msg("no data file, starting empty")
		} else {
			b.logger.Warn().Err(err).Str("path", path).Msg("data file unreadable, starting empty")
		}
		return store, nil
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	lineNo := 0
	for {
		line, readErr := reader.ReadString('\n')
		if len(line) > 0 {
			lineNo++
			if !b.loadLine(store, path, lineNo, line) {
				break
			}
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				b.logger.Warn().Err(readErr).Str("path", path).Int("line", lineNo).Msg("data file read stopped early")
			}
			break
		}
	}

	b.logger.Debug().Str("path", path).Int("records", store.Len()).Msg("registry loaded")
	return store, nil
}

// loadLine restores one raw line into store. It returns false once store is
// full and the remaining lines should be ignored.
func (b *Backend) loadLine(store *registry.Store, path string, lineNo int, line string) bool {
	line = strings.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return true
	}
	if store.Len() >= store.Cap() {
		b.logger.Warn().Str("path", path).Int("line", lineNo).Int("capacity", store.Cap()).
			Msg("registry full, ignoring remaining lines")
		return false
	}
	if len(line) > maxLineBytes {
		b.logger.Warn().Str("path", path).Int("line", lineNo).Int("bytes", len(line)).Msg("skipping oversized record")
		return true
	}
	record, err := codec.Decode(line)
	if err != nil {
		// Skip the line; the rest of the file still loads.
		b.logger.Warn().Err(err).Str("path", path).Int("line", lineNo).Msg("skipping malformed record")
		return true
	}
	if err := store.Restore(record); err != nil {
		b.logger.Warn().Err(err).Str("path", path).Int("line", lineNo).Int("id", record.ID).Msg("skipping record")
	}
	return true
}

// Save overwrites path with every record of r. The file is replaced
// atomically: records go to a temp file in the same directory which is
// fsynced and renamed over path. When path is a symlink the file it points
// to is replaced and the link is kept. An existing file keeps its mode.
func (b *Backend) Save(r types.Registry, path string) error {
	if err := writeLines(path, r); err != nil {
		b.logger.Error().Err(err).Str("path", path).Msg("save failed")
		return fmt.Errorf("save %s: %w: %w", path, types.ErrIO, err)
	}
	b.logger.Debug().Str("path", path).Int("records", r.Len()).Msg("registry saved")
	return nil
}

// writeLines encodes every record of r into a temp file and renames it over
// path.
func writeLines(path string, r types.Registry) error {
	path, mode, err := target(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cargo-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	for c := range r.All() {
		if _, err := w.WriteString(codec.Encode(c)); err != nil {
			return fail(fmt.Errorf("writing record %d: %w", c.ID, err))
		}
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// target resolves path through any symlinks and returns the file to replace
// with the mode it should have. A file that does not exist yet gets 0644.
func target(path string) (string, fs.FileMode, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if errors.Is(err, fs.ErrNotExist) {
		return path, 0o644, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", 0, fmt.Errorf("stat data file: %w", err)
	}
	return resolved, info.Mode().Perm(), nil
}
