// Package sqlite implements the SQLite storage backend for cargohold. The
// registry is written to a single database file with one row per cargo
// record and one row per item.
package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/cargohold/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// metaNextTracking is the registry_meta key holding the allocator counter.
const metaNextTracking = "next_tracking"

// Compile-time interface check: Backend must implement types.Backend.
var _ types.Backend = (*Backend)(nil)

// Backend persists the registry in a SQLite database. Each Load and Save
// opens its own connection and closes it before returning.
type Backend struct {
	logger zerolog.Logger
}

// trackingCounter is implemented by registries that expose their allocator
// counter so it can be stored alongside the records.
type trackingCounter interface {
	NextTracking() int
}

// NewBackend creates a SQLite backend that reports skipped rows and I/O
// problems to logger.
func NewBackend(logger zerolog.Logger) *Backend {
	return &Backend{logger: logger}
}

// open opens the database at path and makes sure the schema exists.
func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return db, nil
}

// Save replaces every row in the database at path with the records of r, in
// one transaction.
func (b *Backend) Save(r types.Registry, path string) error {
	if err := b.save(r, path); err != nil {
		b.logger.Error().Err(err).Str("path", path).Msg("save failed")
		return fmt.Errorf("save %s: %w: %w", path, types.ErrIO, err)
	}
	b.logger.Debug().Str("path", path).Int("records", r.Len()).Msg("registry saved")
	return nil
}

func (b *Backend) save(r types.Registry, path string) error {
	db, err := open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM cargo_items"); err != nil {
		return fmt.Errorf("clearing cargo_items: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM cargo"); err != nil {
		return fmt.Errorf("clearing cargo: %w", err)
	}

	cargoStmt, err := tx.Prepare(`INSERT INTO cargo
		(cargo_id, position, tracking_number, sender, sender_address, destination, status, total_weight)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing cargo insert: %w", err)
	}
	defer cargoStmt.Close()

	itemStmt, err := tx.Prepare(`INSERT INTO cargo_items
		(item_id, cargo_id, ordinal, name, quantity, unit_weight)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing item insert: %w", err)
	}
	defer itemStmt.Close()

	position := 0
	for c := range r.All() {
		if _, err := cargoStmt.Exec(c.ID, position, c.TrackingNumber, c.Sender,
			c.SenderAddress, c.Destination, c.Status, c.TotalWeight); err != nil {
			return fmt.Errorf("inserting cargo %d: %w", c.ID, err)
		}
		for i, item := range c.Items {
			if _, err := itemStmt.Exec(generateUUID(), c.ID, i, item.Name,
				item.Quantity, item.UnitWeight); err != nil {
				return fmt.Errorf("inserting item %d of cargo %d: %w", i+1, c.ID, err)
			}
		}
		position++
	}

	if tc, ok := r.(trackingCounter); ok {
		if _, err := tx.Exec(
			"INSERT INTO registry_meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			metaNextTracking, strconv.Itoa(tc.NextTracking()),
		); err != nil {
			return fmt.Errorf("storing tracking counter: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing save transaction: %w", err)
	}
	return nil
}

// generateUUID generates a new UUID v7 for item row keys.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
