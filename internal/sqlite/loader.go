// This file implements loading the registry from the database at startup.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/mesh-intelligence/cargohold/internal/registry"
	"github.com/mesh-intelligence/cargohold/pkg/types"
)

// Load reads the registry stored in the database at path.
//
// A missing database yields an empty registry and is not created. A database
// that cannot be opened or queried is logged and treated as empty. Rows that
// do not form a valid record are skipped, and loading stops once the
// registry is full.
func (b *Backend) Load(path string) (types.Registry, error) {
	store := registry.New()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			b.logger.Info().Str("path", path).Msg("no database, starting empty")
		} else {
			b.logger.Warn().Err(err).Str("path", path).Msg("database unreadable, starting empty")
		}
		return store, nil
	}

	db, err := open(path)
	if err != nil {
		b.logger.Warn().Err(err).Str("path", path).Msg("database unreadable, starting empty")
		return store, nil
	}
	defer db.Close()

	records, err := readCargo(db)
	if err != nil {
		b.logger.Warn().Err(err).Str("path", path).Msg("database unreadable, starting empty")
		return store, nil
	}

	for _, rec := range records {
		if store.Len() >= store.Cap() {
			b.logger.Warn().Str("path", path).Int("capacity", store.Cap()).
				Msg("registry full, ignoring remaining rows")
			break
		}
		if err := store.Restore(rec); err != nil {
			b.logger.Warn().Err(err).Str("path", path).Int("id", rec.ID).Msg("skipping record")
		}
	}

	next, err := readNextTracking(db)
	if err != nil {
		b.logger.Warn().Err(err).Str("path", path).Msg("ignoring stored tracking counter")
	} else if next > 0 {
		store.Allocator().Reserve(next)
	}

	b.logger.Debug().Str("path", path).Int("records", store.Len()).Msg("registry loaded")
	return store, nil
}

// readCargo returns every cargo row, in saved order, with its items attached.
func readCargo(db *sql.DB) ([]types.Cargo, error) {
	rows, err := db.Query(`SELECT cargo_id, tracking_number, sender, sender_address,
		destination, status, total_weight FROM cargo ORDER BY position, cargo_id`)
	if err != nil {
		return nil, fmt.Errorf("querying cargo: %w", err)
	}
	defer rows.Close()

	var records []types.Cargo
	for rows.Next() {
		var c types.Cargo
		if err := rows.Scan(&c.ID, &c.TrackingNumber, &c.Sender, &c.SenderAddress,
			&c.Destination, &c.Status, &c.TotalWeight); err != nil {
			return nil, fmt.Errorf("scanning cargo: %w", err)
		}
		records = append(records, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cargo: %w", err)
	}

	for i := range records {
		items, err := readItems(db, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].Items = items
	}
	return records, nil
}

// readItems returns the items of one cargo record in ordinal order.
func readItems(db *sql.DB, cargoID int) ([]types.CargoItem, error) {
	rows, err := db.Query(
		"SELECT name, quantity, unit_weight FROM cargo_items WHERE cargo_id = ? ORDER BY ordinal", cargoID)
	if err != nil {
		return nil, fmt.Errorf("querying items of cargo %d: %w", cargoID, err)
	}
	defer rows.Close()

	var items []types.CargoItem
	for rows.Next() {
		var item types.CargoItem
		if err := rows.Scan(&item.Name, &item.Quantity, &item.UnitWeight); err != nil {
			return nil, fmt.Errorf("scanning item of cargo %d: %w", cargoID, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// readNextTracking returns the stored allocator counter, or 0 when none is
// stored.
func readNextTracking(db *sql.DB) (int, error) {
	var value string
	err := db.QueryRow("SELECT value FROM registry_meta WHERE key = ?", metaNextTracking).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading tracking counter: %w", err)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("tracking counter %q: %w", value, types.ErrInvalidNumericField)
	}
	return n, nil
}
