// Tests for the SQLite backend.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/cargohold/internal/registry"
	"github.com/mesh-intelligence/cargohold/pkg/types"
)

func newBackend() *Backend {
	return NewBackend(zerolog.Nop())
}

func dbPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), types.SQLiteName)
}

func sampleStore(t *testing.T) *registry.Store {
	t.Helper()
	store := registry.New()
	_, err := store.Add(types.Cargo{
		ID: 1, Sender: "Acme Co", SenderAddress: "123 Main St",
		Destination: "Springfield", Status: "In Transit",
		Items: []types.CargoItem{
			{Name: "Widget", Quantity: 10, UnitWeight: 1.55},
			{Name: "Gadget", Quantity: 2, UnitWeight: 4},
		},
	})
	require.NoError(t, err)
	_, err = store.Add(types.Cargo{ID: 7, Sender: "Globex", Destination: "Shelbyville", Status: "Warehouse"})
	require.NoError(t, err)
	_, err = store.Add(types.Cargo{ID: 3, Sender: "Initech", Destination: "Capital City", Status: "Delivered",
		Items: []types.CargoItem{{Name: "Stapler", Quantity: 1, UnitWeight: 0.4}}})
	require.NoError(t, err)
	return store
}

func TestLoadMissingDatabaseIsEmpty(t *testing.T) {
	path := dbPath(t)
	r, err := newBackend().Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "load must not create the database")
}

func TestLoadCorruptDatabaseIsEmpty(t *testing.T) {
	path := dbPath(t)
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o644))

	r, err := newBackend().Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := sampleStore(t)
	path := dbPath(t)
	b := newBackend()
	require.NoError(t, b.Save(store, path))

	loaded, err := b.Load(path)
	require.NoError(t, err)

	want := slices.Collect(store.All())
	got := slices.Collect(loaded.All())
	assert.Equal(t, want, got)
	assert.InDelta(t, store.TotalWeight(), loaded.TotalWeight(), 1e-9)
}

func TestSaveReplacesPreviousContents(t *testing.T) {
	path := dbPath(t)
	b := newBackend()
	require.NoError(t, b.Save(sampleStore(t), path))

	smaller := registry.New()
	_, err := smaller.Add(types.Cargo{ID: 42, Destination: "Ogdenville", Status: "New"})
	require.NoError(t, err)
	require.NoError(t, b.Save(smaller, path))

	loaded, err := b.Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len())
	_, ok := loaded.FindByID(42)
	assert.True(t, ok)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	var items int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM cargo_items").Scan(&items))
	assert.Equal(t, 0, items)
}

func TestSavePersistsTrackingCounter(t *testing.T) {
	store := sampleStore(t)
	// Allocate a number that is never stored so the counter runs ahead of
	// the highest saved suffix.
	store.Allocator().Next()

	path := dbPath(t)
	b := newBackend()
	require.NoError(t, b.Save(store, path))

	loaded, err := b.Load(path)
	require.NoError(t, err)
	added, err := loaded.Add(types.Cargo{ID: 99, Destination: "D", Status: "New"})
	require.NoError(t, err)
	assert.Equal(t, "TRK1004", added.TrackingNumber)
}

func TestLoadSkipsDuplicateTrackingRows(t *testing.T) {
	path := dbPath(t)
	db, err := open(path)
	require.NoError(t, err)
	for i, id := range []int{1, 2, 3} {
		tracking := fmt.Sprintf("TRK%d", 1000+i)
		if id == 3 {
			tracking = "TRK1000"
		}
		_, err := db.Exec(`INSERT INTO cargo (cargo_id, position, tracking_number, sender,
			sender_address, destination, status, total_weight) VALUES (?, ?, ?, 'S', 'A', 'D', 'New', 0)`,
			id, i, tracking)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	loaded, err := newBackend().Load(path)
	require.NoError(t, err)
	var ids []int
	for c := range loaded.All() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []int{1, 2}, ids)
}

func TestSaveUnwritablePathReturnsIOError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", types.SQLiteName)
	err := newBackend().Save(registry.New(), path)
	assert.ErrorIs(t, err, types.ErrIO)
}

func TestGenerateUUIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := generateUUID()
		assert.Len(t, id, 36)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
