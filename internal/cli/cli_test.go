package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/cargohold/pkg/cargohold"
	"github.com/mesh-intelligence/cargohold/pkg/types"
)

var acmeArgs = []string{
	"add", "--id", "1", "--sender", "Acme Co", "--address", "123 Main St",
	"--destination", "Springfield", "--status", "In Transit", "--item", "Widget:10:1.55",
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	r := env.mustRun("version")
	assert.Equal(t, fmt.Sprintf("cargohold v%s\nmodule: %s\n", cargohold.Version, modulePath), r.Stdout)
}

func TestInit(t *testing.T) {
	env := newTestEnv(t)

	r := env.mustRun("init")
	assert.Contains(t, r.Stdout, "Wrote")
	assert.DirExists(t, env.DataDir)

	data, err := os.ReadFile(filepath.Join(env.ConfigDir, configFileExt))
	require.NoError(t, err)
	var cfg configFile
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, types.BackendFlatFile, cfg.Backend)
	assert.Equal(t, env.DataDir, cfg.DataDir)

	t.Run("second init keeps the file", func(t *testing.T) {
		r := env.mustRun("init", "--backend", types.BackendSQLite)
		assert.Contains(t, r.Stdout, "Keeping existing")

		again, err := os.ReadFile(filepath.Join(env.ConfigDir, configFileExt))
		require.NoError(t, err)
		assert.Equal(t, data, again)
	})

	t.Run("unknown backend is a user error", func(t *testing.T) {
		r := newTestEnv(t).run("", "init", "--backend", "csv")
		assert.Equal(t, exitUserError, r.Code)
		assert.Contains(t, r.Stderr, "unknown backend")
	})
}

func TestAddListFindTrack(t *testing.T) {
	env := newTestEnv(t)

	r := env.mustRun(acmeArgs...)
	assert.Equal(t, "Cargo added successfully!\nTracking Number: TRK1000\nTotal Weight: 15.50 kg\n", r.Stdout)

	data, err := os.ReadFile(filepath.Join(env.DataDir, types.FlatFileName))
	require.NoError(t, err)
	assert.Equal(t, "1|TRK1000|Acme Co|123 Main St|Springfield|In Transit|15.50|1|Widget|10|1.55|\n", string(data))

	env.mustRun("add", "--id", "2", "--sender", "Globex", "--destination", "springfield East",
		"--status", "Warehouse", "--item", "Bolt:100:0.05", "--item", "Nut:50:0.02")

	t.Run("list", func(t *testing.T) {
		r := env.mustRun("list")
		assert.Contains(t, r.Stdout, "TRK1000")
		assert.Contains(t, r.Stdout, "TRK1001")
		assert.Contains(t, r.Stdout, "Total records: 2")

		records := parseJSON[[]types.Cargo](t, env.mustRun("--json", "list").Stdout)
		require.Len(t, records, 2)
		assert.Equal(t, 1, records[0].ID)
		assert.Len(t, records[1].Items, 2)
	})

	t.Run("find destination is exact ignoring case", func(t *testing.T) {
		records := parseJSON[[]types.Cargo](t, env.mustRun("--json", "find", "destination", "SPRINGFIELD").Stdout)
		require.Len(t, records, 1)
		assert.Equal(t, "TRK1000", records[0].TrackingNumber)

		r := env.mustRun("find", "destination", "Spring")
		assert.Equal(t, "No cargo found for destination: Spring\n", r.Stdout)
	})

	t.Run("find status", func(t *testing.T) {
		records := parseJSON[[]types.Cargo](t, env.mustRun("--json", "find", "status", "warehouse").Stdout)
		require.Len(t, records, 1)
		assert.Equal(t, 2, records[0].ID)
	})

	t.Run("track by id and number", func(t *testing.T) {
		r := env.mustRun("track", "--id", "1")
		assert.Contains(t, r.Stdout, "Tracking Number: TRK1000")
		assert.Contains(t, r.Stdout, "  10 x Widget (1.55 kg each)")

		c := parseJSON[types.Cargo](t, env.mustRun("--json", "track", "--number", "TRK1001").Stdout)
		assert.Equal(t, 2, c.ID)
		assert.InDelta(t, 6.0, c.TotalWeight, 1e-9)
	})

	t.Run("track unknown is a user error", func(t *testing.T) {
		r := env.run("", "track", "--number", "TRK9999")
		assert.Equal(t, exitUserError, r.Code)
		assert.Contains(t, r.Stderr, "cargo not found")
	})

	t.Run("track needs exactly one selector", func(t *testing.T) {
		assert.Equal(t, exitUserError, env.run("", "track").Code)
		assert.Equal(t, exitUserError, env.run("", "track", "--id", "1", "--number", "TRK1000").Code)
	})

	t.Run("weight", func(t *testing.T) {
		r := env.mustRun("weight")
		assert.Equal(t, "Total weight of all cargo: 21.50 kg\n", r.Stdout)

		w := parseJSON[map[string]float64](t, env.mustRun("--json", "weight").Stdout)
		assert.InDelta(t, 21.5, w["total_weight"], 1e-9)
		assert.Equal(t, 2.0, w["records"])
	})
}

func TestAddRejections(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(acmeArgs...)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "duplicate id", args: acmeArgs, wantErr: "duplicate cargo id"},
		{name: "zero weight", args: []string{"add", "--id", "5", "--item", "Feather:1:0"}, wantErr: "unit weight must be positive"},
		{name: "infinite weight", args: []string{"add", "--id", "9", "--item", "Star:1:Inf"}, wantErr: "unit weight must be positive"},
		{name: "NaN weight", args: []string{"add", "--id", "10", "--item", "Void:1:NaN"}, wantErr: "unit weight must be positive"},
		{name: "negative quantity", args: []string{"add", "--id", "6", "--item", "Hole:-1:2"}, wantErr: "quantity must not be negative"},
		{name: "malformed item", args: []string{"add", "--id", "7", "--item", "Widget"}, wantErr: "name:quantity:unit_weight"},
		{name: "non-numeric quantity", args: []string{"add", "--id", "8", "--item", "Widget:ten:1"}, wantErr: "invalid numeric field"},
		{name: "missing id", args: []string{"add", "--sender", "Nobody"}, wantErr: "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := env.run("", tt.args...)
			assert.Equal(t, exitUserError, r.Code)
			assert.Contains(t, r.Stderr, tt.wantErr)
		})
	}

	records := parseJSON[[]types.Cargo](t, env.mustRun("--json", "list").Stdout)
	assert.Len(t, records, 1)
}

func TestAddCapacity(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(env.DataDir, 0o755))

	var lines []byte
	for id := 1; id <= types.MaxCargo; id++ {
		lines = fmt.Appendf(lines, "%d|TRK%d|S|A|D|Warehouse|0.00|0|\n", id, 1000+id)
	}
	require.NoError(t, os.WriteFile(filepath.Join(env.DataDir, types.FlatFileName), lines, 0o644))

	r := env.run("", "add", "--id", "101")
	assert.Equal(t, exitUserError, r.Code)
	assert.Contains(t, r.Stderr, "capacity exceeded")
}

func TestStatusUpdate(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(acmeArgs...)

	r := env.mustRun("status", "1", "Delivered")
	assert.Equal(t, "Cargo 1 (TRK1000) status: Delivered\n", r.Stdout)

	c := parseJSON[types.Cargo](t, env.mustRun("--json", "track", "--id", "1").Stdout)
	assert.Equal(t, "Delivered", c.Status)

	assert.Equal(t, exitUserError, env.run("", "status", "42", "Lost").Code)
	assert.Equal(t, exitUserError, env.run("", "status", "one", "Lost").Code)
}

func TestSQLiteBackendFromConfig(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init", "--backend", types.BackendSQLite)
	env.mustRun(acmeArgs...)

	assert.FileExists(t, filepath.Join(env.DataDir, types.SQLiteName))
	assert.NoFileExists(t, filepath.Join(env.DataDir, types.FlatFileName))

	c := parseJSON[types.Cargo](t, env.mustRun("--json", "track", "--number", "TRK1000").Stdout)
	assert.Equal(t, "Springfield", c.Destination)
}

func TestBackendEnvOverridesConfig(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init")
	t.Setenv("CARGOHOLD_BACKEND", types.BackendSQLite)

	env.mustRun(acmeArgs...)
	assert.FileExists(t, filepath.Join(env.DataDir, types.SQLiteName))
}

func TestUnknownBackendInConfigIsSystemError(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(env.ConfigDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.ConfigDir, configFileExt), []byte("backend: csv\n"), 0o644))

	r := env.run("", "list")
	assert.Equal(t, exitSysError, r.Code)
	assert.Contains(t, r.Stderr, "unknown backend")
}

func TestSaveFailureIsSystemError(t *testing.T) {
	env := newTestEnv(t)
	// A regular file where the data directory should be.
	require.NoError(t, os.WriteFile(env.DataDir, []byte("x"), 0o644))

	r := env.run("", acmeArgs...)
	assert.Equal(t, exitSysError, r.Code)
	assert.Contains(t, r.Stderr, "i/o error")
}

func TestBadLogLevel(t *testing.T) {
	r := newTestEnv(t).run("", "--log-level", "loud", "list")
	assert.Equal(t, exitUserError, r.Code)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "user error", err: userError(errors.New("bad")), want: exitUserError},
		{name: "system error", err: sysError(errors.New("disk")), want: exitSysError},
		{name: "wrapped io", err: fmt.Errorf("save: %w", types.ErrIO), want: exitSysError},
		{name: "unknown backend", err: types.ErrBackendUnknown, want: exitSysError},
		{name: "plain error", err: errors.New("unknown flag"), want: exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestParseItem(t *testing.T) {
	tests := []struct {
		arg     string
		want    types.CargoItem
		wantErr error
	}{
		{arg: "Widget:10:1.55", want: types.CargoItem{Name: "Widget", Quantity: 10, UnitWeight: 1.55}},
		{arg: "Part: A:2:0.5", want: types.CargoItem{Name: "Part: A", Quantity: 2, UnitWeight: 0.5}},
		{arg: "Box:1: 3", want: types.CargoItem{Name: "Box", Quantity: 1, UnitWeight: 3}},
		{arg: "Box:x:3", wantErr: types.ErrInvalidNumericField},
		{arg: "Box:1:heavy", wantErr: types.ErrInvalidNumericField},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseItem(tt.arg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseItem("Widget:10")
	assert.Error(t, err)
}
