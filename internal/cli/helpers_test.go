package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/cargohold/internal/paths"
)

// testEnv is an isolated config and data directory pair.
type testEnv struct {
	t         *testing.T
	ConfigDir string
	DataDir   string
}

// result holds the outcome of one CLI invocation.
type result struct {
	Stdout string
	Stderr string
	Code   int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	t.Setenv(paths.EnvConfigDir, "")
	t.Setenv(paths.EnvDataDir, "")
	t.Setenv("CARGOHOLD_BACKEND", "")
	t.Setenv("CARGOHOLD_LOG_LEVEL", "")
	return &testEnv{
		t:         t,
		ConfigDir: filepath.Join(root, "config"),
		DataDir:   filepath.Join(root, "data"),
	}
}

// run executes the CLI with the env's directories and stdin.
func (e *testEnv) run(stdin string, args ...string) result {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(append([]string{"--config-dir", e.ConfigDir, "--data-dir", e.DataDir}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	code := run(root, &stderr)
	return result{Stdout: stdout.String(), Stderr: stderr.String(), Code: code}
}

// mustRun executes the CLI and fails the test on a non-zero exit code.
func (e *testEnv) mustRun(args ...string) result {
	e.t.Helper()
	r := e.run("", args...)
	require.Equal(e.t, exitSuccess, r.Code, "cargohold %v\nstdout: %s\nstderr: %s", args, r.Stdout, r.Stderr)
	return r
}

// parseJSON decodes a command's JSON output.
func parseJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), "output: %s", s)
	return v
}
