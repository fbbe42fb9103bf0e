// Package cli implements the cargohold command-line interface: one cobra
// command per registry operation plus an interactive menu shell.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cargohold/internal/logging"
	"github.com/mesh-intelligence/cargohold/internal/paths"
	"github.com/mesh-intelligence/cargohold/pkg/cargohold"
	"github.com/mesh-intelligence/cargohold/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	logLevel  string
	jsonMode  bool
}

// app is the state shared by the commands of one invocation. It is filled
// in by the root command's PersistentPreRunE.
type app struct {
	flags     rootFlags
	configDir string
	logLevel  string
	cfg       types.Config
	logger    zerolog.Logger
}

// exitError carries the process exit code chosen for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// NewRootCmd creates the top-level "cargohold" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "cargohold",
		Short: "Record, search, and track cargo shipments",
		Long: "Cargohold keeps a bounded registry of cargo shipments in a local data file.\n" +
			"Each shipment gets a tracking number and can be searched by destination,\n" +
			"status, id, or tracking number.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: working directory)")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error, disabled")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newAddCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newWeightCmd(a))
	root.AddCommand(newFindCmd(a))
	root.AddCommand(newTrackCmd(a))
	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newShellCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Stderr))
}

// run executes root and maps its error to an exit code, reporting the
// error on stderr.
func run(root *cobra.Command, stderr io.Writer) int {
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "Error:", err)
	return exitCode(err)
}

// exitCode classifies err. Storage and configuration failures are system
// errors; everything else is a user error.
func exitCode(err error) int {
	var ee *exitError
	switch {
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, types.ErrIO),
		errors.Is(err, types.ErrBackendEmpty),
		errors.Is(err, types.ErrBackendUnknown):
		return exitSysError
	default:
		return exitUserError
	}
}

// setup loads .env and config.yaml, builds the logger, and resolves the
// backend configuration for the command about to run.
func (a *app) setup(cmd *cobra.Command) error {
	if err := loadDotEnv(); err != nil {
		return sysError(err)
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}

	level := a.flags.logLevel
	if level == "" {
		level = v.GetString(cfgKeyLogLevel)
	}
	logger, err := logging.New(level, cmd.ErrOrStderr())
	if err != nil {
		return userError(err)
	}

	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return sysError(fmt.Errorf("resolve data dir: %w", err))
	}

	a.configDir = configDir
	a.logLevel = level
	a.logger = logger
	a.cfg = types.Config{
		Backend: v.GetString(cfgKeyBackend),
		DataDir: dataDir,
	}
	a.logger.Debug().Str("config_dir", configDir).Str("data_dir", dataDir).
		Str("backend", a.cfg.Backend).Msg("configuration resolved")
	return nil
}

// open loads the registry from the configured backend.
func (a *app) open() (*cargohold.Hold, error) {
	hold, err := cargohold.Open(a.cfg, a.logger)
	if err != nil {
		return nil, sysError(err)
	}
	return hold, nil
}

// save writes the registry back, reporting failures as system errors.
func (a *app) save(hold *cargohold.Hold) error {
	if err := hold.Save(); err != nil {
		return sysError(err)
	}
	return nil
}
