package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend  string `yaml:"backend"`
	DataDir  string `yaml:"data_dir,omitempty"`
	LogLevel string `yaml:"log_level,omitempty"`
}

func newInitCmd(a *app) *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and data directories",
		Long: "Create the configuration directory with a config.yaml and the data directory.\n" +
			"An existing config.yaml is left untouched.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if backend != "" {
				a.cfg.Backend = backend
			}
			return runInit(cmd, a)
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "", "storage backend to record: flatfile or sqlite")
	return cmd
}

func runInit(cmd *cobra.Command, a *app) error {
	if err := a.cfg.Validate(); err != nil {
		return userError(fmt.Errorf("backend %q: %w", a.cfg.Backend, err))
	}

	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return sysError(fmt.Errorf("create config directory: %w", err))
	}

	configPath := filepath.Join(a.configDir, configFileExt)
	written, err := writeConfigIfMissing(configPath, configFile{
		Backend:  a.cfg.Backend,
		DataDir:  a.cfg.DataDir,
		LogLevel: a.logLevel,
	})
	if err != nil {
		return sysError(fmt.Errorf("write config: %w", err))
	}

	if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
		return sysError(fmt.Errorf("create data directory: %w", err))
	}

	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return writeJSON(out, map[string]any{
			"config":    configPath,
			"created":   written,
			"data_file": a.cfg.DataPath(),
			"backend":   a.cfg.Backend,
		})
	}
	if written {
		fmt.Fprintf(out, "Wrote %s\n", configPath)
	} else {
		fmt.Fprintf(out, "Keeping existing %s\n", configPath)
	}
	fmt.Fprintf(out, "Cargo data: %s (%s)\n", a.cfg.DataPath(), a.cfg.Backend)
	return nil
}

// writeConfigIfMissing creates config.yaml from cfg if the file does not
// exist. It reports whether it wrote the file.
func writeConfigIfMissing(path string, cfg configFile) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
