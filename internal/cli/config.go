// Config loading for the cargohold CLI.
package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/cargohold/internal/logging"
	"github.com/mesh-intelligence/cargohold/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// Config keys in config.yaml.
	cfgKeyBackend  = "backend"
	cfgKeyDataDir  = "data_dir"
	cfgKeyLogLevel = "log_level"

	defaultBackend = types.BackendFlatFile
)

// Environment variables that override config.yaml values. data_dir is not
// bound here; its env override sits below config.yaml in internal/paths.
var configEnv = map[string]string{
	cfgKeyBackend:  "CARGOHOLD_BACKEND",
	cfgKeyLogLevel: "CARGOHOLD_LOG_LEVEL",
}

// dotEnvFile is loaded from the working directory before anything else.
var dotEnvFile = ".env"

// loadDotEnv exports the variables in .env that are not already set. A
// missing .env is not an error.
func loadDotEnv() error {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", dotEnvFile, err)
	}
	return nil
}

// loadConfig reads config.yaml from configDir using Viper. A missing
// config.yaml is not an error; defaults apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyLogLevel, logging.DefaultLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	for key, env := range configEnv {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}
