package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cperrin88/beatsync/internal/logger"
	"github.com/cperrin88/beatsync/pkg/config"
	"github.com/cperrin88/beatsync/pkg/errors"
	"github.com/cperrin88/beatsync/pkg/fsutil"
)

// EnvPrefix prefixes the environment variables that override settings, e.g.
// BEATSYNC_SONGS_DIR.
const EnvPrefix = "BEATSYNC"

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
	NoColor    *bool
)

var overrides = viper.New()

// BindFlags wires the root command's persistent flags and the BEATSYNC_*
// environment into the settings overrides. Flags win over the environment,
// the environment wins over the config file.
func BindFlags(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range append(config.Keys(), "config") {
		if err := v.BindEnv(key); err != nil {
			return err
		}
	}
	if flag := cmd.PersistentFlags().Lookup("log-level"); flag != nil {
		if err := v.BindPFlag("log_level", flag); err != nil {
			return err
		}
	}
	overrides = v
	return nil
}

// applyOverrides copies flag and environment values into cfg.
func applyOverrides(cfg *config.Config) error {
	for _, key := range config.Keys() {
		if !overrides.IsSet(key) {
			continue
		}
		if err := cfg.SetValue(key, overrides.GetString(key)); err != nil {
			return fmt.Errorf("%s_%s: %w", EnvPrefix, key, err)
		}
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	if NoColor != nil && *NoColor {
		cfg.Settings.ColorOutput = false
	}
	return nil
}

// loadConfig loads the config file, applies overrides and configures
// logging and colors from the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	InitOutput(cfg.Settings.LogLevel, !cfg.Settings.ColorOutput)
	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}
	if path := overrides.GetString("config"); path != "" {
		return path
	}

	defaultPath, err := fsutil.GetDefaultConfigPath()
	if err != nil {
		// An empty path makes LoadConfig fail with a descriptive error.
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}
