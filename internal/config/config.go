// Package config resolves server settings from flags, LOCKER_* environment
// variables, an optional config file and a .env file.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "LOCKER"

// Config holds the resolved server settings.
type Config struct {
	Addr    string
	DataDir string

	LogLevel string
	LogDev   bool
	LogFile  string

	JournalRetention time.Duration
	PruneSchedule    string

	AdminAddress  string
	AdminPassword string
}

// DatabasePath is the journal database inside the data directory.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "locker-pass-manager.db")
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("addr must not be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("data directory must not be empty")
	}
	if c.JournalRetention < 0 {
		return fmt.Errorf("journal retention must not be negative, got %s", c.JournalRetention)
	}
	if (c.AdminAddress == "") != (c.AdminPassword == "") {
		return errors.New("admin address and admin password must be set together")
	}
	return nil
}

// RegisterFlags adds the server flags with their defaults to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "path to a YAML config file")
	flags.String("addr", ":8099", "HTTP listen address")
	flags.String("data", "/data", "data directory for the event journal")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("log-dev", false, "human readable development logging")
	flags.String("log-file", "", "also write logs to this rotating file")
	flags.Duration("journal-retention", 720*time.Hour, "how long journal events are kept (0 keeps forever)")
	flags.String("prune-schedule", "@every 1h", "cron schedule for journal pruning")
	flags.String("admin-address", "", "bootstrap admin account address")
	flags.String("admin-password", "", "bootstrap admin account password")
}

// Load resolves the configuration. Flags set on the command line win over
// the environment, which wins over the config file and flag defaults.
func Load(flags *pflag.FlagSet) (Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return Config{}, fmt.Errorf("binding flags: %w", err)
	}

	if path := strings.TrimSpace(v.GetString("config")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := Config{
		Addr:             v.GetString("addr"),
		DataDir:          v.GetString("data"),
		LogLevel:         v.GetString("log-level"),
		LogDev:           v.GetBool("log-dev"),
		LogFile:          v.GetString("log-file"),
		JournalRetention: v.GetDuration("journal-retention"),
		PruneSchedule:    v.GetString("prune-schedule"),
		AdminAddress:     strings.TrimSpace(v.GetString("admin-address")),
		AdminPassword:    v.GetString("admin-password"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
