// Package config handles the configuration directory, the config file and
// environment overrides.
package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	// AppName is the application directory name.
	AppName = "taskman"

	// ConfigFile is the optional YAML configuration filename.
	ConfigFile = "config.yaml"

	// EnvFile is the optional dotenv filename read from the config directory.
	EnvFile = ".env"

	// SessionFile is the stored session cookie filename.
	SessionFile = "session.json"

	// DefaultOrigin is the backend base address used when none is configured.
	DefaultOrigin = "http://localhost:80/api/v1/"

	// DefaultLoginPath is the login entry point the client navigates to on 401.
	DefaultLoginPath = "/login"

	// DefaultTimeout bounds every backend request.
	DefaultTimeout = 10 * time.Second
)

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `koanf:"-"`

	// Origin is the backend base address all request paths are joined to.
	Origin string `koanf:"origin"`

	// LoginPath is where the client navigates after an authentication failure.
	LoginPath string `koanf:"login_path"`

	// Timeout bounds each backend request.
	Timeout time.Duration `koanf:"timeout"`

	Log LogConfig `koanf:"log"`

	// Debug enables debug logging.
	Debug bool `koanf:"-"`

	// Quiet suppresses informational output.
	Quiet bool `koanf:"-"`
}

// New creates a Config rooted at configDir with defaults applied, without
// reading any file or environment.
// If configDir is empty, uses XDG_CONFIG_HOME/taskman or $HOME/.config/taskman.
func New(configDir string) *Config {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}
	applyDefaults(cfg)
	return cfg
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// FilePath returns the path to the YAML configuration file.
func (c *Config) FilePath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// EnvPath returns the path to the dotenv file.
func (c *Config) EnvPath() string {
	return filepath.Join(c.Dir, EnvFile)
}

// SessionPath returns the path to the stored session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// RemoveSession deletes the session file. A missing file is not an error.
func (c *Config) RemoveSession() error {
	err := os.Remove(c.SessionPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func applyDefaults(c *Config) {
	if c.Origin == "" {
		c.Origin = DefaultOrigin
	}
	if c.LoginPath == "" {
		c.LoginPath = DefaultLoginPath
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}
