package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "TASKMAN_"

	maxConfigFileSize = 1024 * 1024
)

// Load builds a Config for configDir.
//
// Precedence (highest to lowest):
//  1. Environment variables (TASKMAN_ORIGIN, TASKMAN_LOG_LEVEL, ...)
//  2. <dir>/.env, which only fills variables not already set
//  3. <dir>/config.yaml
//  4. Defaults
//
// Missing files are skipped.
func Load(configDir string) (*Config, error) {
	cfg := New(configDir)
	k := koanf.New(".")

	if f, err := os.Open(cfg.FilePath()); err == nil {
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes", info.Size())
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", cfg.FilePath(), err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	if _, err := os.Stat(cfg.EnvPath()); err == nil {
		if err := godotenv.Load(cfg.EnvPath()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", cfg.EnvPath(), err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps an environment variable to a config key:
//
//	TASKMAN_ORIGIN     -> origin
//	TASKMAN_LOGIN_PATH -> login_path
//	TASKMAN_LOG_LEVEL  -> log.level
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "log_"); ok {
		return "log." + rest
	}
	return key
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Origin, "http://") && !strings.HasPrefix(c.Origin, "https://") {
		return fmt.Errorf("invalid origin: %q (must start with http:// or https://)", c.Origin)
	}
	if !strings.HasPrefix(c.LoginPath, "/") {
		return fmt.Errorf("invalid login path: %q", c.LoginPath)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %q", c.Log.Format)
	}
	return nil
}
