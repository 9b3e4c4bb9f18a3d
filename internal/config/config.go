// Package config loads spendline settings from TOML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/spendline/spendline/internal/model"
)

// Environment overrides.
const (
	EnvAPIURL   = "SPENDLINE_API_URL"
	EnvLogLevel = "SPENDLINE_LOG_LEVEL"
)

// Config holds all spendline configuration.
type Config struct {
	API        APIConfig        `toml:"api"`
	Session    SessionConfig    `toml:"session"`
	Profile    ProfileConfig    `toml:"profile"`
	List       ListConfig       `toml:"list"`
	Appearance AppearanceConfig `toml:"appearance"`
	Log        LogConfig        `toml:"log"`
}

// APIConfig locates the backend.
type APIConfig struct {
	BaseURL    string `toml:"base_url"`
	TimeoutSec int    `toml:"timeout_sec"`
	ExportPath string `toml:"export_path,omitempty"` // empty uses the gateway default
}

// SessionConfig controls where the token is persisted.
type SessionConfig struct {
	StatePath string `toml:"state_path,omitempty"`
}

// ProfileConfig holds client-side validation limits.
type ProfileConfig struct {
	MaxMonthlyBudget float64 `toml:"max_monthly_budget"`
}

// ListConfig holds the default expense list ordering.
type ListConfig struct {
	SortBy    string `toml:"sort_by"`
	SortOrder string `toml:"sort_order"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:    "http://localhost:8000",
			TimeoutSec: 10,
		},
		Profile: ProfileConfig{
			MaxMonthlyBudget: 5000,
		},
		List: ListConfig{
			SortBy:    "date",
			SortOrder: "desc",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "spendline")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "spendline")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist, then
// applies environment overrides.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom is Load for an explicit path.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config file
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadEnv loads KEY=VALUE pairs from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo is Save for an explicit path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	if c.API.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.API.TimeoutSec) * time.Second
}

// ProfileRules returns the client-side validation policy. A non-positive
// ceiling disables the budget cap.
func (c Config) ProfileRules() model.ProfileRules {
	rules := model.DefaultProfileRules()
	rules.MaxMonthlyBudget = decimal.NewFromFloat(c.Profile.MaxMonthlyBudget)
	return rules
}
