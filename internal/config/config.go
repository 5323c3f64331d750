// Package config reads and writes the aiopt TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/aiopt-dev/aiopt/internal/rates"
)

// Config holds all aiopt configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Budget     BudgetConfig     `toml:"budget"`
	Appearance AppearanceConfig `toml:"appearance"`
	Rates      RatesConfig      `toml:"rates"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	InputPath string `toml:"input_path,omitempty"`
	OutDir    string `toml:"out_dir,omitempty"`
}

// BudgetConfig holds the guard's monthly spend ceiling.
type BudgetConfig struct {
	MonthlyUSD *float64 `toml:"monthly_usd,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// RatesConfig points at an external rate table and carries user price
// overrides keyed "provider/model".
type RatesConfig struct {
	TablePath string                  `toml:"table_path,omitempty"`
	Overrides map[string]RateOverride `toml:"overrides,omitempty"`
}

// RateOverride holds per-model price overrides, USD per million tokens.
type RateOverride struct {
	InputPerMTok  *float64 `toml:"input_per_mtok,omitempty"`
	OutputPerMTok *float64 `toml:"output_per_mtok,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			InputPath: filepath.Join("aiopt-input", "usage.jsonl"),
			OutDir:    "aiopt-output",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "aiopt")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "aiopt")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// RateTable resolves the effective rate table: the configured file if set,
// otherwise the built-in defaults, with user overrides applied on a copy.
func RateTable(cfg Config) (*rates.Table, error) {
	var tbl *rates.Table
	if cfg.Rates.TablePath != "" {
		loaded, err := rates.LoadFile(cfg.Rates.TablePath)
		if err != nil {
			return nil, err
		}
		tbl = loaded
	} else {
		tbl = rates.DefaultTable.Copy()
	}

	for key, ov := range cfg.Rates.Overrides {
		provider, mdl, ok := splitRateKey(key)
		if !ok {
			return nil, fmt.Errorf("rates override %q: want provider/model", key)
		}
		base := tbl.Resolve(provider, mdl)
		r := rates.Rate{Input: base.InputPerM, Output: base.OutputPerM}
		if ov.InputPerMTok != nil {
			r.Input = *ov.InputPerMTok
		}
		if ov.OutputPerMTok != nil {
			r.Output = *ov.OutputPerMTok
		}
		tbl.Override(provider, mdl, r)
	}
	return tbl, nil
}

func splitRateKey(key string) (provider, mdl string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			if i == 0 || i == len(key)-1 {
				return "", "", false
			}
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}
