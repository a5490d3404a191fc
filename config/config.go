// Package config loads psxtax settings from TOML files, with PSXTAX_*
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"github.com/tsiemens/psxtax/date"
	decimal_opt "github.com/tsiemens/psxtax/decimal_value"
	"github.com/tsiemens/psxtax/ledger"
	"github.com/tsiemens/psxtax/store"
	"github.com/tsiemens/psxtax/tax"
)

type Config struct {
	DefaultFeePercent float64       `toml:"default_fee_percent"`
	SettlementDays    int           `toml:"settlement_days"`
	Filer             bool          `toml:"filer"`
	Tax               TaxConfig     `toml:"tax"`
	DisplayCurrency   string        `toml:"display_currency"`
	Storage           StorageConfig `toml:"storage"`
	Logging           LoggingConfig `toml:"logging"`
}

type TaxConfig struct {
	// YYYY-MM-DD
	Cutoff            string `toml:"cutoff"`
	SuperTaxThreshold int64  `toml:"super_tax_threshold"`
}

type StorageConfig struct {
	Backend string `toml:"backend"` // file, bolt or memory
	Path    string `toml:"path"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

func defaultDataPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".psxtax")
	}
	return ".psxtax"
}

func NewDefaultConfig() *Config {
	return &Config{
		DefaultFeePercent: ledger.DefaultFeePercent.InexactFloat64(),
		SettlementDays:    ledger.DefaultSettlementDays,
		Tax: TaxConfig{
			Cutoff:            "2024-07-01",
			SuperTaxThreshold: 150_000_000,
		},
		DisplayCurrency: "PKR",
		Storage: StorageConfig{
			Backend: store.BackendFile,
			Path:    defaultDataPath(),
		},
		Logging: LoggingConfig{Level: "warn"},
	}
}

// LoadConfig loads defaults, then each existing file in order, then the
// environment. Missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv("PSXTAX_FEE_PERCENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.DefaultFeePercent = f
		}
	}
	if v := os.Getenv("PSXTAX_SETTLEMENT_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.SettlementDays = n
		}
	}
	if v := os.Getenv("PSXTAX_FILER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Filer = b
		}
	}
	if v := os.Getenv("PSXTAX_TAX_CUTOFF"); v != "" {
		config.Tax.Cutoff = v
	}
	if v := os.Getenv("PSXTAX_DISPLAY_CURRENCY"); v != "" {
		config.DisplayCurrency = strings.ToUpper(v)
	}
	if v := os.Getenv("PSXTAX_STORAGE_BACKEND"); v != "" {
		config.Storage.Backend = v
	}
	if v := os.Getenv("PSXTAX_DATA_PATH"); v != "" {
		config.Storage.Path = v
	}
	if v := os.Getenv("PSXTAX_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

func (c *Config) Validate() error {
	if fee := decimal_opt.NewFromFloat(c.DefaultFeePercent); fee.IsNull || fee.IsNegative() {
		return fmt.Errorf("default_fee_percent must be a non-negative number (got %v)", c.DefaultFeePercent)
	}
	if c.SettlementDays < 0 {
		return fmt.Errorf("settlement_days must not be negative (got %d)", c.SettlementDays)
	}
	if _, err := c.TaxCutoff(); err != nil {
		return err
	}
	if c.DisplayCurrency == "" {
		c.DisplayCurrency = "PKR"
	}
	return nil
}

func (c *Config) TaxCutoff() (date.Date, error) {
	d, err := date.Parse(time.DateOnly, c.Tax.Cutoff)
	if err != nil {
		return date.Date{}, fmt.Errorf("invalid tax cutoff '%s': %w", c.Tax.Cutoff, err)
	}
	return d, nil
}

func (c *Config) LedgerOptions() ledger.Options {
	opts := ledger.DefaultOptions()
	opts.DefaultFeePercent = decimal_opt.NewFromFloat(c.DefaultFeePercent).Or(ledger.DefaultFeePercent)
	opts.SettlementDays = c.SettlementDays
	return opts
}

// TaxPolicy is the default policy with the configured cutoff and super tax
// threshold.
func (c *Config) TaxPolicy() tax.Policy {
	p := tax.DefaultPolicy()
	if cutoff, err := c.TaxCutoff(); err == nil {
		p.CutoffDate = cutoff
	}
	if c.Tax.SuperTaxThreshold > 0 {
		p.SuperTaxThreshold = decimal.NewFromInt(c.Tax.SuperTaxThreshold)
	}
	return p
}

func (c *Config) StoreConfig() store.Config {
	return store.Config{Backend: c.Storage.Backend, Path: c.Storage.Path}
}
