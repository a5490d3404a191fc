package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsiemens/psxtax/date"
)

func TestDefaults(t *testing.T) {
	rq := require.New(t)
	cfg, err := LoadConfig()
	rq.NoError(err)

	rq.Equal(0.5, cfg.DefaultFeePercent)
	rq.Equal(2, cfg.SettlementDays)
	rq.False(cfg.Filer)
	rq.Equal("PKR", cfg.DisplayCurrency)
	rq.Equal("file", cfg.Storage.Backend)

	cutoff, err := cfg.TaxCutoff()
	rq.NoError(err)
	rq.Equal(date.New(2024, 7, 1), cutoff)

	opts := cfg.LedgerOptions()
	rq.Equal("0.5", opts.DefaultFeePercent.String())
	rq.Equal(2, opts.SettlementDays)

	p := cfg.TaxPolicy()
	rq.Equal(date.New(2024, 7, 1), p.CutoffDate)
	rq.Equal("150000000", p.SuperTaxThreshold.String())
}

func TestLoadConfigFiles(t *testing.T) {
	rq := require.New(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "a.toml")
	second := filepath.Join(dir, "b.toml")

	rq.NoError(os.WriteFile(first, []byte(`
default_fee_percent = 0.15
filer = true
display_currency = "USD"

[tax]
cutoff = "2025-07-01"

[storage]
backend = "bolt"
path = "/tmp/first"
`), 0644))
	rq.NoError(os.WriteFile(second, []byte(`
[storage]
path = "/tmp/second"

[logging]
level = "debug"
`), 0644))

	cfg, err := LoadConfig(first, filepath.Join(dir, "missing.toml"), "", second)
	rq.NoError(err)
	rq.Equal(0.15, cfg.DefaultFeePercent)
	rq.True(cfg.Filer)
	rq.Equal("USD", cfg.DisplayCurrency)
	rq.Equal("bolt", cfg.Storage.Backend)
	rq.Equal("/tmp/second", cfg.Storage.Path)
	rq.Equal("debug", cfg.Logging.Level)
	rq.Equal(int64(150_000_000), cfg.Tax.SuperTaxThreshold)
	rq.Equal(date.New(2025, 7, 1), cfg.TaxPolicy().CutoffDate)

	sc := cfg.StoreConfig()
	rq.Equal("bolt", sc.Backend)
	rq.Equal("/tmp/second", sc.Path)
}

func TestLoadConfigErrors(t *testing.T) {
	rq := require.New(t)
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.toml")
	rq.NoError(os.WriteFile(bad, []byte("filer = \n"), 0644))
	_, err := LoadConfig(bad)
	rq.ErrorContains(err, "failed to parse")

	cutoff := filepath.Join(dir, "cutoff.toml")
	rq.NoError(os.WriteFile(cutoff, []byte("[tax]\ncutoff = \"July 2024\"\n"), 0644))
	_, err = LoadConfig(cutoff)
	rq.ErrorContains(err, "invalid tax cutoff")

	neg := filepath.Join(dir, "neg.toml")
	rq.NoError(os.WriteFile(neg, []byte("settlement_days = -1\n"), 0644))
	_, err = LoadConfig(neg)
	rq.ErrorContains(err, "settlement_days")
}

func TestEnvOverrides(t *testing.T) {
	rq := require.New(t)
	t.Setenv("PSXTAX_FEE_PERCENT", "0.25")
	t.Setenv("PSXTAX_SETTLEMENT_DAYS", "1")
	t.Setenv("PSXTAX_FILER", "true")
	t.Setenv("PSXTAX_TAX_CUTOFF", "2023-07-01")
	t.Setenv("PSXTAX_DISPLAY_CURRENCY", "usd")
	t.Setenv("PSXTAX_STORAGE_BACKEND", "memory")
	t.Setenv("PSXTAX_DATA_PATH", "/tmp/env")
	t.Setenv("PSXTAX_LOG_LEVEL", "error")

	cfg, err := LoadConfig()
	rq.NoError(err)
	rq.Equal(0.25, cfg.DefaultFeePercent)
	rq.Equal(1, cfg.SettlementDays)
	rq.True(cfg.Filer)
	rq.Equal("2023-07-01", cfg.Tax.Cutoff)
	rq.Equal("USD", cfg.DisplayCurrency)
	rq.Equal("memory", cfg.Storage.Backend)
	rq.Equal("/tmp/env", cfg.Storage.Path)
	rq.Equal("error", cfg.Logging.Level)
}
