package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/tsiemens/psxtax/app"
	"github.com/tsiemens/psxtax/app/outfmt"
	"github.com/tsiemens/psxtax/config"
	"github.com/tsiemens/psxtax/date"
	decimal_opt "github.com/tsiemens/psxtax/decimal_value"
	"github.com/tsiemens/psxtax/log"
	"github.com/tsiemens/psxtax/report"
	"github.com/tsiemens/psxtax/store"
)

type runContext struct {
	session *app.Session
	out     outfmt.TableWriter
	ph      report.PrintHelper
}

func configPaths() []string {
	if ConfigPathOpt != "" {
		return []string{ConfigPathOpt}
	}
	paths := []string{"psxtax.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".psxtax", "config.toml"))
	}
	return paths
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPaths()...)
	if err != nil {
		return nil, err
	}
	if DataPathOpt != "" {
		cfg.Storage.Path = DataPathOpt
	}
	if BackendOpt != "" {
		cfg.Storage.Backend = BackendOpt
	}
	if CurrencyOpt != "" {
		cfg.DisplayCurrency = CurrencyOpt
	}
	if log.VerboseEnabled {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// withSession loads the saved session, runs fn, and saves the session again
// if save is set and fn succeeded.
func withSession(save bool, fn func(rc *runContext) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := log.NewLogger(cfg.Logging.Level)

	kv, err := store.Open(cfg.StoreConfig(), logger)
	if err != nil {
		return err
	}
	defer kv.Close()

	ctx := context.Background()
	session := app.NewSession(cfg, kv, logger)
	res, err := session.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading saved state: %w", err)
	}
	if res != nil && res.VersionMismatch {
		log.Fverbosef(os.Stderr, "Loaded state of version %d\n", res.Version)
	}

	var out outfmt.TableWriter = outfmt.NewSTDWriter(os.Stdout)
	if CSVOutDirOpt != "" {
		out, err = outfmt.NewCSVWriter(CSVOutDirOpt)
		if err != nil {
			return err
		}
	}

	rc := &runContext{
		session: session,
		out:     out,
		ph:      report.NewPrintHelper(cfg.DisplayCurrency, PrintAllDecimals),
	}
	if err := fn(rc); err != nil {
		return err
	}
	if save {
		return session.Save(ctx)
	}
	return nil
}

func parseDecimalArg(name, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s '%s'", name, s)
	}
	return d, nil
}

// parseDateOpt parses a YYYY-MM-DD flag value. Empty means today.
func parseDateOpt(s string) (date.Date, error) {
	if s == "" {
		return date.Today(), nil
	}
	d, err := date.Parse(date.DefaultFormat, s)
	if err != nil {
		return date.Date{}, fmt.Errorf("invalid date '%s': %w", s, err)
	}
	return d, nil
}

func parseFeeOpt(s string) (decimal_opt.DecimalOpt, error) {
	fee, err := decimal_opt.NewFromString(s)
	if err != nil {
		return decimal_opt.Null, fmt.Errorf("invalid fee '%s'", s)
	}
	return fee, nil
}

// tradeArgs holds the SYMBOL QUANTITY PRICE positional arguments shared by
// the trade and what-if commands, plus their --date and --fee flags.
type tradeArgs struct {
	Symbol   string
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Date     date.Date
	Fee      decimal_opt.DecimalOpt
}

type tradeFlags struct {
	date string
	fee  string
}

func (f *tradeFlags) parse(args []string) (*tradeArgs, error) {
	quantity, err := parseDecimalArg("quantity", args[1])
	if err != nil {
		return nil, err
	}
	price, err := parseDecimalArg("price", args[2])
	if err != nil {
		return nil, err
	}
	d, err := parseDateOpt(f.date)
	if err != nil {
		return nil, err
	}
	fee, err := parseFeeOpt(f.fee)
	if err != nil {
		return nil, err
	}
	return &tradeArgs{Symbol: args[0], Quantity: quantity, Price: price, Date: d, Fee: fee}, nil
}
