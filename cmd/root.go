package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tsiemens/psxtax/app"
	"github.com/tsiemens/psxtax/log"
)

var (
	ConfigPathOpt    string
	DataPathOpt      string
	BackendOpt       string
	CurrencyOpt      string
	CSVOutDirOpt     string
	PrintAllDecimals bool
)

// Where command errors and warnings are printed.
var ErrPrinter log.ErrorPrinter = &log.StderrErrorPrinter{}

func cmdName() string {
	binName := os.Args[0]
	return filepath.Base(binName)
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   cmdName(),
	Short: "FIFO capital gains tax tool for PSX equities",
	Long: `A cli tool which tracks equity purchases and sales as FIFO lots, and
computes capital gains tax on each sale.

Cost basis includes brokerage fees. Trades settle T+2 business days after the
trade date, and holding periods are measured between settlement dates.

Lots acquired before the tax cutoff are taxed on a declining scale by holding
period for filers. Lots acquired on or after the cutoff, and all lots of
non-filers, are taxed at a flat rate.

State is saved between runs. See 'export' and 'import' to move it around.
`,
	Version:       app.PsxTaxVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if code := run(); code != 0 {
		os.Exit(code)
	}
}

func run() int {
	if err := RootCmd.Execute(); err != nil {
		ErrPrinter.Ln("Error:", err)
		return 1
	}
	return 0
}

func init() {
	cobra.OnInitialize(onInit)

	pf := RootCmd.PersistentFlags()
	pf.BoolVarP(&log.VerboseEnabled, "verbose", "v", false, "Print verbose output")
	pf.StringVarP(&ConfigPathOpt, "config", "c", "",
		"TOML config file. Defaults to ./psxtax.toml, then ~/.psxtax/config.toml")
	pf.StringVar(&DataPathOpt, "data", "", "Directory (or bolt file) where state is saved")
	pf.StringVar(&BackendOpt, "backend", "", "Storage backend: file, bolt or memory")
	pf.StringVar(&CurrencyOpt, "currency", "", "Currency code amounts are displayed in")
	pf.StringVar(&CSVOutDirOpt, "csv-dir", "",
		"Write tables as CSV files into this directory instead of printing them")
	pf.BoolVar(&PrintAllDecimals, "all-decimals", false, "Print amounts without rounding")
}

// onInit performs global or common actions before running command functions.
func onInit() {
	log.LoadTraceSetting()
}
