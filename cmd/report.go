package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsiemens/psxtax/app/outfmt"
	"github.com/tsiemens/psxtax/ledger"
	"github.com/tsiemens/psxtax/report"
)

var holdingsCmd = &cobra.Command{
	Use:   "holdings [SYMBOL]",
	Short: "Show current holdings, or the lots of one symbol",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(false, func(rc *runContext) error {
			if len(args) == 1 {
				symbol := ledger.NormalizeSymbol(args[0])
				lots := rc.session.Ledger.Lots(symbol)
				if len(lots) == 0 {
					return fmt.Errorf("%w: no holdings of %s", ledger.ErrInsufficientHoldings, symbol)
				}
				return rc.out.PrintRenderTable(outfmt.Lots, symbol, report.RenderLotsTable(lots, rc.ph))
			}
			return rc.out.PrintRenderTable(outfmt.Holdings, "",
				report.RenderHoldingsTable(rc.session.Ledger.Holdings(), rc.ph))
		})
	},
}

var showTransactions bool

var gainsCmd = &cobra.Command{
	Use:   "gains",
	Short: "Show realized capital gains",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(false, func(rc *runContext) error {
			if showTransactions {
				err := rc.out.PrintRenderTable(outfmt.Transactions, "",
					report.RenderTransactionsTable(rc.session.Ledger.Transactions(), rc.ph))
				if err != nil {
					return err
				}
			}
			sales := rc.session.Ledger.RealizedGains()
			gains := ledger.CalcCumulativeCapitalGains(sales)
			return rc.out.PrintRenderTable(outfmt.RealizedGains, "",
				report.RenderRealizedGainsTable(sales, gains, rc.ph))
		})
	},
}

var showTaxDetail bool

var taxCmd = &cobra.Command{
	Use:   "tax",
	Short: "Show capital gains tax on all realized sales",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(false, func(rc *runContext) error {
			agg := rc.session.Calc.CalculateAggregateTax(rc.session.Ledger.RealizedGains())
			if showTaxDetail {
				for _, st := range agg.Sales {
					name := fmt.Sprintf("%s (%s)", st.Symbol, st.SaleDate)
					err := rc.out.PrintRenderTable(outfmt.SaleTax, name, report.RenderSaleTaxTable(st, rc.ph))
					if err != nil {
						return err
					}
				}
			}
			return rc.out.PrintRenderTable(outfmt.AggregateTax, "", report.RenderAggregateTaxTable(agg, rc.ph))
		})
	},
}

func init() {
	gainsCmd.Flags().BoolVarP(&showTransactions, "transactions", "t", false,
		"Also list all recorded transactions")
	taxCmd.Flags().BoolVar(&showTaxDetail, "detail", false, "Also break down the tax of each sale")
	RootCmd.AddCommand(holdingsCmd)
	RootCmd.AddCommand(gainsCmd)
	RootCmd.AddCommand(taxCmd)
}
