package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsiemens/psxtax/app/outfmt"
	"github.com/tsiemens/psxtax/ledger"
	"github.com/tsiemens/psxtax/report"
)

func newTradeCmd(use, short string, txType ledger.TxType) *cobra.Command {
	flags := &tradeFlags{}
	cmd := &cobra.Command{
		Use:   use + " SYMBOL QUANTITY PRICE",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ta, err := flags.parse(args)
			if err != nil {
				return err
			}
			return withSession(true, func(rc *runContext) error {
				tx, sale, err := rc.session.Ledger.AddTransaction(
					txType, ta.Symbol, ta.Quantity, ta.Price, ta.Date, ta.Fee)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "Recorded %s #%d: %s %s @ %s (net %s), settles %s\n\n",
					tx.Type, tx.ID, tx.Quantity, tx.Symbol, tx.Price, rc.ph.PriceStr(tx.NetPrice),
					tx.SettlementDate)
				if sale == nil {
					return nil
				}
				st := rc.session.Calc.CalculateTaxForSale(sale)
				return rc.out.PrintRenderTable(outfmt.SaleTax, sale.Symbol, report.RenderSaleTaxTable(st, rc.ph))
			})
		},
	}
	addTradeFlags(cmd, flags)
	return cmd
}

func addTradeFlags(cmd *cobra.Command, flags *tradeFlags) {
	cmd.Flags().StringVarP(&flags.date, "date", "d", "", "Trade date (YYYY-MM-DD). Defaults to today")
	cmd.Flags().StringVar(&flags.fee, "fee", "",
		"Brokerage fee, in percent of the price. Defaults to the configured fee")
}

var simulateFlags = &tradeFlags{}

var simulateCmd = &cobra.Command{
	Use:   "simulate SYMBOL QUANTITY PRICE",
	Short: "Show the gain and tax of a sale without recording it",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ta, err := simulateFlags.parse(args)
		if err != nil {
			return err
		}
		return withSession(false, func(rc *runContext) error {
			sale, err := rc.session.Ledger.CalculateSale(ta.Symbol, ta.Quantity, ta.Price, ta.Date, ta.Fee)
			if err != nil {
				return err
			}
			st := rc.session.Calc.CalculateTaxForSale(sale)
			return rc.out.PrintRenderTable(outfmt.SaleTax, sale.Symbol, report.RenderSaleTaxTable(st, rc.ph))
		})
	},
}

func init() {
	RootCmd.AddCommand(newTradeCmd("buy", "Record a purchase", ledger.BUY))
	RootCmd.AddCommand(newTradeCmd("sell", "Record a sale, consuming the oldest lots first", ledger.SELL))
	addTradeFlags(simulateCmd, simulateFlags)
	RootCmd.AddCommand(simulateCmd)
}
