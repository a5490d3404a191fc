package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tsiemens/psxtax/app/outfmt"
	"github.com/tsiemens/psxtax/report"
)

var whatifCmd = &cobra.Command{
	Use:   "whatif",
	Short: "Compare the tax of hypothetical sales",
}

var timingFlags = &tradeFlags{}

var timingCmd = &cobra.Command{
	Use:   "timing SYMBOL QUANTITY PRICE",
	Short: "Compare selling now against waiting for a lower holding period rate",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ta, err := timingFlags.parse(args)
		if err != nil {
			return err
		}
		return withSession(false, func(rc *runContext) error {
			res, err := rc.session.WhatIf.AnalyzeOptimalTiming(ta.Symbol, ta.Quantity, ta.Price, ta.Date, ta.Fee)
			if err != nil {
				return err
			}
			return rc.out.PrintRenderTable(outfmt.WhatIfTiming, res.Symbol, report.RenderTimingTable(res, rc.ph))
		})
	},
}

var filerFlags = &tradeFlags{}

var filerCompareCmd = &cobra.Command{
	Use:   "filer SYMBOL QUANTITY PRICE",
	Short: "Compare the tax of a sale as a filer and as a non-filer",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ta, err := filerFlags.parse(args)
		if err != nil {
			return err
		}
		return withSession(false, func(rc *runContext) error {
			sale, err := rc.session.Ledger.CalculateSale(ta.Symbol, ta.Quantity, ta.Price, ta.Date, ta.Fee)
			if err != nil {
				return err
			}
			fc := rc.session.WhatIf.CompareFilerStatus(sale)
			return rc.out.PrintRenderTable(outfmt.WhatIfFiler, sale.Symbol, report.RenderFilerComparisonTable(fc, rc.ph))
		})
	},
}

func init() {
	addTradeFlags(timingCmd, timingFlags)
	addTradeFlags(filerCompareCmd, filerFlags)
	whatifCmd.AddCommand(timingCmd, filerCompareCmd)
	RootCmd.AddCommand(whatifCmd)
}
