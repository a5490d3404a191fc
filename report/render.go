// Package report builds printable tables from ledger, tax, corporate action
// and what-if results.
package report

import (
	"fmt"
	"io"
	"strings"

	tw "github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/tsiemens/psxtax/corpaction"
	"github.com/tsiemens/psxtax/ledger"
	"github.com/tsiemens/psxtax/tax"
	"github.com/tsiemens/psxtax/util"
	"github.com/tsiemens/psxtax/whatif"
)

type RenderTable struct {
	Header []string
	Rows   [][]string
	Footer []string
	Notes  []string
	Errors []error
}

func lotOrigin(txID int64, actionID string) string {
	if actionID != "" {
		return "CA " + actionID
	}
	if txID > 0 {
		return fmt.Sprintf("TX %d", txID)
	}
	return "-"
}

func RenderHoldingsTable(holdings []ledger.Holding, ph PrintHelper) *RenderTable {
	table := &RenderTable{}
	table.Header = []string{"Symbol", "Shares", "Lots", "Avg. Cost", "Total Cost"}

	total := decimal.Zero
	for _, h := range holdings {
		table.Rows = append(table.Rows, []string{
			h.Symbol,
			h.Quantity.String(),
			fmt.Sprintf("%d", len(h.Lots)),
			ph.PriceStr(h.AverageCost),
			ph.CurrStr(h.TotalCostBasis),
		})
		total = total.Add(h.TotalCostBasis)
	}
	table.Footer = []string{"", "", "", "Total", ph.CurrStr(total)}
	return table
}

func RenderLotsTable(lots []ledger.Lot, ph PrintHelper) *RenderTable {
	table := &RenderTable{}
	table.Header = []string{"#", "Trade Date", "Settl. Date", "Shares", "Gross Price", "Fee",
		"Net Price", "Cost", "Origin"}
	for i, lot := range lots {
		table.Rows = append(table.Rows, []string{
			fmt.Sprintf("%d", i+1),
			lot.TradeDate.String(),
			lot.SettlementDate.String(),
			lot.Quantity.String(),
			ph.PriceStr(lot.GrossPrice),
			lot.FeePercent.String() + "%",
			ph.PriceStr(lot.NetPrice),
			ph.CurrStr(lot.Cost()),
			lotOrigin(lot.TransactionID, lot.CorporateActionID),
		})
	}
	return table
}

func RenderTransactionsTable(txs []ledger.Transaction, ph PrintHelper) *RenderTable {
	table := &RenderTable{}
	table.Header = []string{"ID", "Security", "Trade Date", "Settl. Date", "TX", "Shares",
		"Price", "Fee", "Net Price", "Amount"}
	for _, tx := range txs {
		table.Rows = append(table.Rows, []string{
			fmt.Sprintf("%d", tx.ID),
			tx.Symbol,
			tx.TradeDate.String(),
			tx.SettlementDate.String(),
			tx.Type.String(),
			tx.Quantity.String(),
			ph.PriceStr(tx.Price),
			tx.FeePercent.String() + "%",
			ph.PriceStr(tx.NetPrice),
			ph.CurrStr(tx.Quantity.Mul(tx.NetPrice)),
		})
	}
	return table
}

// RenderRealizedGainsTable lists each sale, with per-year totals in the
// footer.
func RenderRealizedGainsTable(
	sales []ledger.RealizedSale, gains *ledger.CumulativeCapitalGains, ph PrintHelper) *RenderTable {

	table := &RenderTable{}
	table.Header = []string{"Security", "Trade Date", "Sale Date", "Shares", "Net Price",
		"Proceeds", "Cost Basis", "Lots", "Cap. Gain"}

	for _, s := range sales {
		table.Rows = append(table.Rows, []string{
			s.Symbol,
			s.TradeDate.String(),
			s.SaleDate.String(),
			s.QuantitySold.String(),
			ph.PriceStr(s.SellPrice),
			ph.CurrStr(s.SaleProceeds),
			ph.CurrStr(s.TotalCostBasis),
			fmt.Sprintf("%d", len(s.LotsUsed)),
			ph.PlusMinus(s.CapitalGain, false),
		})
	}

	years := gains.CapitalGainsYearTotalsKeysSorted()
	yearStrs := []string{}
	yearValsStrs := []string{}
	for _, year := range years {
		yearStrs = append(yearStrs, fmt.Sprintf("%d", year))
		yearValsStrs = append(yearValsStrs, ph.PlusMinus(gains.CapitalGainsYearTotals[year], false))
	}
	totalFooterLabel := "Total"
	totalFooterValsStr := ph.PlusMinus(gains.CapitalGainsTotal, false)
	if len(years) > 0 {
		totalFooterLabel += "\n" + strings.Join(yearStrs, "\n")
		totalFooterValsStr += "\n" + strings.Join(yearValsStrs, "\n")
	}
	table.Footer = []string{"", "", "", "", "", "", "", totalFooterLabel, totalFooterValsStr}
	return table
}

// RenderSaleTaxTable breaks a sale's tax down by consumed lot.
func RenderSaleTaxTable(st *tax.SaleTax, ph PrintHelper) *RenderTable {
	table := &RenderTable{}
	table.Header = []string{"Purchase Date", "Shares", "Cost/Share", "Held (days)", "Rate", "Gain", "Tax"}
	for _, lot := range st.Lots {
		table.Rows = append(table.Rows, []string{
			lot.PurchaseDate.String(),
			lot.Quantity.String(),
			ph.PriceStr(lot.CostPerUnit),
			fmt.Sprintf("%d", lot.HoldingDays),
			lot.RateLabel,
			ph.PlusMinus(lot.Gain, true),
			ph.CurrStr(lot.Tax),
		})
	}
	table.Footer = []string{"", "", "", "", "Total", ph.PlusMinus(st.CapitalGain, false), ph.CurrStr(st.TotalTax)}

	table.Notes = append(table.Notes,
		fmt.Sprintf(" Effective rate %s, net profit %s (%s)",
			PctStr(st.EffectiveTaxRate), ph.PlusMinus(st.NetProfit, false),
			util.Tern(st.IsFiler, "filer", "non-filer")))
	if st.Simulated {
		table.Notes = append(table.Notes, " Simulated sale. Nothing was recorded.")
	}
	return table
}

/*
Generates a RenderTable that will render out to this:
| Year             | Capital Gains | Tax     | Net Profit |
+------------------+---------------+---------+------------+
| 2024             | xxxx.xx       | xxx.xx  | xxxx.xx    |
| Since inception  | xxxx.xx       | xxx.xx  | xxxx.xx    |
*/
func RenderAggregateTaxTable(agg *tax.AggregateTax, ph PrintHelper) *RenderTable {
	table := &RenderTable{}
	table.Header = []string{"Year", "Capital Gains", "Tax", "Net Profit"}
	for _, year := range agg.YearsSorted() {
		yt := agg.YearTotals[year]
		table.Rows = append(table.Rows, []string{
			fmt.Sprintf("%d", year),
			ph.PlusMinus(yt.CapitalGain, false),
			ph.CurrStr(yt.Tax),
			ph.PlusMinus(yt.CapitalGain.Sub(yt.Tax), false),
		})
	}
	table.Rows = append(table.Rows, []string{
		"Since inception",
		ph.PlusMinus(agg.NetGain, false),
		ph.CurrStr(agg.TotalTax),
		ph.PlusMinus(agg.NetProfit, false),
	})
	if agg.SuperTaxAdvisory {
		table.Notes = append(table.Notes,
			" Net gains exceed the super tax threshold. Super tax may apply and is not included above.")
	}
	return table
}

func RenderCorporateActionsTable(records []corpaction.Record, ph PrintHelper) *RenderTable {
	table := &RenderTable{}
	table.Header = []string{"ID", "Type", "Security", "Ex-Date", "Ratio", "Shares Added",
		"Cost Added", "Status"}
	for _, r := range records {
		table.Rows = append(table.Rows, []string{
			r.ID,
			r.Type.String(),
			r.Symbol,
			r.ExDate.String(),
			r.RatioText,
			r.SharesAdded.String(),
			strOrDash(!r.CostAdded.IsZero(), ph.CurrStr(r.CostAdded)),
			util.Tern(r.Applied, "applied", "reversed"),
		})
	}
	return table
}

func RenderTimingTable(ta *whatif.TimingAnalysis, ph PrintHelper) *RenderTable {
	table := &RenderTable{}
	table.Header = []string{"Scenario", "Trade Date", "Sale Date", "Held (days)", "Cap. Gain",
		"Tax", "Net Profit"}
	for _, sc := range ta.Scenarios {
		label := sc.Label
		if sc.TradeDate.Equal(ta.Recommended.TradeDate) {
			label += " *"
		}
		table.Rows = append(table.Rows, []string{
			label,
			sc.TradeDate.String(),
			sc.SaleDate.String(),
			fmt.Sprintf("%d", sc.HoldingDays),
			ph.PlusMinus(sc.CapitalGain, true),
			ph.CurrStr(sc.Tax),
			ph.PlusMinus(sc.NetProfit, true),
		})
	}
	table.Notes = append(table.Notes, " * Recommended. Assumes the price stays at "+ph.PriceStr(ta.Price))
	if ta.TaxSaving.IsPositive() {
		table.Notes = append(table.Notes, " Waiting saves "+ph.CurrStr(ta.TaxSaving)+" in tax")
	}
	return table
}

func RenderFilerComparisonTable(fc *whatif.FilerComparison, ph PrintHelper) *RenderTable {
	table := &RenderTable{}
	table.Header = []string{"Status", "Cap. Gain", "Tax", "Effective Rate", "Net Profit"}
	for _, st := range []*tax.SaleTax{fc.Filer, fc.NonFiler} {
		table.Rows = append(table.Rows, []string{
			util.Tern(st.IsFiler, "Filer", "Non-filer"),
			ph.PlusMinus(st.CapitalGain, true),
			ph.CurrStr(st.TotalTax),
			PctStr(st.EffectiveTaxRate),
			ph.PlusMinus(st.NetProfit, true),
		})
	}
	table.Notes = append(table.Notes, " "+fc.Recommendation)
	return table
}

func PrintRenderTable(title string, tableModel *RenderTable, writer io.Writer) {
	for _, err := range tableModel.Errors {
		fmt.Fprintf(writer, "[!] %v. Printing parsed information state:\n", err)
	}
	fmt.Fprintf(writer, "%s\n", title)

	table := tw.NewWriter(writer)
	table.SetHeader(tableModel.Header)
	table.SetBorder(false)
	table.SetRowLine(true)

	for _, row := range tableModel.Rows {
		table.Append(row)
	}
	if len(tableModel.Footer) > 0 {
		table.SetFooter(tableModel.Footer)
	}
	table.Render()

	for _, note := range tableModel.Notes {
		fmt.Fprintln(writer, note)
	}
}
