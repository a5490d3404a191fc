package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/tsiemens/psxtax/util"
)

type CumulativeCapitalGains struct {
	CapitalGainsTotal      decimal.Decimal
	CapitalGainsYearTotals map[int]decimal.Decimal
}

func (g *CumulativeCapitalGains) CapitalGainsYearTotalsKeysSorted() []int {
	return util.SortedMapKeys(g.CapitalGainsYearTotals)
}

// CalcCumulativeCapitalGains totals realized gains overall and per year of the
// sale's settlement.
func CalcCumulativeCapitalGains(sales []RealizedSale) *CumulativeCapitalGains {
	capGainsTotal := decimal.Zero
	capGainsYearTotals := map[int]decimal.Decimal{}

	for _, s := range sales {
		capGainsTotal = capGainsTotal.Add(s.CapitalGain)
		year := s.SaleDate.Year()
		capGainsYearTotals[year] = capGainsYearTotals[year].Add(s.CapitalGain)
	}

	return &CumulativeCapitalGains{capGainsTotal, capGainsYearTotals}
}
