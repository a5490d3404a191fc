// Package tax computes capital gains tax on realized sales, following the
// holding period and filer status rules for listed securities.
package tax

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tsiemens/psxtax/date"
	"github.com/tsiemens/psxtax/ledger"
	"github.com/tsiemens/psxtax/util"
)

// Bracket applies Rate to lots held for fewer than MaxDays days.
type Bracket struct {
	MaxDays int
	Rate    decimal.Decimal
}

type Policy struct {
	// Lots settled on or after this date pay FlatRate regardless of holding
	// period or filer status.
	CutoffDate date.Date
	FlatRate   decimal.Decimal
	// Brackets for filers holding pre-cutoff lots, ordered by MaxDays.
	Brackets []Bracket
	// Rate for holdings past the last bracket.
	FinalRate decimal.Decimal

	// Net realized gain above which super tax may apply. Advisory only.
	SuperTaxThreshold decimal.Decimal
}

func pct(s string) decimal.Decimal {
	return decimal.RequireFromString(s).Shift(-2)
}

func DefaultPolicy() Policy {
	return Policy{
		CutoffDate: date.New(2024, time.July, 1),
		FlatRate:   pct("15"),
		Brackets: []Bracket{
			{MaxDays: 365, Rate: pct("15")},
			{MaxDays: 730, Rate: pct("12.5")},
			{MaxDays: 1095, Rate: pct("10")},
			{MaxDays: 1460, Rate: pct("7.5")},
		},
		FinalRate:         decimal.Zero,
		SuperTaxThreshold: decimal.NewFromInt(150_000_000),
	}
}

// Calculator holds the filer status used for rate selection. It is a small
// value type; copies are independent.
type Calculator struct {
	policy  Policy
	isFiler bool
}

func NewCalculator(policy Policy) *Calculator {
	return &Calculator{policy: policy}
}

func (c *Calculator) SetFilerStatus(isFiler bool) {
	c.isFiler = isFiler
}

func (c *Calculator) IsFiler() bool {
	return c.isFiler
}

func (c *Calculator) Policy() Policy {
	return c.policy
}

// WithFilerStatus returns a copy of the calculator with the given filer
// status. The receiver is not changed.
func (c *Calculator) WithFilerStatus(isFiler bool) *Calculator {
	cp := *c
	cp.isFiler = isFiler
	return &cp
}

func rateLabel(rate decimal.Decimal, kind string) string {
	return fmt.Sprintf("%s%% (%s)", rate.Shift(2).String(), kind)
}

// RateFor returns the tax rate for a lot settled on purchaseDate and held for
// holdingDays, along with a display label.
func (c *Calculator) RateFor(purchaseDate date.Date, holdingDays int) (decimal.Decimal, string) {
	p := c.policy
	if !purchaseDate.Before(p.CutoffDate) {
		return p.FlatRate, rateLabel(p.FlatRate, "acquired on/after "+p.CutoffDate.String())
	}
	if !c.isFiler {
		return p.FlatRate, rateLabel(p.FlatRate, "non-filer")
	}
	lower := 0
	for _, b := range p.Brackets {
		if holdingDays < b.MaxDays {
			return b.Rate, rateLabel(b.Rate, fmt.Sprintf("filer, held %d-%d days", lower, b.MaxDays-1))
		}
		lower = b.MaxDays
	}
	return p.FinalRate, rateLabel(p.FinalRate, fmt.Sprintf("filer, held %d+ days", lower))
}

type LotTax struct {
	PurchaseDate date.Date
	Quantity     decimal.Decimal
	CostPerUnit  decimal.Decimal
	HoldingDays  int
	Rate         decimal.Decimal
	RateLabel    string
	Gain         decimal.Decimal
	Tax          decimal.Decimal
}

type SaleTax struct {
	Symbol           string
	SaleDate         date.Date
	CapitalGain      decimal.Decimal
	TotalTax         decimal.Decimal
	EffectiveTaxRate decimal.Decimal
	NetProfit        decimal.Decimal
	IsFiler          bool
	Simulated        bool
	Lots             []LotTax
}

// Guards the effective rate division for break-even and losing sales.
var effectiveRateEpsilon = decimal.RequireFromString("0.01")

// CalculateTaxForSale works out the tax owed on a realized (or simulated)
// sale, lot by lot. Lots sold at a loss contribute no tax, and a sale with no
// overall gain owes none at all.
func (c *Calculator) CalculateTaxForSale(sale *ledger.RealizedSale) *SaleTax {
	util.Assert(sale != nil, "CalculateTaxForSale: nil sale")
	taxable := sale.CapitalGain.IsPositive()

	res := &SaleTax{
		Symbol:      sale.Symbol,
		SaleDate:    sale.SaleDate,
		CapitalGain: sale.CapitalGain,
		TotalTax:    decimal.Zero,
		IsFiler:     c.isFiler,
		Simulated:   sale.Simulated,
	}
	for _, lot := range sale.LotsUsed {
		rate, label := c.RateFor(lot.PurchaseDate, lot.HoldingPeriod.Days)
		gain := lot.Gain(sale.SellPrice)
		lotTax := decimal.Zero
		if taxable {
			lotTax = decimal.Max(gain, decimal.Zero).Mul(rate)
		}
		res.TotalTax = res.TotalTax.Add(lotTax)
		res.Lots = append(res.Lots, LotTax{
			PurchaseDate: lot.PurchaseDate,
			Quantity:     lot.Quantity,
			CostPerUnit:  lot.CostPerUnit,
			HoldingDays:  lot.HoldingPeriod.Days,
			Rate:         rate,
			RateLabel:    label,
			Gain:         gain,
			Tax:          lotTax,
		})
	}
	res.EffectiveTaxRate = res.TotalTax.Div(decimal.Max(sale.CapitalGain, effectiveRateEpsilon))
	res.NetProfit = sale.CapitalGain.Sub(res.TotalTax)
	return res
}

type YearTax struct {
	CapitalGain decimal.Decimal
	Tax         decimal.Decimal
}

type AggregateTax struct {
	NetGain   decimal.Decimal
	TotalTax  decimal.Decimal
	NetProfit decimal.Decimal
	Sales     []*SaleTax
	// Keyed by the year the sale settled.
	YearTotals map[int]YearTax

	// Set when NetGain exceeds the super tax threshold. Super tax is never
	// included in TotalTax.
	SuperTaxAdvisory bool
}

func (a *AggregateTax) YearsSorted() []int {
	return util.SortedMapKeys(a.YearTotals)
}

// CalculateAggregateTax totals gains and tax across sales.
func (c *Calculator) CalculateAggregateTax(sales []ledger.RealizedSale) *AggregateTax {
	agg := &AggregateTax{
		NetGain:    decimal.Zero,
		TotalTax:   decimal.Zero,
		YearTotals: map[int]YearTax{},
	}
	for i := range sales {
		st := c.CalculateTaxForSale(&sales[i])
		agg.Sales = append(agg.Sales, st)
		agg.NetGain = agg.NetGain.Add(st.CapitalGain)
		agg.TotalTax = agg.TotalTax.Add(st.TotalTax)

		year := st.SaleDate.Year()
		yt := agg.YearTotals[year]
		yt.CapitalGain = yt.CapitalGain.Add(st.CapitalGain)
		yt.Tax = yt.Tax.Add(st.TotalTax)
		agg.YearTotals[year] = yt
	}
	agg.NetProfit = agg.NetGain.Sub(agg.TotalTax)
	agg.SuperTaxAdvisory = agg.NetGain.GreaterThan(c.policy.SuperTaxThreshold)
	return agg
}
