// Package whatif previews the tax outcome of sales that have not happened.
// It never changes ledger or calculator state.
package whatif

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/tsiemens/psxtax/date"
	decimal_opt "github.com/tsiemens/psxtax/decimal_value"
	"github.com/tsiemens/psxtax/ledger"
	"github.com/tsiemens/psxtax/tax"
)

// SaleSimulator is satisfied by *ledger.Ledger.
type SaleSimulator interface {
	CalculateSale(symbol string, quantity, price decimal.Decimal,
		tradeDate date.Date, fee decimal_opt.DecimalOpt) (*ledger.RealizedSale, error)
	SettlementDate(tradeDate date.Date) date.Date
}

type Engine struct {
	sim  SaleSimulator
	calc *tax.Calculator
}

func NewEngine(sim SaleSimulator, calc *tax.Calculator) *Engine {
	return &Engine{sim: sim, calc: calc}
}

type Scenario struct {
	Label     string
	TradeDate date.Date
	SaleDate  date.Date
	// Holding period of the most recently acquired lot the sale would use.
	HoldingDays int
	CapitalGain decimal.Decimal
	Tax         decimal.Decimal
	NetProfit   decimal.Decimal
	SaleTax     *tax.SaleTax
}

type TimingAnalysis struct {
	Symbol    string
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	Scenarios []Scenario
	// Highest net profit, the earliest such scenario on ties.
	Recommended Scenario
	// Tax saved by following the recommendation instead of selling now.
	TaxSaving decimal.Decimal
}

func (e *Engine) scenario(label string, symbol string, quantity, price decimal.Decimal,
	tradeDate date.Date, fee decimal_opt.DecimalOpt) (Scenario, error) {

	sale, err := e.sim.CalculateSale(symbol, quantity, price, tradeDate, fee)
	if err != nil {
		return Scenario{}, err
	}
	st := e.calc.CalculateTaxForSale(sale)
	holdingDays := 0
	if n := len(sale.LotsUsed); n > 0 {
		holdingDays = sale.LotsUsed[n-1].HoldingPeriod.Days
	}
	return Scenario{
		Label:       label,
		TradeDate:   tradeDate,
		SaleDate:    sale.SaleDate,
		HoldingDays: holdingDays,
		CapitalGain: sale.CapitalGain,
		Tax:         st.TotalTax,
		NetProfit:   st.NetProfit,
		SaleTax:     st,
	}, nil
}

// earliestTradeDateSettlingBy returns the earliest trade date, not before asOf,
// whose settlement falls on or after target.
func (e *Engine) earliestTradeDateSettlingBy(target, asOf date.Date) date.Date {
	t := target
	for t.After(asOf) && !e.sim.SettlementDate(t.AddDays(-1)).Before(target) {
		t = t.AddDays(-1)
	}
	return t
}

// AnalyzeOptimalTiming compares selling now against waiting for each upcoming
// holding period bracket boundary of every pre-cutoff lot the sale would
// consume. Scenarios after "Sell now" are in trade date order, one per trade
// date. The price is assumed to stay the same.
func (e *Engine) AnalyzeOptimalTiming(
	symbol string, quantity, price decimal.Decimal, asOf date.Date,
	fee decimal_opt.DecimalOpt) (*TimingAnalysis, error) {

	now, err := e.scenario("Sell now", symbol, quantity, price, asOf, fee)
	if err != nil {
		return nil, err
	}
	res := &TimingAnalysis{
		Symbol:    ledger.NormalizeSymbol(symbol),
		Quantity:  quantity,
		Price:     price,
		Scenarios: []Scenario{now},
	}

	type milestone struct {
		tradeDate date.Date
		label     string
	}
	var milestones []milestone
	seen := map[string]bool{}
	policy := e.calc.Policy()
	for _, lot := range now.SaleTax.Lots {
		if !lot.PurchaseDate.Before(policy.CutoffDate) {
			continue
		}
		for _, b := range policy.Brackets {
			target := lot.PurchaseDate.AddDays(b.MaxDays)
			if !target.After(now.SaleDate) {
				continue
			}
			tradeDate := e.earliestTradeDateSettlingBy(target, asOf)
			if seen[tradeDate.String()] {
				continue
			}
			seen[tradeDate.String()] = true
			milestones = append(milestones, milestone{
				tradeDate: tradeDate,
				label: fmt.Sprintf("Hold %s lot %d days (sell %s)",
					lot.PurchaseDate, b.MaxDays, tradeDate),
			})
		}
	}
	slices.SortFunc(milestones, func(a, b milestone) int {
		return a.tradeDate.UTCTime().Compare(b.tradeDate.UTCTime())
	})
	for _, m := range milestones {
		sc, err := e.scenario(m.label, symbol, quantity, price, m.tradeDate, fee)
		if err != nil {
			return nil, err
		}
		res.Scenarios = append(res.Scenarios, sc)
	}

	res.Recommended = res.Scenarios[0]
	for _, sc := range res.Scenarios[1:] {
		if sc.NetProfit.GreaterThan(res.Recommended.NetProfit) {
			res.Recommended = sc
		}
	}
	res.TaxSaving = now.Tax.Sub(res.Recommended.Tax)
	return res, nil
}

type FilerComparison struct {
	Filer               *tax.SaleTax
	NonFiler            *tax.SaleTax
	SavingsByBeingFiler decimal.Decimal
	Recommendation      string
}

// CompareFilerStatus computes the tax on sale both as a filer and as a
// non-filer. The engine's calculator keeps its filer status.
func (e *Engine) CompareFilerStatus(sale *ledger.RealizedSale) *FilerComparison {
	filer := e.calc.WithFilerStatus(true).CalculateTaxForSale(sale)
	nonFiler := e.calc.WithFilerStatus(false).CalculateTaxForSale(sale)
	savings := nonFiler.TotalTax.Sub(filer.TotalTax)

	var rec string
	if savings.IsPositive() {
		rec = fmt.Sprintf("Filing saves %s in tax on this sale of %s.",
			savings.StringFixed(2), sale.Symbol)
	} else {
		rec = fmt.Sprintf("Filer status does not change the tax on this sale of %s.", sale.Symbol)
	}
	return &FilerComparison{
		Filer:               filer,
		NonFiler:            nonFiler,
		SavingsByBeingFiler: savings,
		Recommendation:      rec,
	}
}
