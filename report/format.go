package report

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const DefaultCurrency = "PKR"

type PrintHelper struct {
	PrintAllDecimals bool
	Currency         string
}

func NewPrintHelper(currency string, printAllDecimals bool) PrintHelper {
	if currency == "" {
		currency = DefaultCurrency
	}
	return PrintHelper{PrintAllDecimals: printAllDecimals, Currency: currency}
}

func (h PrintHelper) currency() money.Currency {
	// money.New always resolves a currency, even for unknown codes.
	return *money.New(0, h.Currency).Currency()
}

// CurrStr formats val in the display currency, e.g. "₨1,234.50".
func (h PrintHelper) CurrStr(val decimal.Decimal) string {
	cur := h.currency()
	if h.PrintAllDecimals {
		return fmt.Sprintf("%s %s", val.String(), cur.Code)
	}
	minor := val.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// PlusMinus is CurrStr, with a leading "+" on positive values if showPlus.
// Used where gains are compared side by side.
func (h PrintHelper) PlusMinus(val decimal.Decimal, showPlus bool) string {
	if val.IsPositive() && showPlus {
		return "+" + h.CurrStr(val)
	}
	return h.CurrStr(val)
}

// PriceStr formats a per-share price. Prices keep four decimal places.
func (h PrintHelper) PriceStr(val decimal.Decimal) string {
	if h.PrintAllDecimals {
		return val.String()
	}
	return val.StringFixed(4)
}

func PctStr(rate decimal.Decimal) string {
	return rate.Shift(2).StringFixed(2) + "%"
}

func strOrDash(useStr bool, str string) string {
	if useStr {
		return str
	}
	return "-"
}
