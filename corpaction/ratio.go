package corpaction

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Ratio is an entitlement of Num new shares for every Den held.
// It is kept as a fraction so that entitlements like 1:3 stay exact.
type Ratio struct {
	Num decimal.Decimal
	Den decimal.Decimal
}

// Entitlement is the whole number of new shares for quantity held,
// floor(quantity * Num / Den).
func (r Ratio) Entitlement(quantity decimal.Decimal) decimal.Decimal {
	quo, _ := quantity.Mul(r.Num).QuoRem(r.Den, 0)
	return quo
}

func (r Ratio) String() string {
	return r.Num.String() + ":" + r.Den.String()
}

// ParseRatio parses an entitlement ratio. Accepted forms:
//
//	"20%"  -> 20:100  (percentage)
//	"0.2"  -> 0.2:1   (plain decimal multiplier)
//	"1:5"  -> 1:5     (N new shares for every M held)
//
// Both terms must be positive.
func ParseRatio(s string) (Ratio, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if raw == "" {
		return Ratio{}, fmt.Errorf("%w: missing ratio", ErrInvalidParameters)
	}

	var r Ratio
	switch {
	case strings.HasSuffix(raw, "%"):
		d, err := decimal.NewFromString(strings.TrimSuffix(raw, "%"))
		if err != nil {
			return Ratio{}, fmt.Errorf("%w: malformed percentage ratio '%s'", ErrInvalidParameters, s)
		}
		r = Ratio{Num: d, Den: hundred}
	case strings.Contains(raw, ":"):
		parts := strings.Split(raw, ":")
		if len(parts) != 2 {
			return Ratio{}, fmt.Errorf("%w: malformed ratio '%s'", ErrInvalidParameters, s)
		}
		newShares, err1 := decimal.NewFromString(parts[0])
		held, err2 := decimal.NewFromString(parts[1])
		if err1 != nil || err2 != nil {
			return Ratio{}, fmt.Errorf("%w: malformed ratio '%s'", ErrInvalidParameters, s)
		}
		if !held.IsPositive() {
			return Ratio{}, fmt.Errorf("%w: ratio '%s' has a non-positive base", ErrInvalidParameters, s)
		}
		r = Ratio{Num: newShares, Den: held}
	default:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return Ratio{}, fmt.Errorf("%w: malformed ratio '%s'", ErrInvalidParameters, s)
		}
		r = Ratio{Num: d, Den: decimal.NewFromInt(1)}
	}

	if !r.Num.IsPositive() {
		return Ratio{}, fmt.Errorf("%w: ratio '%s' must be positive", ErrInvalidParameters, s)
	}
	return r, nil
}
