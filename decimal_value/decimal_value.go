// Package decimal_value provides DecimalOpt, an optional decimal used for
// inputs that fall back to a configured default when omitted, such as fee
// percentages.
package decimal_value

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var Zero = DecimalOpt{Decimal: decimal.Zero}
var Null = DecimalOpt{IsNull: true}

type DecimalOpt struct {
	Decimal decimal.Decimal
	IsNull  bool
}

func New(value decimal.Decimal) DecimalOpt {
	return DecimalOpt{Decimal: value}
}

func NewFromInt(value int64) DecimalOpt {
	return New(decimal.NewFromInt(value))
}

// NewFromFloat converts value, mapping NaN and infinities to Null.
func NewFromFloat(value float64) DecimalOpt {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Null
	}
	return New(decimal.NewFromFloat(value))
}

// NewFromString parses value. Blank strings are Null without error.
func NewFromString(value string) (DecimalOpt, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Null, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Null, err
	}
	return New(d), nil
}

func RequireFromString(value string) DecimalOpt {
	return New(decimal.RequireFromString(value))
}

// Or returns the contained value, or def if d is Null.
func (d DecimalOpt) Or(def decimal.Decimal) decimal.Decimal {
	if d.IsNull {
		return def
	}
	return d.Decimal
}

// Equal reports whether both are Null, or both hold equal values.
func (d DecimalOpt) Equal(d2 DecimalOpt) bool {
	if d.IsNull || d2.IsNull {
		return d.IsNull == d2.IsNull
	}
	return d.Decimal.Equal(d2.Decimal)
}

// The sign tests are all false for Null.

func (d DecimalOpt) IsZero() bool     { return !d.IsNull && d.Decimal.IsZero() }
func (d DecimalOpt) IsPositive() bool { return !d.IsNull && d.Decimal.IsPositive() }
func (d DecimalOpt) IsNegative() bool { return !d.IsNull && d.Decimal.IsNegative() }

func (d DecimalOpt) String() string {
	if d.IsNull {
		return "NaN"
	}
	return d.Decimal.String()
}

func (d DecimalOpt) StringFixed(places int32) string {
	if d.IsNull {
		return "NaN"
	}
	return d.Decimal.StringFixed(places)
}
