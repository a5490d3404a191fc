// Package testlib holds helpers shared by the package tests.
package testlib

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tsiemens/psxtax/date"
	decimal_opt "github.com/tsiemens/psxtax/decimal_value"
)

// regex can be pattern string or Regexp
func RqPanicsWithRegexp(t *testing.T, regex interface{}, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			require.Regexp(t, regex, r)
		} else {
			require.FailNow(t, "Function did not panic")
		}
	}()
	fn()
}

// Use this class instead of require.New if any type needing comparison has
// an Equal method (Decimal and Date for example)
type CustomRequire struct {
	t       *testing.T
	options cmp.Options
}

func NewCustomRequire(t *testing.T) *CustomRequire {
	return &CustomRequire{t, cmp.Options{}}
}

func (rq *CustomRequire) PanicsWithRegexp(regex interface{}, fn func()) {
	RqPanicsWithRegexp(rq.t, regex, fn)
}

func (rq *CustomRequire) Equal(expected, actual interface{}) {
	rq.t.Helper()
	diff := cmp.Diff(expected, actual, rq.options)
	require.True(rq.t, diff == "", diff)
}

func (rq *CustomRequire) LinesEqual(expected, actual string) {
	rq.t.Helper()
	expLines := strings.Split(expected, "\n")
	actLines := strings.Split(actual, "\n")
	diff := cmp.Diff(expLines, actLines, rq.options)
	require.True(rq.t, diff == "", diff)
}

// DecEqual fails unless expected and actual are numerically equal.
func DecEqual(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(expected).Equal(actual),
		"expected %s, got %s", expected, actual)
}

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func Fee(s string) decimal_opt.DecimalOpt {
	return decimal_opt.RequireFromString(s)
}

func MkDate(year int, month time.Month, day int) date.Date {
	return date.New(uint32(year), month, uint32(day))
}
