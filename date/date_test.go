package date_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tsiemens/psxtax/date"
	"github.com/tsiemens/psxtax/testlib"
	"github.com/tsiemens/psxtax/util"
)

var mkDate = testlib.MkDate

func TestDate(t *testing.T) {
	rq := require.New(t)

	d1 := date.New(2022, 1, 2)
	d2, err := date.Parse(date.DefaultFormat, "2022-01-02")
	rq.Nil(err)
	rq.Equal(d1, d2)
	rq.Equal("2022-01-02", d1.String())

	_, err = date.Parse(date.DefaultFormat, "2022-01-02 xxxx")
	rq.NotNil(err)

	d3 := d1.AddDays(2)
	rq.Equal("2022-01-04", d3.String())

	defaultDate := date.Date{}
	rq.Equal(defaultDate, date.New(1, time.January, 1))
	rq.True(defaultDate.IsZero())
	rq.False(d1.IsZero())
}

func TestAddBusinessDays(t *testing.T) {
	rq := require.New(t)

	// Friday -> Tuesday
	rq.Equal(mkDate(2024, 3, 5), mkDate(2024, 3, 1).AddBusinessDays(2))
	// Thursday -> Monday
	rq.Equal(mkDate(2024, 3, 4), mkDate(2024, 2, 29).AddBusinessDays(2))
	// Monday -> Wednesday
	rq.Equal(mkDate(2023, 1, 4), mkDate(2023, 1, 2).AddBusinessDays(2))
	// Weekend trade dates land on Monday/Tuesday
	rq.Equal(mkDate(2024, 3, 5), mkDate(2024, 3, 2).AddBusinessDays(2))
	rq.Equal(mkDate(2024, 3, 5), mkDate(2024, 3, 3).AddBusinessDays(2))
	// Year boundary
	rq.Equal(mkDate(2024, 1, 2), mkDate(2023, 12, 29).AddBusinessDays(2))

	rq.Equal(mkDate(2024, 3, 2), mkDate(2024, 3, 2).AddBusinessDays(0))
	rq.Equal(mkDate(2024, 3, 8), mkDate(2024, 3, 1).AddBusinessDays(5))

	util.AssertsPanic = true
	testlib.RqPanicsWithRegexp(t, "negative", func() {
		mkDate(2024, 3, 1).AddBusinessDays(-1)
	})
}

func TestDaysBetween(t *testing.T) {
	rq := require.New(t)
	rq.Equal(0, date.DaysBetween(mkDate(2024, 3, 1), mkDate(2024, 3, 1)))
	rq.Equal(366, date.DaysBetween(mkDate(2024, 1, 1), mkDate(2025, 1, 1)))
	rq.Equal(-4, date.DaysBetween(mkDate(2024, 3, 5), mkDate(2024, 3, 1)))
}

func TestHoldingPeriodBetween(t *testing.T) {
	rq := require.New(t)

	hp := date.HoldingPeriodBetween(mkDate(2023, 1, 4), mkDate(2024, 3, 5))
	rq.Equal(date.HoldingPeriod{Days: 426, Years: 1, Months: 2, RemDays: 1, IsLongTerm: true}, hp)

	// Day underflow borrows the length of the month before the end month:
	// 30 - 31 + 30 (April).
	hp = date.HoldingPeriodBetween(mkDate(2023, 3, 31), mkDate(2023, 5, 30))
	rq.Equal(date.HoldingPeriod{Days: 60, Years: 0, Months: 1, RemDays: 29}, hp)

	// Borrowing February alone is not enough, so January is borrowed too:
	// 1 - 31 + 28 + 31.
	hp = date.HoldingPeriodBetween(mkDate(2023, 1, 31), mkDate(2023, 3, 1))
	rq.Equal(date.HoldingPeriod{Days: 29, Years: 0, Months: 0, RemDays: 29}, hp)

	// Borrowing across a year boundary.
	hp = date.HoldingPeriodBetween(mkDate(2023, 11, 20), mkDate(2024, 1, 5))
	rq.Equal(date.HoldingPeriod{Days: 46, Years: 0, Months: 1, RemDays: 16}, hp)

	// 365 days, crossing Feb 29
	hp = date.HoldingPeriodBetween(mkDate(2023, 7, 3), mkDate(2024, 7, 2))
	rq.Equal(date.HoldingPeriod{Days: 365, Years: 0, Months: 11, RemDays: 29, IsLongTerm: true}, hp)

	hp = date.HoldingPeriodBetween(mkDate(2023, 7, 3), mkDate(2024, 7, 1))
	rq.Equal(364, hp.Days)
	rq.False(hp.IsLongTerm)

	rq.Equal(date.HoldingPeriod{}, date.HoldingPeriodBetween(mkDate(2024, 3, 1), mkDate(2024, 3, 1)))
	rq.Equal(date.HoldingPeriod{}, date.HoldingPeriodBetween(mkDate(2024, 3, 5), mkDate(2024, 3, 1)))

	rq.Equal("1y 2m 1d (426 days)",
		date.HoldingPeriodBetween(mkDate(2023, 1, 4), mkDate(2024, 3, 5)).String())
}

func TestDateJSON(t *testing.T) {
	rq := require.New(t)

	data, err := json.Marshal(mkDate(2024, 3, 5))
	rq.NoError(err)
	rq.Equal(`"2024-03-05"`, string(data))

	data, err = json.Marshal(date.Date{})
	rq.NoError(err)
	rq.Equal(`null`, string(data))

	var d date.Date
	for _, tc := range []struct {
		in  string
		exp date.Date
	}{
		{`"2024-03-05"`, mkDate(2024, 3, 5)},
		{`"2024-03-05T18:30:00Z"`, mkDate(2024, 3, 5)},
		{`"2024-03-05T18:30:00.123Z"`, mkDate(2024, 3, 5)},
		// Only the UTC date is kept.
		{`"2024-03-05T23:30:00-05:00"`, mkDate(2024, 3, 6)},
		{`""`, date.Date{}},
		{`null`, date.Date{}},
	} {
		rq.NoError(json.Unmarshal([]byte(tc.in), &d), tc.in)
		rq.Equal(tc.exp, d, tc.in)
	}

	rq.Error(json.Unmarshal([]byte(`"March 5th"`), &d))
	rq.Error(json.Unmarshal([]byte(`20240305`), &d))
}
