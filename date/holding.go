package date

import (
	"fmt"
	"time"
)

// LongTermDays is the holding period, in days, at which a holding counts as
// long term.
const LongTermDays = 365

// HoldingPeriod is the time between two settlement dates.
type HoldingPeriod struct {
	// Total whole days. This is what tax brackets are keyed on.
	Days int `json:"days"`

	// Calendar decomposition of the period.
	Years   int `json:"years"`
	Months  int `json:"months"`
	RemDays int `json:"remDays"`

	IsLongTerm bool `json:"isLongTerm"`
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// HoldingPeriodBetween computes the holding period from start to end.
// If end is before start, the period is zero.
//
// The calendar decomposition is a field-wise subtraction. When the day
// component underflows, a month is borrowed and the length of the month
// preceding end's month is added back. Borrowing repeats while the day
// component is still negative (Jan 31 to Mar 1 borrows both February and
// January).
func HoldingPeriodBetween(start, end Date) HoldingPeriod {
	if end.Before(start) {
		return HoldingPeriod{}
	}
	sy, sm, sd := start.Parts()
	ey, em, ed := end.Parts()

	years := ey - sy
	months := int(em) - int(sm)
	days := ed - sd
	by, bm := ey, em
	for days < 0 {
		months--
		bm--
		if bm < time.January {
			bm = time.December
			by--
		}
		days += daysInMonth(by, bm)
	}
	if months < 0 {
		years--
		months += 12
	}

	total := DaysBetween(start, end)
	return HoldingPeriod{
		Days:       total,
		Years:      years,
		Months:     months,
		RemDays:    days,
		IsLongTerm: total >= LongTermDays,
	}
}

func (p HoldingPeriod) String() string {
	return fmt.Sprintf("%dy %dm %dd (%d days)", p.Years, p.Months, p.RemDays, p.Days)
}
