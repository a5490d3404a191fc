// Package date implements calendar dates for trade and settlement arithmetic.
// Dates carry no time of day and no time zone.
package date

import (
	"fmt"
	"time"

	"github.com/tsiemens/psxtax/util"
)

// DefaultFormat is the layout used for dates on the command line and in
// exported data.
const DefaultFormat = time.DateOnly

// Date is held as midnight UTC. The zero Date is 0001-01-01 and means "unset".
type Date struct {
	t time.Time
}

func New(year uint32, month time.Month, day uint32) Date {
	return Date{time.Date(int(year), month, int(day), 0, 0, 0, 0, time.UTC)}
}

// NewFromTime takes the calendar date of t in its own location.
func NewFromTime(t time.Time) Date {
	y, m, d := t.Date()
	return New(uint32(y), m, uint32(d))
}

func (d Date) UTCTime() time.Time {
	return d.t
}

func (d Date) isMidnightUTC() bool {
	return d == NewFromTime(d.t)
}

// Parse parses dateStr with layout dFmt. Layouts that carry a time of day or
// offset are rejected unless they still produce midnight UTC.
func Parse(dFmt string, dateStr string) (Date, error) {
	tm, err := time.Parse(dFmt, dateStr)
	if err != nil {
		return Date{}, err
	}
	d := Date{tm}
	if !d.isMidnightUTC() {
		return Date{}, fmt.Errorf("%q with format %q is not a plain date", dateStr, dFmt)
	}
	return d, nil
}

// Tests may pin the current date.
var TodaysDateForTest Date

func Today() Date {
	if !TodaysDateForTest.IsZero() {
		return TodaysDateForTest
	}
	return NewFromTime(time.Now())
}

func (d Date) IsZero() bool          { return d == Date{} }
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }
func (d Date) After(u Date) bool     { return d.t.After(u.t) }
func (d Date) Before(u Date) bool    { return d.t.Before(u.t) }

func (d Date) Parts() (int, time.Month, int) { return d.t.Date() }
func (d Date) Year() int                     { return d.t.Year() }
func (d Date) Weekday() time.Weekday         { return d.t.Weekday() }

func (d Date) String() string {
	return d.t.Format(DefaultFormat)
}

func (d Date) AddDays(nDays int) Date {
	next := Date{d.t.AddDate(0, 0, nDays)}
	util.Assert(next.isMidnightUTC(), "AddDays moved the time of day")
	return next
}

func isWeekend(wd time.Weekday) bool {
	return wd == time.Saturday || wd == time.Sunday
}

// AddBusinessDays advances the date by nDays week days, skipping Saturdays and
// Sundays. There is no holiday calendar.
func (d Date) AddBusinessDays(nDays int) Date {
	util.Assertf(nDays >= 0, "AddBusinessDays: negative day count %d", nDays)
	cur := d
	for nDays > 0 {
		cur = cur.AddDays(1)
		if !isWeekend(cur.Weekday()) {
			nDays--
		}
	}
	return cur
}

// DaysBetween returns the number of whole days from a to b. Negative if b is
// before a.
func DaysBetween(a, b Date) int {
	return int(b.t.Sub(a.t) / (24 * time.Hour))
}
