// Package civil models zone-less wall-clock date-times and the calendar
// arithmetic that never needs a timezone
package civil

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	perr "tzedge/internal/platform/errors"
	"tzedge/internal/platform/validate"
)

// DateTime is a wall-clock reading with no attached offset. Values are immutable by convention
type DateTime struct {
	Year        int `json:"year" validate:"min=1,max=9999"`
	Month       int `json:"month" validate:"min=1,max=12"`
	Day         int `json:"day" validate:"min=1,max=31"`
	Hour        int `json:"hour" validate:"min=0,max=23"`
	Minute      int `json:"minute" validate:"min=0,max=59"`
	Second      int `json:"second" validate:"min=0,max=59"`
	Millisecond int `json:"millisecond" validate:"min=0,max=999"`
}

// Layout is the textual form used by String and Parse
const Layout = "2006-01-02T15:04:05.000"

var rulesOnce sync.Once

func validator() *validate.Svc {
	svc := validate.Get()
	rulesOnce.Do(func() {
		svc.RegisterStruct(dayInMonth, DateTime{})
		svc.RegisterMessage("civilday", "{0} is not a valid day for the month")
	})
	return svc
}

// dayInMonth runs after the field ranges; it only reports when those passed
func dayInMonth(sl validate.StructLevel) {
	c := sl.Current().Interface().(DateTime)
	if c.Year < 1 || c.Month < 1 || c.Month > 12 || c.Day < 1 {
		return
	}
	if c.Day > DaysIn(c.Year, c.Month) {
		sl.ReportError(c.Day, "day", "Day", "civilday", "")
	}
}

// New builds a DateTime and validates it
func New(year, month, day, hour, minute, second, millisecond int) (DateTime, error) {
	c := DateTime{
		Year: year, Month: month, Day: day,
		Hour: hour, Minute: minute, Second: second, Millisecond: millisecond,
	}
	if err := c.Validate(); err != nil {
		return DateTime{}, err
	}
	return c, nil
}

// MustNew is New for literals known to be valid; it panics otherwise
func MustNew(year, month, day, hour, minute, second, millisecond int) DateTime {
	c, err := New(year, month, day, hour, minute, second, millisecond)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate reports the first out-of-range field as an InvalidCivilTime error. Nothing is clamped
func (c DateTime) Validate() error {
	return perr.WithOp(validator().Struct(c, perr.ErrorCodeInvalidCivilTime), "civil.Validate")
}

// DaysIn returns the number of days in month of year in the proleptic Gregorian calendar
func DaysIn(year, month int) int {
	switch month {
	case 2:
		if IsLeap(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// IsLeap reports whether year is a Gregorian leap year
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// Parse reads YYYY-MM-DDTHH:MM:SS[.mmm]; a single space may replace the T
func Parse(s string) (DateTime, error) {
	in := strings.TrimSpace(s)
	if len(in) < 19 || (in[10] != 'T' && in[10] != ' ') {
		return DateTime{}, perr.InvalidCivilTimef("civil time %q must look like 2006-01-02T15:04:05.000", s)
	}
	// positions of each numeric run inside the fixed layout
	spans := [...]struct {
		name       string
		start, end int
		sep        byte
	}{
		{"year", 0, 4, '-'},
		{"month", 5, 7, '-'},
		{"day", 8, 10, 0},
		{"hour", 11, 13, ':'},
		{"minute", 14, 16, ':'},
		{"second", 17, 19, 0},
	}
	var vals [7]int
	for i, sp := range spans {
		n, err := atoiDigits(in[sp.start:sp.end])
		if err != nil {
			return DateTime{}, perr.WithField(
				perr.Wrapf(err, perr.ErrorCodeInvalidCivilTime, "civil time %q has a malformed %s", s, sp.name), sp.name)
		}
		if sp.sep != 0 && in[sp.end] != sp.sep {
			return DateTime{}, perr.InvalidCivilTimef("civil time %q: expected %q after %s", s, sp.sep, sp.name)
		}
		vals[i] = n
	}
	if rest := in[19:]; rest != "" {
		if rest[0] != '.' || len(rest) != 4 {
			return DateTime{}, perr.InvalidCivilTimef("civil time %q: fraction must be .mmm", s)
		}
		ms, err := atoiDigits(rest[1:])
		if err != nil {
			return DateTime{}, perr.WithField(
				perr.Wrapf(err, perr.ErrorCodeInvalidCivilTime, "civil time %q has a malformed millisecond", s), "millisecond")
		}
		vals[6] = ms
	}
	return New(vals[0], vals[1], vals[2], vals[3], vals[4], vals[5], vals[6])
}

// atoiDigits accepts ASCII digits only; strconv.Atoi alone would take a sign
func atoiDigits(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("non-digit %q", s[i])
		}
	}
	return strconv.Atoi(s)
}

// String renders the value using Layout
func (c DateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%03d",
		c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second, c.Millisecond)
}

// asUTC reads the wall clock as if it were a UTC reading
func (c DateTime) asUTC() time.Time {
	return time.Date(c.Year, time.Month(c.Month), c.Day,
		c.Hour, c.Minute, c.Second, c.Millisecond*int(time.Millisecond), time.UTC)
}

func fromUTC(t time.Time) DateTime {
	t = t.UTC()
	return DateTime{
		Year: t.Year(), Month: int(t.Month()), Day: t.Day(),
		Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(),
		Millisecond: t.Nanosecond() / int(time.Millisecond),
	}
}

// UnixMilliAsUTC returns the epoch milliseconds of the wall clock read as UTC
func (c DateTime) UnixMilliAsUTC() int64 { return c.asUTC().UnixMilli() }

// FromUnixMilliAsUTC is the inverse of UnixMilliAsUTC
func FromUnixMilliAsUTC(ms int64) DateTime { return fromUTC(time.UnixMilli(ms)) }

// Date returns just the calendar date part at midnight
func (c DateTime) Date() DateTime {
	return DateTime{Year: c.Year, Month: c.Month, Day: c.Day}
}

// AddDays shifts the calendar date by n days keeping the time of day
func (c DateTime) AddDays(n int) DateTime {
	d := fromUTC(c.asUTC().AddDate(0, 0, n))
	d.Hour, d.Minute, d.Second, d.Millisecond = c.Hour, c.Minute, c.Second, c.Millisecond
	return d
}

// EndOfDay returns the same date at 23:59:59.999
func (c DateTime) EndOfDay() DateTime {
	d := c.Date()
	d.Hour, d.Minute, d.Second, d.Millisecond = 23, 59, 59, 999
	return d
}

// EndOfPriorWeek returns 23:59:59.999 on the date exactly seven days before c.
// Pure calendar arithmetic: no zone or DST state is consulted. The result is not
// re-validated, so inputs in the first week of year 1 yield a year-0 value that
// Validate rejects
func EndOfPriorWeek(c DateTime) DateTime { return c.AddDays(-7).EndOfDay() }

// ToUTCAtOffset converts c to an instant assuming a fixed offset east of UTC in minutes.
// EST is -300, so 00:40 local becomes 05:40Z
func ToUTCAtOffset(c DateTime, offsetMinutes int) time.Time {
	return c.asUTC().Add(-time.Duration(offsetMinutes) * time.Minute)
}
