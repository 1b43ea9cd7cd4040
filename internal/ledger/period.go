package ledger

import (
	"time"

	"dailyexpense/internal/core"
)

const lastMilli = 999 * int(time.Millisecond)

// DayRange returns midnight and 23:59:59.999 of t's day in t's location.
func DayRange(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	loc := t.Location()
	return time.Date(y, m, d, 0, 0, 0, 0, loc),
		time.Date(y, m, d, 23, 59, 59, lastMilli, loc)
}

// MonthRange spans the first through the last calendar day of t's month.
func MonthRange(t time.Time) (start, end time.Time) {
	y, m, _ := t.Date()
	loc := t.Location()
	// day 0 of the next month normalises to the last day of this one
	return time.Date(y, m, 1, 0, 0, 0, 0, loc),
		time.Date(y, m+1, 0, 23, 59, 59, lastMilli, loc)
}

// YearRange spans Jan 1 through Dec 31 of t's year.
func YearRange(t time.Time) (start, end time.Time) {
	y := t.Year()
	loc := t.Location()
	return time.Date(y, time.January, 1, 0, 0, 0, 0, loc),
		time.Date(y, time.December, 31, 23, 59, 59, lastMilli, loc)
}

// PeriodRange picks the range matching a dashboard period.
func PeriodRange(p core.TransactionPeriod, t time.Time) (start, end time.Time) {
	switch p {
	case core.Monthly:
		return MonthRange(t)
	case core.Yearly:
		return YearRange(t)
	default:
		return DayRange(t)
	}
}

// ForPeriod filters txs to the period containing t.
func ForPeriod(txs []core.Transaction, p core.TransactionPeriod, t time.Time) []core.Transaction {
	start, end := PeriodRange(p, t)
	return Between(txs, start, end)
}
