package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places of the smallest currency unit.
const MoneyScale = 2

var hundred = decimal.NewFromInt(100)

// CalculateTotalAmount returns principal plus flat interest, rounded to the currency unit.
// Formula: Principal * (1 + Rate)
func CalculateTotalAmount(principal decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	totalInterest := principal.Mul(rate)
	return principal.Add(totalInterest).Round(MoneyScale)
}

// SplitEvenly splits total into n parts truncated to the currency unit.
// The first n-1 parts equal regular; last carries the remainder so that
// regular*(n-1) + last == total exactly.
func SplitEvenly(total decimal.Decimal, n int) (regular decimal.Decimal, last decimal.Decimal) {
	if n <= 0 {
		return decimal.Zero, decimal.Zero
	}
	count := decimal.NewFromInt(int64(n))
	regular = total.Div(count).Truncate(MoneyScale)
	last = total.Sub(regular.Mul(decimal.NewFromInt(int64(n - 1))))
	return regular, last
}

// PercentageOf returns amount * percentage / 100 rounded to the currency unit.
func PercentageOf(amount decimal.Decimal, percentage decimal.Decimal) decimal.Decimal {
	return amount.Mul(percentage).Div(hundred).Round(MoneyScale)
}

// IsMoney reports whether d has no more precision than the currency unit.
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// DaysInMonth returns the number of days of month in year.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonthsClamped moves (year, month, day) forward by months calendar
// months, clamping the day to the last day of the target month.
// 2024-01-31 + 1 month = 2024-02-29.
func AddMonthsClamped(year int, month time.Month, day int, months int) (int, time.Month, int) {
	total := int(month) - 1 + months
	y := year + total/12
	m := total % 12
	if m < 0 {
		m += 12
		y--
	}
	targetMonth := time.Month(m + 1)
	if last := DaysInMonth(y, targetMonth); day > last {
		day = last
	}
	return y, targetMonth, day
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// WithinWindow reports whether then happened no more than window before now.
func WithinWindow(then, now time.Time, window time.Duration) bool {
	elapsed := now.Sub(then)
	return elapsed >= 0 && elapsed <= window
}
