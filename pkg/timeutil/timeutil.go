// Package timeutil provides timezone-aware day arithmetic. Streak rules
// count calendar days in the students' local timezone, not UTC.
package timeutil

import (
	"time"
)

// SaoPauloTZ is the reference timezone for day boundaries.
var SaoPauloTZ = time.FixedZone("America/Sao_Paulo", -3*60*60)

// Now returns the current time in the reference timezone.
func Now() time.Time {
	return time.Now().In(SaoPauloTZ)
}

// ToLocal converts a time to the reference timezone.
func ToLocal(t time.Time) time.Time {
	return t.In(SaoPauloTZ)
}

// StartOfDay returns midnight of the given day in the reference timezone.
func StartOfDay(t time.Time) time.Time {
	local := ToLocal(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, SaoPauloTZ)
}

// IsSameDay checks if two times fall on the same local calendar day.
func IsSameDay(t1, t2 time.Time) bool {
	a, b := ToLocal(t1), ToLocal(t2)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// IsConsecutiveDay checks if t2 falls on the local calendar day right
// after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	return DaysBetween(t1, t2) == 1
}

// DaysBetween returns the number of local calendar days from t1 to t2.
// Negative when t2 is before t1.
func DaysBetween(t1, t2 time.Time) int {
	d1 := StartOfDay(t1)
	d2 := StartOfDay(t2)
	return int(d2.Sub(d1).Hours() / 24)
}

// FormatDateStr formats a time as a local yyyy-mm-dd date string.
func FormatDateStr(t time.Time) string {
	return ToLocal(t).Format("2006-01-02")
}
