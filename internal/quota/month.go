package quota

import (
	"regexp"
	"time"
)

// monthLayout is the calendar bucket format claims are filed under.
const monthLayout = "2006-01"

var monthRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

// MonthOf returns the calendar bucket for t, always derived from UTC.
func MonthOf(t time.Time) string {
	return t.UTC().Format(monthLayout)
}

// ValidMonth reports whether s is a well-formed YYYY-MM bucket.
func ValidMonth(s string) bool {
	if !monthRe.MatchString(s) {
		return false
	}
	_, errParse := time.Parse(monthLayout, s)
	return errParse == nil
}

// LastNMonths returns the n most recent buckets counting back from now,
// newest first and including the current month.
func LastNMonths(now time.Time, n int) []string {
	months := make([]string, 0, n)
	// Normalize to the first of the month so AddDate cannot skip short
	// months (Mar 31 minus one month must be Feb, not Mar).
	cursor := time.Date(now.UTC().Year(), now.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		months = append(months, cursor.Format(monthLayout))
		cursor = cursor.AddDate(0, -1, 0)
	}
	return months
}
