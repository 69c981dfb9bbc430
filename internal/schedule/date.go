package schedule

import "time"

// Dates in this package are civil dates: midnight UTC time.Time values.
// Rules store naive wall-clock values, so no zone conversion ever happens;
// UTC is only the carrier that keeps day arithmetic DST-free.

const dateLayout = "2006-01-02"

// ParseDate parses a "YYYY-MM-DD" string into a civil date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// FormatDate renders a civil date as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// DateOf truncates t to its civil date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weekStart returns the Sunday on or before d.
func weekStart(d time.Time) time.Time {
	return DateOf(d).AddDate(0, 0, -int(d.Weekday()))
}

func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
