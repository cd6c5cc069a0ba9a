package timex

import "time"

// DateLayout is the calendar-date format used on the wire and in grouping.
const DateLayout = "2006-01-02"

// DateIn returns the calendar date of t in loc, as midnight in loc.
func DateIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// SameDate reports whether a and b fall on the same calendar date in loc.
func SameDate(a, b time.Time, loc *time.Location) bool {
	return DateIn(a, loc).Equal(DateIn(b, loc))
}

// LoadLocation is time.LoadLocation with "" meaning UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}
