package calendar

import "time"

// DayKeyLayout is the calendar-day key format used in blocked-dates sets.
// Keys are timezone-naive: the instant's date in UTC is what counts.
const DayKeyLayout = "2006-01-02"

// DayKey renders an instant's calendar day.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayKeyLayout)
}

// ExpandDays returns the ordered day keys from start through end, inclusive
// on both ends. A single-day range (yacht charters) yields one key. An
// inverted range yields the single start day rather than an error, so
// reconciliation stays total.
func ExpandDays(start, end time.Time) []string {
	s := truncateToDay(start)
	e := truncateToDay(end)

	if e.Before(s) {
		return []string{s.Format(DayKeyLayout)}
	}

	days := make([]string, 0, int(e.Sub(s)/(24*time.Hour))+1)
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DayKeyLayout))
	}
	return days
}

func truncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
