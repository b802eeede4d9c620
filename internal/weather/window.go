package weather

import (
	"fmt"
	"time"
)

// WeekLength is how many entries TopByWeekday keeps.
const WeekLength = 5

// TopByWeekday returns the first WeekLength entries labeled with the long
// English weekday name of their date. Order is preserved.
func TopByWeekday(entries []ForecastEntry) ([]WeekdayEntry, error) {
	n := min(len(entries), WeekLength)
	out := make([]WeekdayEntry, 0, n)
	for _, e := range entries[:n] {
		d, err := time.Parse(DateLayout, e.Date)
		if err != nil {
			return nil, fmt.Errorf("forecast date %q: %w", e.Date, err)
		}
		out = append(out, WeekdayEntry{
			Weekday:  d.Weekday().String(),
			Date:     e.Date,
			Snapshot: e.Snapshot,
		})
	}
	return out, nil
}

// FilterRange returns the entries whose date lies in [start, end], both
// inclusive and compared as calendar dates. An entry with a malformed date is
// an error, never skipped.
func FilterRange(entries []ForecastEntry, start, end time.Time) ([]ForecastEntry, error) {
	start, end = TruncateDate(start), TruncateDate(end)

	out := make([]ForecastEntry, 0, len(entries))
	for _, e := range entries {
		d, err := time.Parse(DateLayout, e.Date)
		if err != nil {
			return nil, fmt.Errorf("forecast date %q: %w", e.Date, err)
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
