package weather

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used for forecast entries and
// history dates.
const DateLayout = "2006-01-02"

// Unit is the measurement system requested from the upstream API.
type Unit string

const (
	UnitMetric   Unit = "metric"
	UnitImperial Unit = "imperial"
)

// ParseUnit maps a form or query value to a Unit. Empty input yields metric.
func ParseUnit(s string) (Unit, bool) {
	switch Unit(strings.ToLower(strings.TrimSpace(s))) {
	case "", UnitMetric:
		return UnitMetric, true
	case UnitImperial:
		return UnitImperial, true
	default:
		return "", false
	}
}

// Label returns the temperature suffix shown next to values fetched in u.
func (u Unit) Label() string {
	if u == UnitImperial {
		return "°F"
	}
	return "°C"
}

// Coordinates is a resolved latitude/longitude pair in degrees.
// A value only exists when both halves were present; (0, 0) is valid.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Snapshot is a normalized single observation or single-day forecast.
type Snapshot struct {
	Temperature int    `json:"temperature"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// ForecastEntry pairs a calendar day with its representative snapshot.
type ForecastEntry struct {
	Date     string   `json:"date"` // YYYY-MM-DD
	Snapshot Snapshot `json:"weather"`
}

// WeekdayEntry is a ForecastEntry labeled for display.
type WeekdayEntry struct {
	Weekday  string   `json:"weekday"`
	Date     string   `json:"date"`
	Snapshot Snapshot `json:"weather"`
}

// Record is one persisted query in the history.
type Record struct {
	ID          int64     `json:"id"`
	Location    string    `json:"location"`
	Temperature int       `json:"temperature"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// Query is the user input for a lookup or an update.
type Query struct {
	Location string
	Start    time.Time
	End      time.Time
	Unit     Unit
}

// Report is everything a successful lookup produced.
type Report struct {
	Record      Record          `json:"record"`
	Coordinates Coordinates     `json:"coordinates"`
	Unit        Unit            `json:"unit"`
	Current     Snapshot        `json:"current"`
	Forecast    []ForecastEntry `json:"forecast"`
	Week        []WeekdayEntry  `json:"week"`
	InRange     []ForecastEntry `json:"in_range"`
}

// TruncateDate drops the clock part of t, keeping its calendar date in UTC.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
