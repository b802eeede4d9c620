package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/i474232898/weather-lookup/internal/log"
)

var (
	// ErrEmptyLocation is returned when a query carries no location text.
	ErrEmptyLocation = errors.New("location is required")
	// ErrInvalidDateRange is returned when the start date is after the end date.
	ErrInvalidDateRange = errors.New("start date cannot be after end date")
	// ErrInvalidUnit is returned for units other than metric and imperial.
	ErrInvalidUnit = errors.New("unit must be metric or imperial")
	// ErrNoWeatherData is returned when the location resolved but the
	// upstream weather API produced nothing usable.
	ErrNoWeatherData = errors.New("weather data unavailable")
)

// IsValidation reports whether err is a user-correctable input problem.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyLocation) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrInvalidUnit)
}

// Service sequences location resolution, weather retrieval, windowing and
// persistence for a single request.
type Service struct {
	resolver *Resolver
	current  CurrentProvider
	forecast ForecastProvider
	history  HistoryStore
}

// NewService creates a new Service.
func NewService(resolver *Resolver, current CurrentProvider, forecast ForecastProvider, history HistoryStore) *Service {
	return &Service{
		resolver: resolver,
		current:  current,
		forecast: forecast,
		history:  history,
	}
}

// Resolve delegates to the location resolver.
func (s *Service) Resolve(ctx context.Context, location string) (Coordinates, error) {
	return s.resolver.Resolve(ctx, location)
}

// CurrentWeather resolves location and fetches current conditions for it.
func (s *Service) CurrentWeather(ctx context.Context, location string, unit Unit) (*Snapshot, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrEmptyLocation
	}
	unit, ok := ParseUnit(string(unit))
	if !ok {
		return nil, ErrInvalidUnit
	}
	at, err := s.resolver.Resolve(ctx, location)
	if err != nil {
		return nil, err
	}
	return s.currentAt(ctx, at, unit)
}

func (s *Service) currentAt(ctx context.Context, at Coordinates, unit Unit) (*Snapshot, error) {
	snap, err := s.current.Current(ctx, at, unit)
	if err != nil {
		log.Infow("current weather fetch failed",
			"provider", s.current.Name(), "lat", at.Lat, "lon", at.Lon, "error", err)
		return nil, ErrNoWeatherData
	}
	return &snap, nil
}

// Forecast returns the daily forecast at the given coordinates. Upstream
// failures are logged and yield an empty forecast.
func (s *Service) Forecast(ctx context.Context, at Coordinates, unit Unit) []ForecastEntry {
	entries, err := s.forecast.Forecast(ctx, at, unit)
	if err != nil {
		log.Infow("forecast fetch failed",
			"provider", s.forecast.Name(), "lat", at.Lat, "lon", at.Lon, "error", err)
		return []ForecastEntry{}
	}
	return entries
}

// Lookup runs a full query and records it in the history. Nothing is written
// unless every upstream step succeeded.
func (s *Service) Lookup(ctx context.Context, q Query) (*Report, error) {
	report, err := s.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := s.history.Create(ctx, &report.Record); err != nil {
		return nil, fmt.Errorf("save history: %w", err)
	}
	log.Infow("lookup recorded", "id", report.Record.ID, "location", report.Record.Location)
	return report, nil
}

// Update re-resolves and re-fetches the query and overwrites record id with
// the result. A missing record is reported before any upstream call.
func (s *Service) Update(ctx context.Context, id int64, q Query) (*Report, error) {
	existing, err := s.history.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	report, err := s.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	report.Record.ID = existing.ID
	report.Record.CreatedAt = existing.CreatedAt
	if err := s.history.Update(ctx, report.Record); err != nil {
		return nil, fmt.Errorf("update history %d: %w", id, err)
	}
	log.Infow("history updated", "id", id, "location", report.Record.Location)
	return report, nil
}

// History lists every record in creation order.
func (s *Service) History(ctx context.Context) ([]Record, error) {
	return s.history.List(ctx)
}

// Record fetches a single history record.
func (s *Service) Record(ctx context.Context, id int64) (Record, error) {
	return s.history.Get(ctx, id)
}

// Delete removes a history record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.history.Delete(ctx, id); err != nil {
		return err
	}
	log.Infow("history deleted", "id", id)
	return nil
}

// Validate normalizes q in place and checks it before any network call.
func Validate(q *Query) error {
	q.Location = strings.TrimSpace(q.Location)
	if q.Location == "" {
		return ErrEmptyLocation
	}
	unit, ok := ParseUnit(string(q.Unit))
	if !ok {
		return ErrInvalidUnit
	}
	q.Unit = unit
	q.Start, q.End = TruncateDate(q.Start), TruncateDate(q.End)
	if q.Start.After(q.End) {
		return ErrInvalidDateRange
	}
	return nil
}

func (s *Service) fetch(ctx context.Context, q Query) (*Report, error) {
	if err := Validate(&q); err != nil {
		return nil, err
	}

	at, err := s.resolver.Resolve(ctx, q.Location)
	if err != nil {
		return nil, err
	}

	current, err := s.currentAt(ctx, at, q.Unit)
	if err != nil {
		return nil, err
	}

	forecast := s.Forecast(ctx, at, q.Unit)
	week, err := TopByWeekday(forecast)
	if err != nil {
		return nil, err
	}
	inRange, err := FilterRange(forecast, q.Start, q.End)
	if err != nil {
		return nil, err
	}

	return &Report{
		Record: Record{
			Location:    q.Location,
			Temperature: current.Temperature,
			Description: current.Description,
			StartDate:   q.Start,
			EndDate:     q.End,
		},
		Coordinates: at,
		Unit:        q.Unit,
		Current:     *current,
		Forecast:    forecast,
		Week:        week,
		InRange:     inRange,
	}, nil
}

// RoundTemperature converts an upstream reading to display precision.
func RoundTemperature(v float64) int {
	return int(math.Round(v))
}
