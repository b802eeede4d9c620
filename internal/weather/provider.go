package weather

import (
	"context"
	"time"
)

// Geocoder resolves postal codes and place names to coordinates.
type Geocoder interface {
	ByPostalCode(ctx context.Context, code, country string) (Coordinates, error)
	ByName(ctx context.Context, name string) (Coordinates, error)
}

// CurrentProvider abstracts a source of current conditions.
type CurrentProvider interface {
	Name() string
	Current(ctx context.Context, at Coordinates, unit Unit) (Snapshot, error)
}

// ForecastProvider abstracts a multi-day forecast strategy. Implementations
// return one entry per calendar day in chronological order.
type ForecastProvider interface {
	Name() string
	Forecast(ctx context.Context, at Coordinates, unit Unit) ([]ForecastEntry, error)
}

// HistoryStore is the contract every history backend must satisfy.
type HistoryStore interface {
	Create(ctx context.Context, rec *Record) error
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id int64) (Record, error)
	Update(ctx context.Context, rec Record) error
	Delete(ctx context.Context, id int64) error
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
