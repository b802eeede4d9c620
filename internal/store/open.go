package store

import (
	"context"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// MemoryDSN selects the in-memory store.
const MemoryDSN = "memory"

// Open returns the history store described by dsn along with a function that
// releases it.
func Open(ctx context.Context, dsn string) (weather.HistoryStore, func() error, error) {
	if dsn == MemoryDSN {
		return NewMemoryStore(), func() error { return nil }, nil
	}
	s, err := OpenSQL(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}
