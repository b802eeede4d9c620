package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-lookup/internal/weather"
)

var (
	// ErrNotFound is returned when no history record has the requested id.
	ErrNotFound = errors.New("no such record")
)

// MemoryStore is a concurrency-safe in-memory history store.
type MemoryStore struct {
	mu sync.RWMutex

	records []weather.Record // creation order
	nextID  int64

	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Create appends rec, assigning its ID and CreatedAt.
func (s *MemoryStore) Create(_ context.Context, rec *weather.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec.ID = s.nextID
	rec.CreatedAt = s.now().UTC()
	rec.StartDate = weather.TruncateDate(rec.StartDate)
	rec.EndDate = weather.TruncateDate(rec.EndDate)
	s.records = append(s.records, *rec)
	return nil
}

// List returns a copy of all records in creation order.
func (s *MemoryStore) List(_ context.Context) ([]weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]weather.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Get returns the record with the given id.
func (s *MemoryStore) Get(_ context.Context, id int64) (weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return weather.Record{}, ErrNotFound
	}
	return s.records[i], nil
}

// Update overwrites the mutable fields of the record with rec.ID.
func (s *MemoryStore) Update(_ context.Context, rec weather.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(rec.ID)
	if i < 0 {
		return ErrNotFound
	}
	cur := &s.records[i]
	cur.Location = rec.Location
	cur.Temperature = rec.Temperature
	cur.Description = rec.Description
	cur.StartDate = weather.TruncateDate(rec.StartDate)
	cur.EndDate = weather.TruncateDate(rec.EndDate)
	return nil
}

// Delete removes the record with the given id.
func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	return nil
}

// DeleteBefore enforces retention by age, dropping records created before
// cutoff.
func (s *MemoryStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var removed int64
	for _, r := range s.records {
		if r.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return removed, nil
}

// indexOf relies on ids increasing with position.
func (s *MemoryStore) indexOf(id int64) int {
	lo, hi := 0, len(s.records)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case s.records[mid].ID == id:
			return mid
		case s.records[mid].ID < id:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return -1
}
