package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-lookup/internal/weather"
)

func date(s string) time.Time {
	t, err := time.Parse(weather.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// backends returns every store implementation under test, freshly opened.
func backends(t *testing.T) map[string]weather.HistoryStore {
	t.Helper()

	sqlStore, err := OpenSQL(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlStore.Close() })

	return map[string]weather.HistoryStore{
		"memory": NewMemoryStore(),
		"sqlite": sqlStore,
	}
}

func TestRoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := weather.Record{
				Location:    "New York",
				Temperature: 21,
				Description: "few clouds",
				StartDate:   time.Date(2024, 5, 5, 15, 4, 5, 0, time.UTC),
				EndDate:     date("2024-05-10"),
			}
			require.NoError(t, s.Create(ctx, &rec))
			assert.NotZero(t, rec.ID)
			assert.False(t, rec.CreatedAt.IsZero())

			got, err := s.Get(ctx, rec.ID)
			require.NoError(t, err)
			assert.Equal(t, rec.ID, got.ID)
			assert.Equal(t, "New York", got.Location)
			assert.Equal(t, 21, got.Temperature)
			assert.Equal(t, "few clouds", got.Description)
			assert.True(t, got.StartDate.Equal(date("2024-05-05")), got.StartDate)
			assert.True(t, got.EndDate.Equal(date("2024-05-10")), got.EndDate)
		})
	}
}

func TestListInCreationOrderWithMonotonicIDs(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			empty, err := s.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, empty)

			var ids []int64
			for _, loc := range []string{"Paris", "Oslo", "Lima"} {
				rec := weather.Record{Location: loc, StartDate: date("2024-05-05"), EndDate: date("2024-05-05")}
				require.NoError(t, s.Create(ctx, &rec))
				ids = append(ids, rec.ID)
			}
			assert.Less(t, ids[0], ids[1])
			assert.Less(t, ids[1], ids[2])

			// Deleting the newest must not let its id be handed out again.
			require.NoError(t, s.Delete(ctx, ids[2]))
			next := weather.Record{Location: "Rome", StartDate: date("2024-05-05"), EndDate: date("2024-05-05")}
			require.NoError(t, s.Create(ctx, &next))
			assert.Greater(t, next.ID, ids[2])

			recs, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, recs, 3)
			assert.Equal(t, "Paris", recs[0].Location)
			assert.Equal(t, "Oslo", recs[1].Location)
			assert.Equal(t, "Rome", recs[2].Location)
		})
	}
}

func TestUpdate(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := weather.Record{Location: "Paris", Temperature: 18, Description: "rain", StartDate: date("2024-05-05"), EndDate: date("2024-05-06")}
			require.NoError(t, s.Create(ctx, &rec))

			rec.Location = "Oslo"
			rec.Temperature = -2
			rec.Description = "snow"
			rec.EndDate = date("2024-05-09")
			require.NoError(t, s.Update(ctx, rec))

			got, err := s.Get(ctx, rec.ID)
			require.NoError(t, err)
			assert.Equal(t, "Oslo", got.Location)
			assert.Equal(t, -2, got.Temperature)
			assert.Equal(t, "snow", got.Description)
			assert.True(t, got.EndDate.Equal(date("2024-05-09")))

			assert.ErrorIs(t, s.Update(ctx, weather.Record{ID: rec.ID + 100}), ErrNotFound)
		})
	}
}

func TestNotFound(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Get(ctx, 99)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, 99), ErrNotFound)
		})
	}
}

func TestDeleteBefore(t *testing.T) {
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	mem := NewMemoryStore()
	mem.now = now
	sqlStore, err := OpenSQL(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlStore.Close() })
	sqlStore.now = now

	for name, s := range map[string]weather.HistoryStore{"memory": mem, "sqlite": sqlStore} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			clock = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			old := weather.Record{Location: "old", StartDate: date("2024-05-01"), EndDate: date("2024-05-01")}
			require.NoError(t, s.Create(ctx, &old))

			clock = time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC)
			fresh := weather.Record{Location: "fresh", StartDate: date("2024-05-03"), EndDate: date("2024-05-03")}
			require.NoError(t, s.Create(ctx, &fresh))

			n, err := s.DeleteBefore(ctx, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)

			recs, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.Equal(t, "fresh", recs[0].Location)
		})
	}
}

func TestOpenFileBackedSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "weather.db")

	s, closeFn, err := Open(ctx, path)
	require.NoError(t, err)
	rec := weather.Record{Location: "Lima", Temperature: 20, Description: "mist", StartDate: date("2024-05-05"), EndDate: date("2024-05-06")}
	require.NoError(t, s.Create(ctx, &rec))
	require.NoError(t, closeFn())

	s, closeFn, err = Open(ctx, "sqlite://"+path)
	require.NoError(t, err)
	defer closeFn()

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lima", got.Location)
}

func TestOpenMemory(t *testing.T) {
	s, closeFn, err := Open(context.Background(), MemoryDSN)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	assert.NoError(t, closeFn())
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{dialect: dialectPostgres}
	assert.Equal(t, "UPDATE t SET a = $1, b = $2 WHERE id = $3", pg.rebind("UPDATE t SET a = ?, b = ? WHERE id = ?"))

	lite := &SQLStore{dialect: dialectSQLite}
	assert.Equal(t, "SELECT ? ", lite.rebind("SELECT ? "))
}

func TestSQLDateScan(t *testing.T) {
	var d sqlDate
	require.NoError(t, d.Scan("2024-05-05"))
	assert.True(t, d.Equal(date("2024-05-05")))

	require.NoError(t, d.Scan([]byte("2024-05-06T00:00:00Z")))
	assert.True(t, d.Equal(date("2024-05-06")))

	require.NoError(t, d.Scan(time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC)))
	assert.True(t, d.Equal(date("2024-05-07")))

	assert.Error(t, d.Scan(42))
}
