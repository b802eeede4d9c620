package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/i474232898/weather-lookup/internal/weather"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS weather_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	location TEXT NOT NULL,
	temperature INTEGER NOT NULL,
	description TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	created_at INTEGER NOT NULL
);`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS weather_entries (
	id BIGSERIAL PRIMARY KEY,
	location VARCHAR(100) NOT NULL,
	temperature INTEGER NOT NULL,
	description VARCHAR(100) NOT NULL,
	start_date DATE NOT NULL,
	end_date DATE NOT NULL,
	created_at BIGINT NOT NULL
);`

const selectColumns = `id, location, temperature, description, start_date, end_date, created_at`

// SQLStore persists history in SQLite or PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// OpenSQL opens the database named by dsn and creates the schema.
// postgres:// and postgresql:// URLs use PostgreSQL; anything else is a
// SQLite path (":memory:" included).
func OpenSQL(ctx context.Context, dsn string) (*SQLStore, error) {
	d, driver, source := dialectSQLite, "sqlite", strings.TrimPrefix(dsn, "sqlite://")
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		d, driver, source = dialectPostgres, "postgres", dsn
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if d == dialectSQLite {
		// One connection serializes writers and keeps ":memory:" a single database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	schema := sqliteSchema
	if d == dialectPostgres {
		schema = postgresSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &SQLStore{db: db, dialect: d, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Create inserts rec and fills in its ID and CreatedAt.
func (s *SQLStore) Create(ctx context.Context, rec *weather.Record) error {
	created := s.now().UTC().Truncate(time.Second)
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO weather_entries (location, temperature, description, start_date, end_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		rec.Location, rec.Temperature, rec.Description,
		formatDate(rec.StartDate), formatDate(rec.EndDate), created.Unix(),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("store: create record: %w", err)
	}
	rec.ID = id
	rec.CreatedAt = created
	rec.StartDate = weather.TruncateDate(rec.StartDate)
	rec.EndDate = weather.TruncateDate(rec.EndDate)
	return nil
}

// List returns every record in creation order.
func (s *SQLStore) List(ctx context.Context) ([]weather.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM weather_entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list records: %w", err)
	}
	defer rows.Close()

	records := []weather.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate records: %w", err)
	}
	return records, nil
}

// Get returns the record with the given id or ErrNotFound.
func (s *SQLStore) Get(ctx context.Context, id int64) (weather.Record, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+selectColumns+` FROM weather_entries WHERE id = ?`), id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.Record{}, ErrNotFound
	}
	if err != nil {
		return weather.Record{}, fmt.Errorf("store: get record %d: %w", id, err)
	}
	return rec, nil
}

// Update overwrites the mutable fields of rec.ID.
func (s *SQLStore) Update(ctx context.Context, rec weather.Record) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE weather_entries
		 SET location = ?, temperature = ?, description = ?, start_date = ?, end_date = ?
		 WHERE id = ?`),
		rec.Location, rec.Temperature, rec.Description,
		formatDate(rec.StartDate), formatDate(rec.EndDate), rec.ID,
	)
	if err != nil {
		return fmt.Errorf("store: update record %d: %w", rec.ID, err)
	}
	return requireAffected(res)
}

// Delete removes the record with the given id.
func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM weather_entries WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("store: delete record %d: %w", id, err)
	}
	return requireAffected(res)
}

// DeleteBefore removes records created before cutoff.
func (s *SQLStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM weather_entries WHERE created_at < ?`), cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("store: prune records: %w", err)
	}
	return res.RowsAffected()
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (weather.Record, error) {
	var (
		rec        weather.Record
		start, end sqlDate
		created    int64
	)
	if err := sc.Scan(&rec.ID, &rec.Location, &rec.Temperature, &rec.Description, &start, &end, &created); err != nil {
		return weather.Record{}, err
	}
	rec.StartDate = start.Time
	rec.EndDate = end.Time
	rec.CreatedAt = time.Unix(created, 0).UTC()
	return rec, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func formatDate(t time.Time) string {
	return t.Format(weather.DateLayout)
}

// sqlDate scans a calendar date stored either as a DATE or as YYYY-MM-DD text.
type sqlDate struct {
	time.Time
}

func (d *sqlDate) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = weather.TruncateDate(v)
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("unsupported date value %T", src)
	}
}

func (d *sqlDate) parse(s string) error {
	if len(s) > len(weather.DateLayout) {
		s = s[:len(weather.DateLayout)]
	}
	t, err := time.Parse(weather.DateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
