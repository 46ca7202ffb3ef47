package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neexbeast/city-explorer/internal/place"
)

// scanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const (
	locationColumns = `id, search_query, formatted_query, latitude, longitude, created_at`
	weatherColumns  = `id, forecast, time, created_at, location_id`
	businessColumns = `id, name, image_url, price, rating, url, created_at, location_id`
	movieColumns    = `id, title, overview, average_votes, total_votes, image_url, popularity, released_on, created_at, location_id`
)

// timestamp scans a native timestamp (PostgreSQL) as well as Unix
// milliseconds (SQLite) into t.
type timestamp struct {
	t *time.Time
}

func (ts timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*ts.t = v.UTC()
	case int64:
		*ts.t = time.UnixMilli(v).UTC()
	case nil:
		*ts.t = time.Time{}
	default:
		return fmt.Errorf("unsupported timestamp value of type %T", src)
	}
	return nil
}

func scanLocation(row scanner) (place.Location, error) {
	var l place.Location
	err := row.Scan(&l.ID, &l.SearchQuery, &l.FormattedQuery, &l.Latitude, &l.Longitude, timestamp{&l.CreatedAt})
	return l, err
}

func scanWeather(row scanner) (place.Weather, error) {
	var w place.Weather
	err := row.Scan(&w.ID, &w.Forecast, &w.Time, timestamp{&w.CreatedAt}, &w.LocationID)
	return w, err
}

func scanBusiness(row scanner) (place.Business, error) {
	var b place.Business
	err := row.Scan(&b.ID, &b.Name, &b.ImageURL, &b.Price, &b.Rating, &b.URL, timestamp{&b.CreatedAt}, &b.LocationID)
	return b, err
}

func scanMovie(row scanner) (place.Movie, error) {
	var m place.Movie
	err := row.Scan(
		&m.ID,
		&m.Title,
		&m.Overview,
		&m.AverageVotes,
		&m.TotalVotes,
		&m.ImageURL,
		&m.Popularity,
		&m.ReleasedOn,
		timestamp{&m.CreatedAt},
		&m.LocationID,
	)
	return m, err
}

// queryRowFunc runs a single-row query on either backend.
type queryRowFunc func(ctx context.Context, sql string, args ...any) scanner

// insertOrExisting runs an INSERT ... ON CONFLICT DO NOTHING RETURNING
// statement. When the insert is skipped it reads the row that caused the
// conflict, so callers always get the stored id. noRows is the driver's
// "no rows" sentinel.
func insertOrExisting[T any](ctx context.Context, queryRow queryRowFunc, noRows error, table string, scan func(scanner) (T, error), insertSQL string, insertArgs []any, existingSQL string, existingArgs []any) (T, error) {
	rec, err := scan(queryRow(ctx, insertSQL, insertArgs...))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, noRows) {
		return rec, fmt.Errorf("inserting into %s: %w", table, err)
	}

	rec, err = scan(queryRow(ctx, existingSQL, existingArgs...))
	if err != nil {
		return rec, fmt.Errorf("reading existing %s row after conflict: %w", table, err)
	}
	return rec, nil
}
