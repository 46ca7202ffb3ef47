package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/city-explorer/internal/place"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository persists location, weather, business and movie records in
// PostgreSQL.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// rowTo adapts a scan function to pgx.CollectRows.
func rowTo[T any](scan func(scanner) (T, error)) pgx.RowToFunc[T] {
	return func(row pgx.CollectableRow) (T, error) { return scan(row) }
}

func (r *Repository) find(ctx context.Context, table, sql string, key any) (pgx.Rows, error) {
	rows, err := r.q.Query(ctx, sql, key)
	if err != nil {
		return nil, fmt.Errorf("querying %s for %v: %w", table, key, err)
	}
	return rows, nil
}

func (r *Repository) queryRow(ctx context.Context, sql string, args ...any) scanner {
	return r.q.QueryRow(ctx, sql, args...)
}

// ---- locations ----

// FindLocation returns the locations stored under the exact search query.
func (r *Repository) FindLocation(ctx context.Context, query string) ([]place.Location, error) {
	const q = `SELECT ` + locationColumns + ` FROM locations WHERE search_query = $1`

	rows, err := r.find(ctx, "locations", q, query)
	if err != nil {
		return nil, err
	}
	locs, err := pgx.CollectRows(rows, rowTo(scanLocation))
	if err != nil {
		return nil, fmt.Errorf("reading locations for %q: %w", query, err)
	}
	return locs, nil
}

// GetLocation returns the location with the given id.
// Returns nil, nil when it does not exist.
func (r *Repository) GetLocation(ctx context.Context, id int64) (*place.Location, error) {
	const q = `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`

	loc, err := scanLocation(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying location %d: %w", id, err)
	}
	return &loc, nil
}

// InsertLocation stores loc unless its search query is already taken, and
// returns the stored row either way.
func (r *Repository) InsertLocation(ctx context.Context, loc place.Location) (place.Location, error) {
	const insert = `
		INSERT INTO locations (search_query, formatted_query, latitude, longitude)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (search_query) DO NOTHING
		RETURNING ` + locationColumns
	const existing = `SELECT ` + locationColumns + ` FROM locations WHERE search_query = $1`

	return insertOrExisting(ctx, r.queryRow, pgx.ErrNoRows, "locations", scanLocation,
		insert, []any{loc.SearchQuery, loc.FormattedQuery, loc.Latitude, loc.Longitude},
		existing, []any{loc.SearchQuery},
	)
}

// ---- weathers ----

// FindWeather returns the forecast days stored for a location in insertion order.
func (r *Repository) FindWeather(ctx context.Context, locationID int64) ([]place.Weather, error) {
	const q = `SELECT ` + weatherColumns + ` FROM weathers WHERE location_id = $1 ORDER BY id`

	rows, err := r.find(ctx, "weathers", q, locationID)
	if err != nil {
		return nil, err
	}
	days, err := pgx.CollectRows(rows, rowTo(scanWeather))
	if err != nil {
		return nil, fmt.Errorf("reading weathers for location %d: %w", locationID, err)
	}
	return days, nil
}

// InsertWeather stores one forecast day, skipping a day already stored for the location.
func (r *Repository) InsertWeather(ctx context.Context, w place.Weather) (place.Weather, error) {
	const insert = `
		INSERT INTO weathers (forecast, time, location_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (location_id, time) DO NOTHING
		RETURNING ` + weatherColumns
	const existing = `SELECT ` + weatherColumns + ` FROM weathers WHERE location_id = $1 AND time = $2`

	return insertOrExisting(ctx, r.queryRow, pgx.ErrNoRows, "weathers", scanWeather,
		insert, []any{w.Forecast, w.Time, w.LocationID},
		existing, []any{w.LocationID, w.Time},
	)
}

// ---- businesses ----

// FindBusinesses returns the businesses stored for a location in insertion order.
func (r *Repository) FindBusinesses(ctx context.Context, locationID int64) ([]place.Business, error) {
	const q = `SELECT ` + businessColumns + ` FROM businesses WHERE location_id = $1 ORDER BY id`

	rows, err := r.find(ctx, "businesses", q, locationID)
	if err != nil {
		return nil, err
	}
	businesses, err := pgx.CollectRows(rows, rowTo(scanBusiness))
	if err != nil {
		return nil, fmt.Errorf("reading businesses for location %d: %w", locationID, err)
	}
	return businesses, nil
}

// InsertBusiness stores one business, skipping a URL already stored for the location.
func (r *Repository) InsertBusiness(ctx context.Context, b place.Business) (place.Business, error) {
	const insert = `
		INSERT INTO businesses (name, image_url, price, rating, url, location_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (location_id, url) DO NOTHING
		RETURNING ` + businessColumns
	const existing = `SELECT ` + businessColumns + ` FROM businesses WHERE location_id = $1 AND url = $2`

	return insertOrExisting(ctx, r.queryRow, pgx.ErrNoRows, "businesses", scanBusiness,
		insert, []any{b.Name, b.ImageURL, b.Price, b.Rating, b.URL, b.LocationID},
		existing, []any{b.LocationID, b.URL},
	)
}

// ---- movies ----

// FindMovies returns the movies stored for a location in insertion order.
func (r *Repository) FindMovies(ctx context.Context, locationID int64) ([]place.Movie, error) {
	const q = `SELECT ` + movieColumns + ` FROM movies WHERE location_id = $1 ORDER BY id`

	rows, err := r.find(ctx, "movies", q, locationID)
	if err != nil {
		return nil, err
	}
	movies, err := pgx.CollectRows(rows, rowTo(scanMovie))
	if err != nil {
		return nil, fmt.Errorf("reading movies for location %d: %w", locationID, err)
	}
	return movies, nil
}

// InsertMovie stores one movie, skipping a title and release already stored for the location.
func (r *Repository) InsertMovie(ctx context.Context, m place.Movie) (place.Movie, error) {
	const insert = `
		INSERT INTO movies (title, overview, average_votes, total_votes, image_url, popularity, released_on, location_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (location_id, title, released_on) DO NOTHING
		RETURNING ` + movieColumns
	const existing = `SELECT ` + movieColumns + ` FROM movies WHERE location_id = $1 AND title = $2 AND released_on = $3`

	return insertOrExisting(ctx, r.queryRow, pgx.ErrNoRows, "movies", scanMovie,
		insert, []any{m.Title, m.Overview, m.AverageVotes, m.TotalVotes, m.ImageURL, m.Popularity, m.ReleasedOn, m.LocationID},
		existing, []any{m.LocationID, m.Title, m.ReleasedOn},
	)
}
