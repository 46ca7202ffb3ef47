package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	_ "modernc.org/sqlite"

	"github.com/neexbeast/city-explorer/internal/place"
	"github.com/neexbeast/city-explorer/migrations"
)

// SQLiteStore persists the same records as Repository in a SQLite database.
// Timestamps are stored as Unix milliseconds.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens the database at dsn (a path or ":memory:"), verifies it
// and applies the embedded SQLite migrations.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// A single writer connection; it also keeps ":memory:" one database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if err := runSQLiteMigrations(ctx, db, migrations.SQLite()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running sqlite migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func runSQLiteMigrations(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	files, err := migrationFiles(fsys)
	if err != nil {
		return err
	}

	for _, f := range files {
		content, err := fs.ReadFile(fsys, f)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", f, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction for %s: %w", f, err)
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", f, err)
		}
	}

	return nil
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) queryRow(ctx context.Context, query string, args ...any) scanner {
	return s.db.QueryRowContext(ctx, query, args...)
}

func (s *SQLiteStore) createdAt() int64 {
	return s.now().UTC().UnixMilli()
}

func collectSQL[T any](ctx context.Context, db *sql.DB, table string, scan func(scanner) (T, error), query string, key any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("querying %s for %v: %w", table, key, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", table, err)
	}

	return out, nil
}

// ---- locations ----

// FindLocation returns the locations stored under the exact search query.
func (s *SQLiteStore) FindLocation(ctx context.Context, query string) ([]place.Location, error) {
	const q = `SELECT ` + locationColumns + ` FROM locations WHERE search_query = ?`
	return collectSQL(ctx, s.db, "locations", scanLocation, q, query)
}

// GetLocation returns the location with the given id.
// Returns nil, nil when it does not exist.
func (s *SQLiteStore) GetLocation(ctx context.Context, id int64) (*place.Location, error) {
	const q = `SELECT ` + locationColumns + ` FROM locations WHERE id = ?`

	loc, err := scanLocation(s.queryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying location %d: %w", id, err)
	}
	return &loc, nil
}

// InsertLocation stores loc unless its search query is already taken, and
// returns the stored row either way.
func (s *SQLiteStore) InsertLocation(ctx context.Context, loc place.Location) (place.Location, error) {
	const insert = `
		INSERT INTO locations (search_query, formatted_query, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (search_query) DO NOTHING
		RETURNING ` + locationColumns
	const existing = `SELECT ` + locationColumns + ` FROM locations WHERE search_query = ?`

	return insertOrExisting(ctx, s.queryRow, sql.ErrNoRows, "locations", scanLocation,
		insert, []any{loc.SearchQuery, loc.FormattedQuery, loc.Latitude, loc.Longitude, s.createdAt()},
		existing, []any{loc.SearchQuery},
	)
}

// ---- weathers ----

// FindWeather returns the forecast days stored for a location in insertion order.
func (s *SQLiteStore) FindWeather(ctx context.Context, locationID int64) ([]place.Weather, error) {
	const q = `SELECT ` + weatherColumns + ` FROM weathers WHERE location_id = ? ORDER BY id`
	return collectSQL(ctx, s.db, "weathers", scanWeather, q, locationID)
}

// InsertWeather stores one forecast day, skipping a day already stored for the location.
func (s *SQLiteStore) InsertWeather(ctx context.Context, w place.Weather) (place.Weather, error) {
	const insert = `
		INSERT INTO weathers (forecast, time, created_at, location_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (location_id, time) DO NOTHING
		RETURNING ` + weatherColumns
	const existing = `SELECT ` + weatherColumns + ` FROM weathers WHERE location_id = ? AND time = ?`

	return insertOrExisting(ctx, s.queryRow, sql.ErrNoRows, "weathers", scanWeather,
		insert, []any{w.Forecast, w.Time, s.createdAt(), w.LocationID},
		existing, []any{w.LocationID, w.Time},
	)
}

// ---- businesses ----

// FindBusinesses returns the businesses stored for a location in insertion order.
func (s *SQLiteStore) FindBusinesses(ctx context.Context, locationID int64) ([]place.Business, error) {
	const q = `SELECT ` + businessColumns + ` FROM businesses WHERE location_id = ? ORDER BY id`
	return collectSQL(ctx, s.db, "businesses", scanBusiness, q, locationID)
}

// InsertBusiness stores one business, skipping a URL already stored for the location.
func (s *SQLiteStore) InsertBusiness(ctx context.Context, b place.Business) (place.Business, error) {
	const insert = `
		INSERT INTO businesses (name, image_url, price, rating, url, created_at, location_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (location_id, url) DO NOTHING
		RETURNING ` + businessColumns
	const existing = `SELECT ` + businessColumns + ` FROM businesses WHERE location_id = ? AND url = ?`

	return insertOrExisting(ctx, s.queryRow, sql.ErrNoRows, "businesses", scanBusiness,
		insert, []any{b.Name, b.ImageURL, b.Price, b.Rating, b.URL, s.createdAt(), b.LocationID},
		existing, []any{b.LocationID, b.URL},
	)
}

// ---- movies ----

// FindMovies returns the movies stored for a location in insertion order.
func (s *SQLiteStore) FindMovies(ctx context.Context, locationID int64) ([]place.Movie, error) {
	const q = `SELECT ` + movieColumns + ` FROM movies WHERE location_id = ? ORDER BY id`
	return collectSQL(ctx, s.db, "movies", scanMovie, q, locationID)
}

// InsertMovie stores one movie, skipping a title and release already stored for the location.
func (s *SQLiteStore) InsertMovie(ctx context.Context, m place.Movie) (place.Movie, error) {
	const insert = `
		INSERT INTO movies (title, overview, average_votes, total_votes, image_url, popularity, released_on, created_at, location_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (location_id, title, released_on) DO NOTHING
		RETURNING ` + movieColumns
	const existing = `SELECT ` + movieColumns + ` FROM movies WHERE location_id = ? AND title = ? AND released_on = ?`

	return insertOrExisting(ctx, s.queryRow, sql.ErrNoRows, "movies", scanMovie,
		insert, []any{m.Title, m.Overview, m.AverageVotes, m.TotalVotes, m.ImageURL, m.Popularity, m.ReleasedOn, s.createdAt(), m.LocationID},
		existing, []any{m.LocationID, m.Title, m.ReleasedOn},
	)
}
