package storage_test

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/city-explorer/internal/place"
	"github.com/neexbeast/city-explorer/internal/storage"
)

// ---- mock Querier ----

type mockQuerier struct {
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.queryRowFn(ctx, sql, args...)
}
func (m *mockQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return m.queryFn(ctx, sql, args...)
}

// assign copies values into scan destinations, honouring sql.Scanner.
func assign(values []any, dest []any) error {
	for i, d := range dest {
		if i >= len(values) {
			break
		}
		if s, ok := d.(sql.Scanner); ok {
			if err := s.Scan(values[i]); err != nil {
				return err
			}
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(values[i]))
	}
	return nil
}

// ---- mock pgx.Row ----

type fakeRow struct {
	values []any
	err    error
}

func (f *fakeRow) Scan(dest ...any) error {
	if f.err != nil {
		return f.err
	}
	return assign(f.values, dest)
}

// ---- mock pgx.Rows ----

type fakeRows struct {
	rows    [][]any
	idx     int
	rowErr  error
	scanErr error
}

func (f *fakeRows) Next() bool                                   { f.idx++; return f.idx <= len(f.rows) }
func (f *fakeRows) Err() error                                   { return f.rowErr }
func (f *fakeRows) Close()                                       {}
func (f *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (f *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (f *fakeRows) RawValues() [][]byte                          { return nil }
func (f *fakeRows) Conn() *pgx.Conn                              { return nil }

func (f *fakeRows) Scan(dest ...any) error {
	if f.scanErr != nil {
		return f.scanErr
	}
	return assign(f.rows[f.idx-1], dest)
}

// ---- helpers ----

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func locationRow(id int64, query string) []any {
	return []any{id, query, "Seattle, WA, USA", 47.6062, -122.3321, now}
}

func weatherRow(id int64, forecast, day string) []any {
	return []any{id, forecast, day, now, int64(1)}
}

// ---- locations ----

func TestFindLocation_Found(t *testing.T) {
	var gotArgs []any
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
			gotArgs = args
			return &fakeRows{rows: [][]any{locationRow(1, "seattle")}}, nil
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	locs, err := repo.FindLocation(context.Background(), "seattle")
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, int64(1), locs[0].ID)
	assert.Equal(t, "Seattle, WA, USA", locs[0].FormattedQuery)
	assert.Equal(t, now, locs[0].CreatedAt)
	assert.Equal(t, []any{"seattle"}, gotArgs)
}

func TestFindLocation_Empty(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return &fakeRows{}, nil },
	}

	repo := storage.NewRepositoryWithQuerier(q)
	locs, err := repo.FindLocation(context.Background(), "atlantis")
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestFindLocation_QueryError(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			return nil, fmt.Errorf("connection reset")
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.FindLocation(context.Background(), "seattle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "querying locations")
}

func TestFindLocation_ScanError(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			return &fakeRows{rows: [][]any{locationRow(1, "seattle")}, scanErr: fmt.Errorf("scan failed")}, nil
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.FindLocation(context.Background(), "seattle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading locations")
}

func TestGetLocation_NotFound(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row { return &fakeRow{err: pgx.ErrNoRows} },
	}

	repo := storage.NewRepositoryWithQuerier(q)
	loc, err := repo.GetLocation(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestGetLocation_DBError(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{err: fmt.Errorf("connection reset")}
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.GetLocation(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "querying location 42")
}

func TestInsertLocation_Inserted(t *testing.T) {
	var statements []string
	var gotArgs []any
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, sql string, args ...any) pgx.Row {
			statements = append(statements, sql)
			gotArgs = args
			return &fakeRow{values: locationRow(5, "seattle")}
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	loc, err := repo.InsertLocation(context.Background(), place.Location{
		SearchQuery:    "seattle",
		FormattedQuery: "Seattle, WA, USA",
		Latitude:       47.6062,
		Longitude:      -122.3321,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), loc.ID)
	require.Len(t, statements, 1)
	assert.Contains(t, statements[0], "ON CONFLICT (search_query) DO NOTHING")
	assert.Equal(t, []any{"seattle", "Seattle, WA, USA", 47.6062, -122.3321}, gotArgs)
}

func TestInsertLocation_ConflictReturnsExisting(t *testing.T) {
	var statements []string
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, sql string, _ ...any) pgx.Row {
			statements = append(statements, sql)
			if strings.Contains(sql, "INSERT") {
				return &fakeRow{err: pgx.ErrNoRows}
			}
			return &fakeRow{values: locationRow(3, "seattle")}
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	loc, err := repo.InsertLocation(context.Background(), place.Location{SearchQuery: "seattle"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), loc.ID, "the existing row's id is returned")
	assert.Len(t, statements, 2)
}

func TestInsertLocation_DBError(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{err: fmt.Errorf("db error")}
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.InsertLocation(context.Background(), place.Location{SearchQuery: "seattle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inserting into locations")
}

// ---- weathers ----

func TestFindWeather_KeepsOrder(t *testing.T) {
	var gotSQL string
	q := &mockQuerier{
		queryFn: func(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
			gotSQL = sql
			return &fakeRows{rows: [][]any{
				weatherRow(1, "Rain.", "Fri Jul 14 2017"),
				weatherRow(2, "Sun.", "Sat Jul 15 2017"),
			}}, nil
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	days, err := repo.FindWeather(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "Rain.", days[0].Forecast)
	assert.Equal(t, "Sat Jul 15 2017", days[1].Time)
	assert.Contains(t, gotSQL, "ORDER BY id")
}

func TestFindWeather_RowsErr(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			return &fakeRows{rowErr: fmt.Errorf("rows iteration error")}, nil
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.FindWeather(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading weathers")
}

func TestInsertWeather_ConflictTarget(t *testing.T) {
	var gotSQL string
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, sql string, _ ...any) pgx.Row {
			gotSQL = sql
			return &fakeRow{values: weatherRow(9, "Rain.", "Fri Jul 14 2017")}
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	w, err := repo.InsertWeather(context.Background(), place.Weather{Forecast: "Rain.", Time: "Fri Jul 14 2017", LocationID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(9), w.ID)
	assert.Contains(t, gotSQL, "ON CONFLICT (location_id, time) DO NOTHING")
}

// ---- businesses ----

func TestInsertBusiness_Args(t *testing.T) {
	var gotArgs []any
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, args ...any) pgx.Row {
			gotArgs = args
			return &fakeRow{values: []any{int64(4), "Canlis", "img", "$$$$", 4.5, "https://yelp/canlis", now, int64(2)}}
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	b, err := repo.InsertBusiness(context.Background(), place.Business{
		Name: "Canlis", ImageURL: "img", Price: "$$$$", Rating: 4.5, URL: "https://yelp/canlis", LocationID: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), b.ID)
	assert.Equal(t, []any{"Canlis", "img", "$$$$", 4.5, "https://yelp/canlis", int64(2)}, gotArgs)
}

func TestFindBusinesses_QueryError(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return nil, fmt.Errorf("down") },
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.FindBusinesses(context.Background(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "querying businesses")
}

// ---- movies ----

func TestFindMovies_Found(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			return &fakeRows{rows: [][]any{{
				int64(1), "Sleepless in Seattle", "overview", 6.8, 1500, "https://image.tmdb.org/t/p/w185/abc.jpg", 12.3, "1993-06-25", now, int64(3),
			}}}, nil
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	movies, err := repo.FindMovies(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, 1500, movies[0].TotalVotes)
	assert.Equal(t, 12.3, movies[0].Popularity)
	assert.Equal(t, int64(3), movies[0].LocationID)
}

func TestInsertMovie_ConflictReadFails(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, sql string, _ ...any) pgx.Row {
			if strings.Contains(sql, "INSERT") {
				return &fakeRow{err: pgx.ErrNoRows}
			}
			return &fakeRow{err: fmt.Errorf("connection reset")}
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.InsertMovie(context.Background(), place.Movie{Title: "Heat", LocationID: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading existing movies row")
}

// ---- NewRepository ----

func TestNewRepository_NotNil(t *testing.T) {
	repo := storage.NewRepository(nil)
	assert.NotNil(t, repo)
}
