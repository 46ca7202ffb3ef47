// Package resolver answers location, weather, business and movie requests
// cache-aside: a stored record is served as is, a miss is fetched from the
// provider, normalized and persisted so the next request is served from the
// store.
package resolver

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/neexbeast/city-explorer/internal/place"
	"github.com/neexbeast/city-explorer/internal/provider"
)

var (
	// ErrNotFound means the location does not exist, neither stored nor at the geocoder.
	ErrNotFound = errors.New("location not found")
	// ErrProvider wraps a failed provider call. Nothing is persisted.
	ErrProvider = errors.New("provider lookup failed")
	// ErrStore wraps a failed store read.
	ErrStore = errors.New("store lookup failed")
)

// Origin tells where a result came from.
type Origin string

const (
	OriginMemo     Origin = "memo"
	OriginStore    Origin = "store"
	OriginProvider Origin = "provider"
)

// Result is the outcome of one lookup. Records keep provider order.
type Result[T any] struct {
	Records []T
	Origin  Origin
}

// Store is the persistence the resolver reads from and writes to.
// storage.Repository and storage.SQLiteStore satisfy it.
type Store interface {
	FindLocation(ctx context.Context, query string) ([]place.Location, error)
	GetLocation(ctx context.Context, id int64) (*place.Location, error)
	InsertLocation(ctx context.Context, loc place.Location) (place.Location, error)
	FindWeather(ctx context.Context, locationID int64) ([]place.Weather, error)
	InsertWeather(ctx context.Context, w place.Weather) (place.Weather, error)
	FindBusinesses(ctx context.Context, locationID int64) ([]place.Business, error)
	InsertBusiness(ctx context.Context, b place.Business) (place.Business, error)
	FindMovies(ctx context.Context, locationID int64) ([]place.Movie, error)
	InsertMovie(ctx context.Context, m place.Movie) (place.Movie, error)
}

// Geocoder is satisfied by provider.GeocodeClient.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*provider.GeocodeResult, error)
}

// Forecaster is satisfied by provider.WeatherClient.
type Forecaster interface {
	Forecast(ctx context.Context, lat, lng float64) ([]provider.DailyForecast, error)
}

// BusinessSearcher is satisfied by provider.BusinessClient.
type BusinessSearcher interface {
	Search(ctx context.Context, lat, lng float64) ([]provider.Business, error)
}

// MovieDiscoverer is satisfied by provider.MovieClient.
type MovieDiscoverer interface {
	Discover(ctx context.Context) ([]provider.Movie, error)
}

// Providers groups the external APIs.
type Providers struct {
	Geocoder   Geocoder
	Weather    Forecaster
	Businesses BusinessSearcher
	Movies     MovieDiscoverer
}

// Memo is an optional read-through layer in front of the store.
// cache.Cache satisfies it.
type Memo interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

type nopMemo struct{}

func (nopMemo) Get(context.Context, string, any) (bool, error) { return false, nil }
func (nopMemo) Set(context.Context, string, any) error         { return nil }

// Resolver runs the cache-aside lookups.
type Resolver struct {
	store     Store
	providers Providers
	memo      Memo
	log       *slog.Logger
	tracer    trace.Tracer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMemo puts m in front of the store.
func WithMemo(m Memo) Option {
	return func(r *Resolver) {
		if m != nil {
			r.memo = m
		}
	}
}

// WithTracerProvider traces lookups with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Resolver) {
		r.tracer = tp.Tracer(tracerName)
	}
}

const tracerName = "github.com/neexbeast/city-explorer/internal/resolver"

// New constructs a Resolver.
func New(store Store, providers Providers, log *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		store:     store,
		providers: providers,
		memo:      nopMemo{},
		log:       log,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
