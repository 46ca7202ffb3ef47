package resolver

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neexbeast/city-explorer/internal/cache"
	"github.com/neexbeast/city-explorer/internal/place"
)

// lookup describes one cache-aside lookup. fetch calls the provider and
// normalizes its answer; it must not touch the store.
//
// claim is set when the records belong to a location that is not stored yet.
// It runs only after fetch succeeded, stores the location, points the fetched
// records at it and returns the memo key to use from then on.
type lookup[T any] struct {
	kind   string
	key    string
	find   func(ctx context.Context) ([]T, error)
	fetch  func(ctx context.Context) ([]T, error)
	claim  func(ctx context.Context, fetched []T) (string, error)
	insert func(ctx context.Context, rec T) (T, error)
}

func resolve[T any](ctx context.Context, r *Resolver, l lookup[T]) (Result[T], error) {
	ctx, span := r.tracer.Start(ctx, "resolve "+l.kind, trace.WithAttributes(
		attribute.String("resolve.kind", l.kind),
		attribute.String("resolve.key", l.key),
	))
	defer span.End()

	res, err := resolveRecords(ctx, r, l)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}

	span.SetAttributes(
		attribute.String("resolve.origin", string(res.Origin)),
		attribute.Int("resolve.records", len(res.Records)),
	)
	return res, nil
}

func resolveRecords[T any](ctx context.Context, r *Resolver, l lookup[T]) (Result[T], error) {
	// An unstored owner has nothing memoized or stored under it.
	if l.claim == nil {
		var memoized []T
		hit, err := r.memo.Get(ctx, l.key, &memoized)
		if err != nil {
			r.log.Warn("memo read failed", "kind", l.kind, "key", l.key, "err", err)
		}
		if hit && len(memoized) > 0 {
			return Result[T]{Records: memoized, Origin: OriginMemo}, nil
		}

		stored, err := l.find(ctx)
		if err != nil {
			return Result[T]{}, fmt.Errorf("%w: reading %s for %s: %w", ErrStore, l.kind, l.key, err)
		}
		if len(stored) > 0 {
			r.remember(ctx, l.kind, l.key, stored)
			return Result[T]{Records: stored, Origin: OriginStore}, nil
		}
	}

	fetched, err := l.fetch(ctx)
	if err != nil {
		return Result[T]{}, fmt.Errorf("%w: fetching %s for %s: %w", ErrProvider, l.kind, l.key, err)
	}

	if l.claim != nil {
		key, err := l.claim(ctx, fetched)
		if err != nil {
			return Result[T]{}, fmt.Errorf("%w: %w", ErrStore, err)
		}
		l.key = key
	}

	records := make([]T, 0, len(fetched))
	persisted := true
	for _, rec := range fetched {
		saved, err := l.insert(ctx, rec)
		if err != nil {
			r.log.Error("persisting record failed", "kind", l.kind, "key", l.key, "err", err)
			persisted = false
			records = append(records, rec)
			continue
		}
		records = append(records, saved)
	}

	if persisted && len(records) > 0 {
		r.remember(ctx, l.kind, l.key, records)
	}

	return Result[T]{Records: records, Origin: OriginProvider}, nil
}

func (r *Resolver) remember(ctx context.Context, kind, key string, v any) {
	if err := r.memo.Set(ctx, key, v); err != nil {
		r.log.Warn("memo write failed", "kind", kind, "key", key, "err", err)
	}
}

// Location returns the location stored under query, geocoding and storing it
// on a miss. ErrNotFound when the geocoder has no result.
func (r *Resolver) Location(ctx context.Context, query string) (place.Location, Origin, error) {
	if strings.TrimSpace(query) == "" {
		return place.Location{}, "", fmt.Errorf("%w: empty query", place.ErrInvalidRef)
	}

	res, err := resolve(ctx, r, lookup[place.Location]{
		kind: "location",
		key:  cache.LocationKey(query),
		find: func(ctx context.Context) ([]place.Location, error) {
			return r.store.FindLocation(ctx, query)
		},
		fetch: func(ctx context.Context) ([]place.Location, error) {
			raw, err := r.providers.Geocoder.Geocode(ctx, query)
			if err != nil || raw == nil {
				return nil, err
			}
			return []place.Location{place.NormalizeLocation(query, *raw)}, nil
		},
		insert: r.store.InsertLocation,
	})
	if err != nil {
		return place.Location{}, "", err
	}
	if len(res.Records) == 0 {
		return place.Location{}, "", fmt.Errorf("%w: %q", ErrNotFound, query)
	}

	return res.Records[0], res.Origin, nil
}

// owner resolves the location that owns the records a ref asks for. A
// coordinate ref that is not stored yet comes back with ID 0; the record
// lookup stores it once its provider has answered.
func (r *Resolver) owner(ctx context.Context, ref place.LocationRef) (place.Location, error) {
	var loc place.Location

	switch {
	case ref.ID > 0:
		stored, err := r.store.GetLocation(ctx, ref.ID)
		if err != nil {
			return loc, fmt.Errorf("%w: reading location %d: %w", ErrStore, ref.ID, err)
		}
		if stored == nil {
			return loc, fmt.Errorf("%w: id %d", ErrNotFound, ref.ID)
		}
		loc = *stored
	case ref.SearchQuery != "":
		var err error
		if loc, _, err = r.Location(ctx, ref.SearchQuery); err != nil {
			return loc, err
		}
	case ref.HasCoordinates():
		return r.coordinateLocation(ctx, *ref.Latitude, *ref.Longitude)
	default:
		return loc, place.ErrInvalidRef
	}

	if loc.ID == 0 {
		return loc, fmt.Errorf("%w: location %q is not persisted", ErrStore, loc.SearchQuery)
	}
	return loc, nil
}

// coordinateLocation finds the location keyed by lat,lng, or describes it
// with ID 0 when it is not stored. It never calls a provider.
func (r *Resolver) coordinateLocation(ctx context.Context, lat, lng float64) (place.Location, error) {
	want := place.CoordinateLocation(lat, lng)

	stored, err := r.store.FindLocation(ctx, want.SearchQuery)
	if err != nil {
		return want, fmt.Errorf("%w: reading location %s: %w", ErrStore, want.SearchQuery, err)
	}
	if len(stored) > 0 {
		return stored[0], nil
	}
	return want, nil
}

// claimOwner stores loc when it has no ID yet and re-points the fetched
// records at it. It returns nil for a stored location.
func claimOwner[T any](r *Resolver, loc *place.Location, kind string, setOwner func(*T, int64)) func(context.Context, []T) (string, error) {
	if loc.ID != 0 {
		return nil
	}
	return func(ctx context.Context, fetched []T) (string, error) {
		saved, err := r.store.InsertLocation(ctx, *loc)
		if err != nil {
			return "", fmt.Errorf("storing location %s: %w", loc.SearchQuery, err)
		}
		if saved.ID == 0 {
			return "", fmt.Errorf("storing location %s: no id assigned", loc.SearchQuery)
		}
		*loc = saved
		for i := range fetched {
			setOwner(&fetched[i], saved.ID)
		}
		return cache.RecordsKey(kind, saved.ID), nil
	}
}

// Weather returns the daily forecasts of the referenced location.
func (r *Resolver) Weather(ctx context.Context, ref place.LocationRef) (Result[place.Weather], error) {
	loc, err := r.owner(ctx, ref)
	if err != nil {
		return Result[place.Weather]{}, err
	}
	return r.weatherFor(ctx, loc)
}

func (r *Resolver) weatherFor(ctx context.Context, loc place.Location) (Result[place.Weather], error) {
	return resolve(ctx, r, lookup[place.Weather]{
		kind: "weather",
		key:  cache.RecordsKey("weather", loc.ID),
		find: func(ctx context.Context) ([]place.Weather, error) {
			return r.store.FindWeather(ctx, loc.ID)
		},
		fetch: func(ctx context.Context) ([]place.Weather, error) {
			days, err := r.providers.Weather.Forecast(ctx, loc.Latitude, loc.Longitude)
			if err != nil {
				return nil, err
			}
			out := make([]place.Weather, 0, len(days))
			for _, d := range days {
				out = append(out, place.NormalizeWeather(loc.ID, d))
			}
			return out, nil
		},
		claim:  claimOwner(r, &loc, "weather", func(rec *place.Weather, id int64) { rec.LocationID = id }),
		insert: r.store.InsertWeather,
	})
}

// Businesses returns the restaurants around the referenced location.
func (r *Resolver) Businesses(ctx context.Context, ref place.LocationRef) (Result[place.Business], error) {
	loc, err := r.owner(ctx, ref)
	if err != nil {
		return Result[place.Business]{}, err
	}
	return r.businessesFor(ctx, loc)
}

func (r *Resolver) businessesFor(ctx context.Context, loc place.Location) (Result[place.Business], error) {
	return resolve(ctx, r, lookup[place.Business]{
		kind: "businesses",
		key:  cache.RecordsKey("businesses", loc.ID),
		find: func(ctx context.Context) ([]place.Business, error) {
			return r.store.FindBusinesses(ctx, loc.ID)
		},
		fetch: func(ctx context.Context) ([]place.Business, error) {
			found, err := r.providers.Businesses.Search(ctx, loc.Latitude, loc.Longitude)
			if err != nil {
				return nil, err
			}
			out := make([]place.Business, 0, len(found))
			for _, b := range found {
				out = append(out, place.NormalizeBusiness(loc.ID, b))
			}
			return out, nil
		},
		claim:  claimOwner(r, &loc, "businesses", func(rec *place.Business, id int64) { rec.LocationID = id }),
		insert: r.store.InsertBusiness,
	})
}

// Movies returns the movies recorded for the referenced location.
func (r *Resolver) Movies(ctx context.Context, ref place.LocationRef) (Result[place.Movie], error) {
	loc, err := r.owner(ctx, ref)
	if err != nil {
		return Result[place.Movie]{}, err
	}
	return r.moviesFor(ctx, loc)
}

func (r *Resolver) moviesFor(ctx context.Context, loc place.Location) (Result[place.Movie], error) {
	return resolve(ctx, r, lookup[place.Movie]{
		kind: "movies",
		key:  cache.RecordsKey("movies", loc.ID),
		find: func(ctx context.Context) ([]place.Movie, error) {
			return r.store.FindMovies(ctx, loc.ID)
		},
		fetch: func(ctx context.Context) ([]place.Movie, error) {
			found, err := r.providers.Movies.Discover(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]place.Movie, 0, len(found))
			for _, m := range found {
				out = append(out, place.NormalizeMovie(loc.ID, m))
			}
			return out, nil
		},
		claim:  claimOwner(r, &loc, "movies", func(rec *place.Movie, id int64) { rec.LocationID = id }),
		insert: r.store.InsertMovie,
	})
}
