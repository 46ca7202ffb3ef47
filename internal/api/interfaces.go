package api

import (
	"context"

	"github.com/neexbeast/city-explorer/internal/place"
	"github.com/neexbeast/city-explorer/internal/resolver"
)

// PlaceResolver defines the lookups needed by handlers.
// *resolver.Resolver satisfies it.
type PlaceResolver interface {
	Location(ctx context.Context, query string) (place.Location, resolver.Origin, error)
	Weather(ctx context.Context, ref place.LocationRef) (resolver.Result[place.Weather], error)
	Businesses(ctx context.Context, ref place.LocationRef) (resolver.Result[place.Business], error)
	Movies(ctx context.Context, ref place.LocationRef) (resolver.Result[place.Movie], error)
	Summary(ctx context.Context, query string) (*resolver.Summary, error)
}

// Pinger is satisfied by the stores and by the Redis memo.
type Pinger interface {
	Ping(ctx context.Context) error
}
