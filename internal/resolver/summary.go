package resolver

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/city-explorer/internal/place"
)

// Summary is everything known about one location. A section that could not
// be resolved is nil.
type Summary struct {
	Location   place.Location   `json:"location"`
	Weather    []place.Weather  `json:"weather"`
	Businesses []place.Business `json:"businesses"`
	Movies     []place.Movie    `json:"movies"`
}

// Summary resolves the location named by query and then its weather,
// businesses and movies in parallel. A failed location lookup or a
// panicking section is an error. Other section failures are logged and leave
// the section nil.
func (r *Resolver) Summary(ctx context.Context, query string) (*Summary, error) {
	loc, _, err := r.Location(ctx, query)
	if err != nil {
		return nil, err
	}
	if loc.ID == 0 {
		return nil, fmt.Errorf("%w: location %q is not persisted", ErrStore, query)
	}

	out := &Summary{Location: loc}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		defer r.recoverSection("weather", &err)
		res, lookupErr := r.weatherFor(gCtx, loc)
		if lookupErr != nil {
			r.log.Warn("summary section failed", "kind", "weather", "key", query, "err", lookupErr)
			return nil
		}
		out.Weather = res.Records
		return nil
	})

	g.Go(func() (err error) {
		defer r.recoverSection("businesses", &err)
		res, lookupErr := r.businessesFor(gCtx, loc)
		if lookupErr != nil {
			r.log.Warn("summary section failed", "kind", "businesses", "key", query, "err", lookupErr)
			return nil
		}
		out.Businesses = res.Records
		return nil
	})

	g.Go(func() (err error) {
		defer r.recoverSection("movies", &err)
		res, lookupErr := r.moviesFor(gCtx, loc)
		if lookupErr != nil {
			r.log.Warn("summary section failed", "kind", "movies", "key", query, "err", lookupErr)
			return nil
		}
		out.Movies = res.Records
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("summarizing %q: %w", query, err)
	}

	return out, nil
}

func (r *Resolver) recoverSection(kind string, err *error) {
	if rec := recover(); rec != nil {
		r.log.Error("summary section panicked", "kind", kind, "recover", rec)
		*err = fmt.Errorf("%s section panicked: %v", kind, rec)
	}
}
