package resolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/city-explorer/internal/provider"
	"github.com/neexbeast/city-explorer/internal/resolver"
)

func TestSummary_AllSections(t *testing.T) {
	r := newResolver(emptyStore(nil), resolver.Providers{
		Geocoder: geocoderOK(),
		Weather:  threeDays(),
		Businesses: &mockSearcher{fn: func(context.Context, float64, float64) ([]provider.Business, error) {
			return []provider.Business{{Name: "Canlis", URL: "u"}}, nil
		}},
		Movies: &mockDiscoverer{fn: func(context.Context) ([]provider.Movie, error) {
			return []provider.Movie{{Title: "Heat"}}, nil
		}},
	})

	s, err := r.Summary(context.Background(), "seattle")
	require.NoError(t, err)
	assert.Equal(t, "seattle", s.Location.SearchQuery)
	assert.Len(t, s.Weather, 3)
	assert.Len(t, s.Businesses, 1)
	assert.Len(t, s.Movies, 1)
	for _, w := range s.Weather {
		assert.Equal(t, s.Location.ID, w.LocationID)
	}
}

func TestSummary_FailedSectionIsOmitted(t *testing.T) {
	r := newResolver(emptyStore(nil), resolver.Providers{
		Geocoder: geocoderOK(),
		Weather:  threeDays(),
		Businesses: &mockSearcher{fn: func(context.Context, float64, float64) ([]provider.Business, error) {
			return nil, provider.ErrUpstream
		}},
		Movies: &mockDiscoverer{fn: func(context.Context) ([]provider.Movie, error) { return nil, nil }},
	})

	s, err := r.Summary(context.Background(), "seattle")
	require.NoError(t, err)
	assert.Len(t, s.Weather, 3)
	assert.Nil(t, s.Businesses)
	assert.NotNil(t, s.Movies)
	assert.Empty(t, s.Movies)
}

func TestSummary_LocationFailureIsFatal(t *testing.T) {
	geo := &mockGeocoder{fn: func(context.Context, string) (*provider.GeocodeResult, error) { return nil, nil }}
	r := newResolver(emptyStore(nil), resolver.Providers{Geocoder: geo})

	_, err := r.Summary(context.Background(), "atlantis")
	require.ErrorIs(t, err, resolver.ErrNotFound)
}

func TestSummary_PanickingSection(t *testing.T) {
	r := newResolver(emptyStore(nil), resolver.Providers{
		Geocoder: geocoderOK(),
		Weather:  threeDays(),
		Businesses: &mockSearcher{fn: func(context.Context, float64, float64) ([]provider.Business, error) {
			panic("boom")
		}},
		Movies: &mockDiscoverer{fn: func(context.Context) ([]provider.Movie, error) { return nil, nil }},
	})

	_, err := r.Summary(context.Background(), "seattle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "businesses section panicked")
}
