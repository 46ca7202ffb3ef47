package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// ErrUpstream marks any provider failure: transport error, non-200 status or
// an undecodable body. Zero results is not a failure.
var ErrUpstream = errors.New("upstream provider failure")

const httpTimeout = 10 * time.Second

const (
	geocodeDefaultURL  = "https://maps.googleapis.com/maps/api/geocode/json"
	weatherDefaultURL  = "https://api.darksky.net/forecast"
	businessDefaultURL = "https://api.yelp.com/v3/businesses/search"
	movieDefaultURL    = "https://api.themoviedb.org/3/discover/movie"
)

// businessSearchTerm is the fixed term sent with every business search.
const businessSearchTerm = "restaurants"

// base holds what every client needs to issue one outbound call.
type base struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// Option configures a provider client.
type Option func(*base)

// WithBaseURL points the client at a different endpoint (stubs, proxies).
// An empty URL keeps the default.
func WithBaseURL(u string) Option {
	return func(b *base) {
		if u != "" {
			b.baseURL = u
		}
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(b *base) {
		if c != nil {
			b.client = c
		}
	}
}

// WithTimeout sets the timeout of the client's http.Client. The client passed
// to WithHTTPClient is copied, not modified.
func WithTimeout(d time.Duration) Option {
	return func(b *base) {
		if d > 0 {
			c := *b.client
			c.Timeout = d
			b.client = &c
		}
	}
}

// WithRateLimit caps outbound calls at perSecond with the given burst.
// A non-positive rate leaves the client unthrottled.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(b *base) {
		if perSecond <= 0 {
			b.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func newBase(defaultURL string, opts []Option) base {
	b := base{
		baseURL: defaultURL,
		client:  &http.Client{Timeout: httpTimeout},
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// doGet waits for the limiter, performs a GET request and decodes the JSON
// response into dst. name identifies the provider in errors; the URL is kept
// out of them because it carries credentials.
func (b base) doGet(ctx context.Context, name, rawURL string, header http.Header, dst any) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s rate limit wait: %w", ErrUpstream, name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", name, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := b.client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("%w: %s request: %w", ErrUpstream, name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status %d", ErrUpstream, name, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decoding %s response: %w", ErrUpstream, name, err)
	}

	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ---- Geocoding ----

// GeocodeClient resolves free-text places through the Google Geocoding API.
type GeocodeClient struct {
	base
	apiKey string
}

// NewGeocodeClient constructs a GeocodeClient with the given API key.
func NewGeocodeClient(apiKey string, opts ...Option) *GeocodeClient {
	return &GeocodeClient{base: newBase(geocodeDefaultURL, opts), apiKey: apiKey}
}

// Geocode returns the provider's best match for query, or nil when the
// provider found nothing.
func (c *GeocodeClient) Geocode(ctx context.Context, query string) (*GeocodeResult, error) {
	params := url.Values{}
	params.Set("address", query)
	params.Set("key", c.apiKey)

	var raw geocodeResponse
	if err := c.doGet(ctx, "geocode", c.baseURL+"?"+params.Encode(), nil, &raw); err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", query, err)
	}

	switch raw.Status {
	case "OK":
		if len(raw.Results) == 0 {
			return nil, nil
		}
		return &raw.Results[0], nil
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: geocoding %q: status %q: %s", ErrUpstream, query, raw.Status, raw.ErrorMessage)
	}
}

// ---- Weather ----

// WeatherClient fetches daily forecasts from a Dark Sky compatible API.
type WeatherClient struct {
	base
	apiKey string
}

// NewWeatherClient constructs a WeatherClient with the given API key.
func NewWeatherClient(apiKey string, opts ...Option) *WeatherClient {
	return &WeatherClient{base: newBase(weatherDefaultURL, opts), apiKey: apiKey}
}

// Forecast returns the daily forecasts for the coordinates in provider order.
func (c *WeatherClient) Forecast(ctx context.Context, lat, lng float64) ([]DailyForecast, error) {
	endpoint := fmt.Sprintf("%s/%s/%s,%s", c.baseURL, url.PathEscape(c.apiKey), formatCoord(lat), formatCoord(lng))

	var raw forecastResponse
	if err := c.doGet(ctx, "weather", endpoint, nil, &raw); err != nil {
		return nil, fmt.Errorf("forecast for %s,%s: %w", formatCoord(lat), formatCoord(lng), err)
	}
	if raw.Daily == nil {
		return nil, fmt.Errorf("%w: forecast response has no daily block", ErrUpstream)
	}

	days := make([]DailyForecast, 0, len(raw.Daily.Data))
	days = append(days, raw.Daily.Data...)
	return days, nil
}

// ---- Business search ----

// BusinessClient searches restaurants through the Yelp Fusion API.
type BusinessClient struct {
	base
	token string
}

// NewBusinessClient constructs a BusinessClient with the given bearer token.
func NewBusinessClient(token string, opts ...Option) *BusinessClient {
	return &BusinessClient{base: newBase(businessDefaultURL, opts), token: token}
}

// Search returns the restaurants around the coordinates.
func (c *BusinessClient) Search(ctx context.Context, lat, lng float64) ([]Business, error) {
	params := url.Values{}
	params.Set("term", businessSearchTerm)
	params.Set("latitude", formatCoord(lat))
	params.Set("longitude", formatCoord(lng))

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)

	var raw businessSearchResponse
	if err := c.doGet(ctx, "business search", c.baseURL+"?"+params.Encode(), header, &raw); err != nil {
		return nil, fmt.Errorf("business search at %s,%s: %w", formatCoord(lat), formatCoord(lng), err)
	}
	if raw.Businesses == nil {
		return nil, fmt.Errorf("%w: business search response has no businesses list", ErrUpstream)
	}

	businesses := make([]Business, 0, len(*raw.Businesses))
	businesses = append(businesses, *raw.Businesses...)
	return businesses, nil
}

// ---- Movies ----

// MovieClient lists movies through the TMDB discovery API.
type MovieClient struct {
	base
	apiKey string
}

// NewMovieClient constructs a MovieClient with the given API key.
func NewMovieClient(apiKey string, opts ...Option) *MovieClient {
	return &MovieClient{base: newBase(movieDefaultURL, opts), apiKey: apiKey}
}

// Discover returns the provider's default discovery listing.
func (c *MovieClient) Discover(ctx context.Context) ([]Movie, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)

	var raw movieDiscoverResponse
	if err := c.doGet(ctx, "movie discover", c.baseURL+"?"+params.Encode(), nil, &raw); err != nil {
		return nil, fmt.Errorf("discovering movies: %w", err)
	}
	if raw.Results == nil {
		return nil, fmt.Errorf("%w: movie discover response has no results list", ErrUpstream)
	}

	movies := make([]Movie, 0, len(*raw.Results))
	movies = append(movies, *raw.Results...)
	return movies, nil
}
