package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/neexbeast/city-explorer/internal/place"
	"github.com/neexbeast/city-explorer/internal/resolver"
)

// OriginHeader tells the client whether a response came from the memo, the
// store or a provider.
const OriginHeader = "X-Data-Origin"

const (
	msgInternal    = "Sorry, something went wrong"
	msgWrongPlace  = "You are in the wrong place"
	msgBadData     = "data must name a location"
	msgNoSuchPlace = "location not found"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	places PlaceResolver
	log    *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(places PlaceResolver, log *slog.Logger) *Handlers {
	return &Handlers{places: places, log: log}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps a resolver error to a response. Only unexpected failures are
// logged; their detail never reaches the client.
func (h *Handlers) fail(w http.ResponseWriter, kind, data string, err error) {
	switch {
	case errors.Is(err, place.ErrInvalidRef):
		writeError(w, http.StatusBadRequest, msgBadData)
	case errors.Is(err, resolver.ErrNotFound):
		writeError(w, http.StatusNotFound, msgNoSuchPlace)
	default:
		h.log.Error("lookup failed", "kind", kind, "data", data, "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

func queryData(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("data"))
}

// GetLocation handles GET /location?data=<place name>.
func (h *Handlers) GetLocation(w http.ResponseWriter, r *http.Request) {
	query := queryData(r)
	if query == "" {
		writeError(w, http.StatusBadRequest, msgBadData)
		return
	}

	loc, origin, err := h.places.Location(r.Context(), query)
	if err != nil {
		h.fail(w, "location", query, err)
		return
	}

	w.Header().Set(OriginHeader, string(origin))
	writeJSON(w, http.StatusOK, loc)
}

// serveRecords parses the location reference in data, runs lookup and writes
// the records as a JSON array.
func serveRecords[T any](h *Handlers, kind string, lookup func(context.Context, place.LocationRef) (resolver.Result[T], error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := queryData(r)
		ref, err := place.ParseLocationRef(data)
		if err != nil {
			h.fail(w, kind, data, err)
			return
		}

		res, err := lookup(r.Context(), ref)
		if err != nil {
			h.fail(w, kind, data, err)
			return
		}

		records := res.Records
		if records == nil {
			records = []T{}
		}
		w.Header().Set(OriginHeader, string(res.Origin))
		writeJSON(w, http.StatusOK, records)
	}
}

// GetWeather handles GET /weather?data=<location ref>.
func (h *Handlers) GetWeather(w http.ResponseWriter, r *http.Request) {
	serveRecords(h, "weather", h.places.Weather)(w, r)
}

// GetBusinesses handles GET /yelp?data=<location ref>.
func (h *Handlers) GetBusinesses(w http.ResponseWriter, r *http.Request) {
	serveRecords(h, "businesses", h.places.Businesses)(w, r)
}

// GetMovies handles GET /movies?data=<location ref>.
func (h *Handlers) GetMovies(w http.ResponseWriter, r *http.Request) {
	serveRecords(h, "movies", h.places.Movies)(w, r)
}

// GetSummary handles GET /summary?data=<place name>.
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	query := queryData(r)
	if query == "" {
		writeError(w, http.StatusBadRequest, msgBadData)
		return
	}

	s, err := h.places.Summary(r.Context(), query)
	if err != nil {
		h.fail(w, "summary", query, err)
		return
	}

	writeJSON(w, http.StatusOK, s)
}

// NotFound answers every unknown route.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, msgWrongPlace)
}
