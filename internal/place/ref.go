package place

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRef is returned when a request does not describe a location.
var ErrInvalidRef = errors.New("invalid location reference")

// LocationRef is how a client names the location that owns weather, business
// and movie records. Resolution prefers ID, then SearchQuery, then the
// coordinates.
type LocationRef struct {
	ID          int64    `json:"id"`
	SearchQuery string   `json:"search_query"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (r LocationRef) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// ParseLocationRef reads the request's data parameter. A JSON object is
// decoded as a LocationRef (a full Location decodes too); anything else is
// taken as a free-text place name.
func ParseLocationRef(data string) (LocationRef, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return LocationRef{}, fmt.Errorf("%w: empty", ErrInvalidRef)
	}

	if !strings.HasPrefix(data, "{") {
		return LocationRef{SearchQuery: data}, nil
	}

	var ref LocationRef
	if err := json.Unmarshal([]byte(data), &ref); err != nil {
		return LocationRef{}, fmt.Errorf("%w: %v", ErrInvalidRef, err)
	}
	ref.SearchQuery = strings.TrimSpace(ref.SearchQuery)

	if ref.ID <= 0 && ref.SearchQuery == "" && !ref.HasCoordinates() {
		return LocationRef{}, fmt.Errorf("%w: needs id, search_query or latitude and longitude", ErrInvalidRef)
	}

	return ref, nil
}
