// Package place holds the persisted record kinds served by city-explorer and
// the pure functions that project provider responses onto them.
package place

import "time"

// Location is a geocoded place, unique by its search query.
type Location struct {
	ID             int64     `json:"id"`
	SearchQuery    string    `json:"search_query"`
	FormattedQuery string    `json:"formatted_query"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	CreatedAt      time.Time `json:"created_at"`
}

// Weather is one forecast day for a location.
type Weather struct {
	ID         int64     `json:"id"`
	Forecast   string    `json:"forecast"`
	Time       string    `json:"time"`
	CreatedAt  time.Time `json:"created_at"`
	LocationID int64     `json:"location_id"`
}

// Business is a restaurant near a location.
type Business struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	ImageURL   string    `json:"image_url"`
	Price      string    `json:"price"`
	Rating     float64   `json:"rating"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
	LocationID int64     `json:"location_id"`
}

// Movie is a movie listed for a location.
type Movie struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Overview     string    `json:"overview"`
	AverageVotes float64   `json:"average_votes"`
	TotalVotes   int       `json:"total_votes"`
	ImageURL     string    `json:"image_url"`
	Popularity   float64   `json:"popularity"`
	ReleasedOn   string    `json:"released_on"`
	CreatedAt    time.Time `json:"created_at"`
	LocationID   int64     `json:"location_id"`
}
