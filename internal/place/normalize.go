package place

import (
	"strconv"
	"time"

	"github.com/neexbeast/city-explorer/internal/provider"
)

// PosterBaseURL is prefixed to a movie's relative poster path.
const PosterBaseURL = "https://image.tmdb.org/t/p/w185"

// forecastDateLayout renders a forecast day, e.g. "Fri Jul 14 2017".
const forecastDateLayout = "Mon Jan 02 2006"

// NormalizeLocation maps a geocode match onto a Location keyed by query.
func NormalizeLocation(query string, raw provider.GeocodeResult) Location {
	return Location{
		SearchQuery:    query,
		FormattedQuery: raw.FormattedAddress,
		Latitude:       raw.Geometry.Location.Lat,
		Longitude:      raw.Geometry.Location.Lng,
	}
}

// NormalizeWeather maps one forecast day onto a Weather record. The date is
// computed in UTC so it does not depend on the host's zone.
func NormalizeWeather(locationID int64, raw provider.DailyForecast) Weather {
	return Weather{
		Forecast:   raw.Summary,
		Time:       ForecastDate(raw.Time),
		LocationID: locationID,
	}
}

// ForecastDate renders epoch seconds as a calendar date.
func ForecastDate(epochSeconds int64) string {
	return time.Unix(epochSeconds, 0).UTC().Format(forecastDateLayout)
}

// NormalizeBusiness maps one business search entry onto a Business record.
func NormalizeBusiness(locationID int64, raw provider.Business) Business {
	return Business{
		Name:       raw.Name,
		ImageURL:   raw.ImageURL,
		Price:      raw.Price,
		Rating:     raw.Rating,
		URL:        raw.URL,
		LocationID: locationID,
	}
}

// NormalizeMovie maps one discovery entry onto a Movie record.
func NormalizeMovie(locationID int64, raw provider.Movie) Movie {
	return Movie{
		Title:        raw.Title,
		Overview:     raw.Overview,
		AverageVotes: raw.VoteAverage,
		TotalVotes:   raw.VoteCount,
		ImageURL:     PosterURL(raw.PosterPath),
		Popularity:   raw.Popularity,
		ReleasedOn:   raw.ReleaseDate,
		LocationID:   locationID,
	}
}

// PosterURL returns the absolute poster URL for a relative poster path, or
// "" when the movie has no poster.
func PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return PosterBaseURL + posterPath
}

// CoordinateLocation returns a Location keyed by its own coordinates. It is
// stored like any geocoded location but never comes from the geocoder.
func CoordinateLocation(lat, lng float64) Location {
	key := CoordinateKey(lat, lng)
	return Location{
		SearchQuery:    key,
		FormattedQuery: key,
		Latitude:       lat,
		Longitude:      lng,
	}
}

// CoordinateKey is the search query used for coordinate-only locations.
func CoordinateKey(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}
