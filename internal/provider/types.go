package provider

// GeocodeResult is a single address match from the geocoding API.
type GeocodeResult struct {
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// DailyForecast is one day of the weather API's daily block.
type DailyForecast struct {
	Summary string `json:"summary"`
	Time    int64  `json:"time"`
}

// Business is one entry of a business search.
type Business struct {
	Name     string  `json:"name"`
	ImageURL string  `json:"image_url"`
	Price    string  `json:"price"`
	Rating   float64 `json:"rating"`
	URL      string  `json:"url"`
}

// Movie is one entry of a movie discovery listing.
type Movie struct {
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	PosterPath  string  `json:"poster_path"`
	Popularity  float64 `json:"popularity"`
	ReleaseDate string  `json:"release_date"`
}

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Results      []GeocodeResult `json:"results"`
}

// The list fields below are pointers so that a body missing the list can be
// told apart from an empty one.

type forecastResponse struct {
	Daily *struct {
		Data []DailyForecast `json:"data"`
	} `json:"daily"`
}

type businessSearchResponse struct {
	Businesses *[]Business `json:"businesses"`
}

type movieDiscoverResponse struct {
	Results *[]Movie `json:"results"`
}
