package models

import "strconv"

// Movie is a single search result mapped from the external movie database
// Transient: never persisted, only returned from /api/movies/search
type Movie struct {
	ImdbID string `json:"imdbId"`
	Title  string `json:"title"`
	Year   string `json:"year"`
	Type   string `json:"type"` // movie, series, episode
	Poster string `json:"poster"`
}

// MovieDetails is the full detail payload for a single title
// IsHighlyRated is derived at mapping time from ImdbRating (>= 7.5)
type MovieDetails struct {
	ImdbID        string `json:"imdbId"`
	Title         string `json:"title"`
	Year          string `json:"year"`
	Rated         string `json:"rated"`
	Released      string `json:"released"`
	Runtime       string `json:"runtime"`
	Genre         string `json:"genre"`
	Director      string `json:"director"`
	Writer        string `json:"writer"`
	Actors        string `json:"actors"`
	Plot          string `json:"plot"`
	Language      string `json:"language"`
	Country       string `json:"country"`
	Awards        string `json:"awards"`
	Poster        string `json:"poster"`
	ImdbRating    string `json:"imdbRating"`
	ImdbVotes     string `json:"imdbVotes"`
	Type          string `json:"type"`
	BoxOffice     string `json:"boxOffice,omitempty"`
	IsHighlyRated bool   `json:"isHighlyRated"`
}

// HighlyRated reports whether a raw rating string (e.g. "8.8", "N/A")
// parses to a numeric value of at least 7.5. Unparseable ratings are false.
func HighlyRated(rating string) bool {
	v, err := strconv.ParseFloat(rating, 64)
	return err == nil && v >= 7.5
}
