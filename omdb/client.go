// Package omdb implements the client for the Open Movie Database API.
// All calls go through the resilience gateway; mapping from the external wire
// shape to the internal domain shape is pure.
package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"film-selector/config"
	"film-selector/models"
	"film-selector/resilience"

	logger "github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned by Details when the upstream reports an
	// unknown IMDb id.
	ErrNotFound = errors.New("movie not found")
	// ErrDeserialization is returned for malformed upstream payloads.
	ErrDeserialization = errors.New("could not decode upstream response")
)

// APIError is an error the upstream reported in a well-formed payload
// (Response == "False"), other than "not found".
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return "upstream error: " + e.Message
}

// Client looks up movie data on the external movie database
type Client struct {
	gateway *resilience.Gateway
	baseURL string
	apiKey  string
}

// NewClient creates a client for the configured OMDb endpoint
func NewClient(cfg config.OmdbConfig, gateway *resilience.Gateway) *Client {
	return &Client{
		gateway: gateway,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

// searchResponse is the wire shape of ?s= responses
type searchResponse struct {
	Search       []searchResult `json:"Search"`
	TotalResults string         `json:"totalResults"`
	Response     string         `json:"Response"`
	Error        string         `json:"Error"`
}

type searchResult struct {
	ImdbID string `json:"imdbID"`
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

// detailsResponse is the wire shape of ?i= responses
type detailsResponse struct {
	ImdbID     string `json:"imdbID"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Writer     string `json:"Writer"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Language   string `json:"Language"`
	Country    string `json:"Country"`
	Awards     string `json:"Awards"`
	Poster     string `json:"Poster"`
	ImdbRating string `json:"imdbRating"`
	ImdbVotes  string `json:"imdbVotes"`
	Type       string `json:"Type"`
	BoxOffice  string `json:"BoxOffice"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// Search queries the upstream by title. A well-formed "not found" reply from
// the upstream is a valid empty result, not an error.
func (c *Client) Search(ctx context.Context, title string) ([]models.Movie, error) {
	logger.Info("Searching movies", zap.String("title", title))

	body, err := c.get(ctx, url.Values{"s": {title}})
	if err != nil {
		return nil, err
	}

	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		logger.Error("Failed to decode search response", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}

	if payload.Response == "False" {
		if strings.Contains(strings.ToLower(payload.Error), "not found") {
			return []models.Movie{}, nil
		}
		logger.Error("Upstream reported search error", zap.String("error", payload.Error))
		return nil, &APIError{Message: payload.Error}
	}

	movies := make([]models.Movie, 0, len(payload.Search))
	for _, r := range payload.Search {
		movies = append(movies, models.Movie{
			ImdbID: r.ImdbID,
			Title:  r.Title,
			Year:   r.Year,
			Type:   r.Type,
			Poster: r.Poster,
		})
	}

	logger.Info("Search completed", zap.String("title", title), zap.Int("count", len(movies)))
	return movies, nil
}

// Details fetches the full payload for an IMDb id and maps it, deriving
// IsHighlyRated at mapping time.
func (c *Client) Details(ctx context.Context, imdbID string) (*models.MovieDetails, error) {
	logger.Info("Fetching movie details", zap.String("imdb_id", imdbID))

	body, err := c.get(ctx, url.Values{"i": {imdbID}})
	if err != nil {
		return nil, err
	}

	var payload detailsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		logger.Error("Failed to decode details response", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}

	if payload.Response == "False" {
		if strings.Contains(strings.ToLower(payload.Error), "not found") ||
			strings.Contains(strings.ToLower(payload.Error), "incorrect imdb id") {
			return nil, ErrNotFound
		}
		logger.Error("Upstream reported details error", zap.String("error", payload.Error))
		return nil, &APIError{Message: payload.Error}
	}

	details := &models.MovieDetails{
		ImdbID:        payload.ImdbID,
		Title:         payload.Title,
		Year:          payload.Year,
		Rated:         payload.Rated,
		Released:      payload.Released,
		Runtime:       payload.Runtime,
		Genre:         payload.Genre,
		Director:      payload.Director,
		Writer:        payload.Writer,
		Actors:        payload.Actors,
		Plot:          payload.Plot,
		Language:      payload.Language,
		Country:       payload.Country,
		Awards:        payload.Awards,
		Poster:        payload.Poster,
		ImdbRating:    payload.ImdbRating,
		ImdbVotes:     payload.ImdbVotes,
		Type:          payload.Type,
		BoxOffice:     payload.BoxOffice,
		IsHighlyRated: models.HighlyRated(payload.ImdbRating),
	}

	return details, nil
}

// get performs one resilient GET against the upstream and reads the body
func (c *Client) get(ctx context.Context, query url.Values) ([]byte, error) {
	query.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.gateway.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", resilience.ErrConnection, err)
	}
	return body, nil
}
