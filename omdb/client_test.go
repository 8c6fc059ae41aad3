package omdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"film-selector/config"
	"film-selector/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logger "github.com/umakantv/go-utils/logger"
)

func TestMain(m *testing.M) {
	logger.Init(logger.LoggerConfig{
		CallerKey:  "file",
		TimeKey:    "timestamp",
		CallerSkip: 1,
	})
	os.Exit(m.Run())
}

const searchInceptionJSON = `{
	"Search": [
		{"Title": "Inception", "Year": "2010", "imdbID": "tt1375666", "Type": "movie", "Poster": "https://example.com/inception.jpg"}
	],
	"totalResults": "1",
	"Response": "True"
}`

const detailsInceptionJSON = `{
	"Title": "Inception", "Year": "2010", "Rated": "PG-13", "Released": "16 Jul 2010",
	"Runtime": "148 min", "Genre": "Action, Adventure, Sci-Fi", "Director": "Christopher Nolan",
	"Writer": "Christopher Nolan", "Actors": "Leonardo DiCaprio, Joseph Gordon-Levitt",
	"Plot": "A thief who steals corporate secrets.", "Language": "English", "Country": "United States",
	"Awards": "Won 4 Oscars", "Poster": "https://example.com/inception.jpg",
	"imdbRating": "8.8", "imdbVotes": "2,300,000", "imdbID": "tt1375666", "Type": "movie",
	"BoxOffice": "$292,587,330", "Response": "True"
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	upstream := httptest.NewServer(handler)
	t.Cleanup(upstream.Close)

	breaker := resilience.NewBreaker(5, 30*time.Second)
	gateway := resilience.NewGateway(resilience.Config{
		RetryCount:  0,
		BackoffBase: 0,
		Timeout:     5 * time.Second,
	}, breaker)

	client := NewClient(config.OmdbConfig{
		BaseURL: upstream.URL,
		APIKey:  "test-key",
	}, gateway)

	return client, upstream
}

func TestSearchMapsResults(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Inception", r.URL.Query().Get("s"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		w.Write([]byte(searchInceptionJSON))
	})

	movies, err := client.Search(context.Background(), "Inception")
	require.NoError(t, err)

	require.Len(t, movies, 1)
	assert.Equal(t, "tt1375666", movies[0].ImdbID)
	assert.Equal(t, "Inception", movies[0].Title)
	assert.Equal(t, "2010", movies[0].Year)
	assert.Equal(t, "movie", movies[0].Type)
}

func TestSearchNotFoundIsEmptyList(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response": "False", "Error": "Movie not found!"}`))
	})

	movies, err := client.Search(context.Background(), "zzzzzNoSuchTitle")
	require.NoError(t, err)
	assert.Empty(t, movies)
	assert.NotNil(t, movies)
}

func TestSearchUpstreamAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response": "False", "Error": "Invalid API key!"}`))
	})

	_, err := client.Search(context.Background(), "Inception")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid API key!", apiErr.Message)
}

func TestSearchMalformedPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>definitely not json</html>`))
	})

	_, err := client.Search(context.Background(), "Inception")
	assert.ErrorIs(t, err, ErrDeserialization)
}

func TestSearchUpstreamStatusError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Search(context.Background(), "Inception")
	var upstreamErr *resilience.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusUnauthorized, upstreamErr.StatusCode)
}

func TestDetailsMapping(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tt1375666", r.URL.Query().Get("i"))
		w.Write([]byte(detailsInceptionJSON))
	})

	details, err := client.Details(context.Background(), "tt1375666")
	require.NoError(t, err)

	assert.Equal(t, "tt1375666", details.ImdbID)
	assert.Equal(t, "Inception", details.Title)
	assert.Equal(t, "Christopher Nolan", details.Director)
	assert.Equal(t, "8.8", details.ImdbRating)
	assert.True(t, details.IsHighlyRated)
}

func TestDetailsHighlyRatedDerivation(t *testing.T) {
	tests := []struct {
		rating string
		want   bool
	}{
		{"8.8", true},
		{"7.5", true},
		{"6.0", false},
		{"N/A", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("rating "+tt.rating, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"imdbID": "tt0000001", "Title": "Some Movie", "imdbRating": "` + tt.rating + `", "Response": "True"}`))
			})

			details, err := client.Details(context.Background(), "tt0000001")
			require.NoError(t, err)
			assert.Equal(t, tt.want, details.IsHighlyRated)
		})
	}
}

func TestDetailsNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response": "False", "Error": "Incorrect IMDb ID."}`))
	})

	_, err := client.Details(context.Background(), "tt0000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDetailsMissingOptionalFields(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"imdbID": "tt0000002", "Title": "Sparse Movie", "Response": "True"}`))
	})

	details, err := client.Details(context.Background(), "tt0000002")
	require.NoError(t, err)

	assert.Equal(t, "Sparse Movie", details.Title)
	assert.Empty(t, details.BoxOffice)
	assert.Empty(t, details.Poster)
	assert.False(t, details.IsHighlyRated)
}
