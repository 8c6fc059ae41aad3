package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"film-selector/omdb"

	"github.com/gorilla/mux"
	"github.com/umakantv/go-utils/cache"
	"github.com/umakantv/go-utils/errs"
	"go.uber.org/zap"
)

// MovieHandler serves movie search and detail lookups backed by the external
// movie database. Successful responses are cached so repeated lookups skip
// the upstream round trip.
type MovieHandler struct {
	client *omdb.Client
	cache  cache.Cache
}

// NewMovieHandler creates a new movie handler
func NewMovieHandler(client *omdb.Client, cache cache.Cache) *MovieHandler {
	return &MovieHandler{
		client: client,
		cache:  cache,
	}
}

// Search handles GET /api/movies/search?title=
func (h *MovieHandler) Search(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		logRequest(r, "error", "Missing title parameter")
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Title is required"))
		return
	}

	logRequest(r, "info", "Movie search", zap.String("title", title))

	// Try cache first
	cacheKey := "movies:search:" + strings.ToLower(title)
	if cached, err := h.cache.Get(cacheKey); err == nil {
		if body, ok := cachedBytes(cached); ok {
			logRequest(r, "debug", "Serving search from cache", zap.String("title", title))
			w.Header().Set("Content-Type", "application/json")
			w.Write(body)
			return
		}
	}

	movies, err := h.client.Search(r.Context(), title)
	if err != nil {
		writeLookupError(r, w, err)
		return
	}

	response, _ := json.Marshal(movies)
	h.cache.Set(cacheKey, response, 5*time.Minute)

	logRequest(r, "info", "Search results returned", zap.String("title", title), zap.Int("count", len(movies)))

	w.Header().Set("Content-Type", "application/json")
	w.Write(response)
}

// Details handles GET /api/movies/{externalId}
func (h *MovieHandler) Details(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	imdbID := strings.TrimSpace(mux.Vars(r)["externalId"])
	if imdbID == "" {
		logRequest(r, "error", "Missing movie ID")
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Movie ID is required"))
		return
	}

	logRequest(r, "info", "Movie details", zap.String("imdb_id", imdbID))

	cacheKey := "movies:detail:" + imdbID
	if cached, err := h.cache.Get(cacheKey); err == nil {
		if body, ok := cachedBytes(cached); ok {
			logRequest(r, "debug", "Serving details from cache", zap.String("imdb_id", imdbID))
			w.Header().Set("Content-Type", "application/json")
			w.Write(body)
			return
		}
	}

	details, err := h.client.Details(r.Context(), imdbID)
	if err != nil {
		writeLookupError(r, w, err)
		return
	}

	response, _ := json.Marshal(details)
	h.cache.Set(cacheKey, response, 10*time.Minute)

	logRequest(r, "info", "Details returned", zap.String("imdb_id", imdbID), zap.Bool("highly_rated", details.IsHighlyRated))

	w.Header().Set("Content-Type", "application/json")
	w.Write(response)
}

// cachedBytes normalizes cached values; the redis backend returns strings
// where the memory backend returns the original []byte
func cachedBytes(cached interface{}) ([]byte, bool) {
	switch v := cached.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
