package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"film-selector/auth"
	"film-selector/omdb"
	"film-selector/resilience"

	"github.com/umakantv/go-utils/errs"
	logger "github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// logRequest logs the request with the specified format
// Shared package-level function used by all handlers for structured logging
func logRequest(r *http.Request, level string, message string, fields ...zap.Field) {
	method := r.Method
	path := r.URL.Path

	// Build full message (timestamp - method - path - message)
	logMsg := time.Now().Format("2006-01-02 15:04:05") + " - " + method + " - " + path
	if message != "" {
		logMsg += " - " + message
	}

	allFields := append([]zap.Field{
		zap.String("method", method),
		zap.String("path", path),
	}, fields...)

	switch level {
	case "info":
		logger.Info(logMsg, allFields...)
	case "error":
		logger.Error(logMsg, allFields...)
	case "debug":
		logger.Debug(logMsg, allFields...)
	}
}

// bearerUserID extracts the authenticated user id from the request's bearer
// token. The routing layer already rejects unauthenticated requests for
// bearer routes; handlers parse the token themselves for the identity.
func bearerUserID(tokens *auth.TokenIssuer, r *http.Request) (int, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return 0, false
	}
	claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return 0, false
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, false
	}
	return id, true
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeUnauthenticated writes the standard 401 response
func writeUnauthenticated(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, errs.NewAuthenticationError("Not authenticated"))
}

// writeLookupError maps a movie lookup failure to an HTTP response.
// Upstream "not found" for a detail fetch is the only 404; every resilience
// taxonomy error (timeout, connection, circuit open, upstream status,
// deserialization) surfaces as 500 with a generic message.
func writeLookupError(r *http.Request, w http.ResponseWriter, err error) {
	var upstream *resilience.UpstreamError
	var apiErr *omdb.APIError

	switch {
	case errors.Is(err, omdb.ErrNotFound):
		logRequest(r, "info", "Movie not found upstream")
		writeJSON(w, http.StatusNotFound, errs.NewNotFoundError("Movie not found"))
	case errors.Is(err, resilience.ErrCircuitOpen):
		logRequest(r, "error", "Circuit open, failing fast", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Movie service temporarily unavailable"))
	case errors.Is(err, resilience.ErrTimeout):
		logRequest(r, "error", "Upstream timeout", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Movie service timed out"))
	case errors.Is(err, resilience.ErrConnection):
		logRequest(r, "error", "Upstream connection error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Could not reach movie service"))
	case errors.Is(err, omdb.ErrDeserialization):
		logRequest(r, "error", "Undecodable upstream payload", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Invalid response from movie service"))
	case errors.As(err, &upstream):
		logRequest(r, "error", "Upstream error status", zap.Int("status", upstream.StatusCode))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Movie service error"))
	case errors.As(err, &apiErr):
		logRequest(r, "error", "Upstream reported error", zap.String("message", apiErr.Message))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Movie service error"))
	default:
		logRequest(r, "error", "Unexpected lookup error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Unexpected error"))
	}
}
