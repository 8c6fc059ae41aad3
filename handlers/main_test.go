package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"film-selector/auth"
	"film-selector/config"
	"film-selector/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
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

const testSchema = `
CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_login_at TIMESTAMP
);
CREATE TABLE favorites (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    movie_title TEXT NOT NULL,
    imdb_id TEXT NOT NULL,
    year TEXT NOT NULL,
    type TEXT NOT NULL,
    poster TEXT,
    notes TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    UNIQUE (user_id, imdb_id)
);
`

// newTestDB opens a fresh in-memory database with the service schema
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	return db
}

func testTokenIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer(config.JWTConfig{
		Key:      "test-signing-key",
		Issuer:   "FilmSelectorApi",
		Audience: "FilmSelectorClient",
		TTL:      24 * time.Hour,
	})
}

// registerUser creates a user through the register handler and returns the
// auth response for follow-up requests
func registerUser(t *testing.T, h *AuthHandler, username, email, password string) models.AuthResponse {
	t.Helper()

	body := `{"username": "` + username + `", "email": "` + email + `", "password": "` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(context.Background(), rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// doJSON runs a handler with an optional bearer token and JSON body
func doJSON(handler func(context.Context, http.ResponseWriter, *http.Request), method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler(context.Background(), rec, req)
	return rec
}
