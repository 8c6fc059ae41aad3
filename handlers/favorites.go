package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"film-selector/auth"
	"film-selector/models"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/umakantv/go-utils/errs"
	"go.uber.org/zap"
)

// FavoriteHandler handles CRUD over a user's favorite movies
// Ownership is folded into every lookup (id AND user_id) so records owned by
// other users are indistinguishable from missing ones.
type FavoriteHandler struct {
	db     *sqlx.DB
	tokens *auth.TokenIssuer
}

// NewFavoriteHandler creates a new favorites handler
func NewFavoriteHandler(db *sqlx.DB, tokens *auth.TokenIssuer) *FavoriteHandler {
	return &FavoriteHandler{db: db, tokens: tokens}
}

// List handles GET /api/favorites - newest created first
func (h *FavoriteHandler) List(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	userID, ok := bearerUserID(h.tokens, r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	logRequest(r, "info", "Listing favorites", zap.Int("user_id", userID))

	rows, err := h.db.Query(
		"SELECT id, user_id, movie_title, imdb_id, year, type, poster, notes, created_at, updated_at FROM favorites WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		logRequest(r, "error", "Failed to query favorites", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Database error"))
		return
	}
	defer rows.Close()

	favorites := []models.FavoriteResponse{}
	for rows.Next() {
		var f models.Favorite
		err := rows.Scan(&f.ID, &f.UserID, &f.MovieTitle, &f.ImdbID, &f.Year, &f.Type, &f.Poster, &f.Notes, &f.CreatedAt, &f.UpdatedAt)
		if err != nil {
			logRequest(r, "error", "Failed to scan favorite", zap.Error(err))
			continue
		}
		favorites = append(favorites, f.ToResponse())
	}

	logRequest(r, "info", "Favorites retrieved", zap.Int("user_id", userID), zap.Int("count", len(favorites)))
	writeJSON(w, http.StatusOK, favorites)
}

// Get handles GET /api/favorites/{id}
func (h *FavoriteHandler) Get(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	userID, ok := bearerUserID(h.tokens, r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	id, err := favoriteID(r)
	if err != nil {
		logRequest(r, "error", "Invalid favorite ID")
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Invalid favorite ID"))
		return
	}

	favorite, err := h.lookup(id, userID)
	if err == sql.ErrNoRows {
		logRequest(r, "info", "Favorite not found", zap.Int("favorite_id", id), zap.Int("user_id", userID))
		writeJSON(w, http.StatusNotFound, errs.NewNotFoundError("Favorite not found"))
		return
	}
	if err != nil {
		logRequest(r, "error", "Failed to query favorite", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Database error"))
		return
	}

	writeJSON(w, http.StatusOK, favorite.ToResponse())
}

// Create handles POST /api/favorites
// The duplicate check is repeated by the unique (user_id, imdb_id) index, so
// concurrent duplicate submissions lose there and report the same error.
func (h *FavoriteHandler) Create(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	userID, ok := bearerUserID(h.tokens, r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var req models.CreateFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logRequest(r, "error", "Invalid request body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Invalid JSON"))
		return
	}

	if strings.TrimSpace(req.MovieTitle) == "" || strings.TrimSpace(req.ImdbID) == "" ||
		strings.TrimSpace(req.Year) == "" || strings.TrimSpace(req.Type) == "" {
		logRequest(r, "error", "Missing required fields")
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Movie title, IMDb ID, year, and type are required"))
		return
	}

	logRequest(r, "info", "Adding favorite", zap.Int("user_id", userID), zap.String("imdb_id", req.ImdbID))

	var exists bool
	if err := h.db.QueryRow("SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = ? AND imdb_id = ?)", userID, req.ImdbID).Scan(&exists); err != nil {
		logRequest(r, "error", "Failed to check for duplicate", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Database error"))
		return
	}
	if exists {
		logRequest(r, "info", "Duplicate favorite", zap.Int("user_id", userID), zap.String("imdb_id", req.ImdbID))
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("This movie is already in your favorites"))
		return
	}

	now := time.Now()
	result, err := h.db.Exec(
		"INSERT INTO favorites (user_id, movie_title, imdb_id, year, type, poster, notes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		userID, req.MovieTitle, req.ImdbID, req.Year, req.Type, req.Poster, req.Notes, now)
	if err != nil {
		// Concurrent duplicate submissions land on the unique index
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			logRequest(r, "info", "Duplicate favorite (constraint)", zap.Int("user_id", userID), zap.String("imdb_id", req.ImdbID))
			writeJSON(w, http.StatusBadRequest, errs.NewValidationError("This movie is already in your favorites"))
			return
		}
		logRequest(r, "error", "Failed to create favorite", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Failed to create favorite"))
		return
	}

	id, _ := result.LastInsertId()
	favorite := models.Favorite{
		ID:         int(id),
		UserID:     userID,
		MovieTitle: req.MovieTitle,
		ImdbID:     req.ImdbID,
		Year:       req.Year,
		Type:       req.Type,
		Poster:     req.Poster,
		Notes:      req.Notes,
		CreatedAt:  now,
	}

	logRequest(r, "info", "Favorite created", zap.Int("favorite_id", favorite.ID), zap.Int("user_id", userID))
	writeJSON(w, http.StatusCreated, favorite.ToResponse())
}

// Update handles PUT /api/favorites/{id}
// Only title and notes are mutable; year/type/poster/imdb_id stay as created
func (h *FavoriteHandler) Update(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	userID, ok := bearerUserID(h.tokens, r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	id, err := favoriteID(r)
	if err != nil {
		logRequest(r, "error", "Invalid favorite ID")
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Invalid favorite ID"))
		return
	}

	var req models.UpdateFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logRequest(r, "error", "Invalid request body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Invalid JSON"))
		return
	}

	if strings.TrimSpace(req.MovieTitle) == "" {
		logRequest(r, "error", "Missing movie title")
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Movie title is required"))
		return
	}

	favorite, err := h.lookup(id, userID)
	if err == sql.ErrNoRows {
		logRequest(r, "info", "Favorite not found", zap.Int("favorite_id", id), zap.Int("user_id", userID))
		writeJSON(w, http.StatusNotFound, errs.NewNotFoundError("Favorite not found"))
		return
	}
	if err != nil {
		logRequest(r, "error", "Failed to query favorite", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Database error"))
		return
	}

	now := time.Now()
	if _, err := h.db.Exec("UPDATE favorites SET movie_title = ?, notes = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		req.MovieTitle, req.Notes, now, id, userID); err != nil {
		logRequest(r, "error", "Failed to update favorite", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Failed to update favorite"))
		return
	}

	favorite.MovieTitle = req.MovieTitle
	favorite.Notes = req.Notes
	favorite.UpdatedAt = &now

	logRequest(r, "info", "Favorite updated", zap.Int("favorite_id", id), zap.Int("user_id", userID))
	writeJSON(w, http.StatusOK, favorite.ToResponse())
}

// Delete handles DELETE /api/favorites/{id}
func (h *FavoriteHandler) Delete(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	userID, ok := bearerUserID(h.tokens, r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	id, err := favoriteID(r)
	if err != nil {
		logRequest(r, "error", "Invalid favorite ID")
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Invalid favorite ID"))
		return
	}

	result, err := h.db.Exec("DELETE FROM favorites WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		logRequest(r, "error", "Failed to delete favorite", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Failed to delete favorite"))
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		logRequest(r, "info", "Favorite not found", zap.Int("favorite_id", id), zap.Int("user_id", userID))
		writeJSON(w, http.StatusNotFound, errs.NewNotFoundError("Favorite not found"))
		return
	}

	logRequest(r, "info", "Favorite deleted", zap.Int("favorite_id", id), zap.Int("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}

// lookup fetches one favorite scoped to its owner
func (h *FavoriteHandler) lookup(id, userID int) (*models.Favorite, error) {
	var f models.Favorite
	err := h.db.QueryRow(
		"SELECT id, user_id, movie_title, imdb_id, year, type, poster, notes, created_at, updated_at FROM favorites WHERE id = ? AND user_id = ?",
		id, userID).
		Scan(&f.ID, &f.UserID, &f.MovieTitle, &f.ImdbID, &f.Year, &f.Type, &f.Poster, &f.Notes, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// favoriteID parses the {id} path variable
func favoriteID(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["id"])
}
