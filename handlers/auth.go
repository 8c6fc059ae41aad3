package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"film-selector/auth"
	"film-selector/models"

	"github.com/jmoiron/sqlx"
	"github.com/umakantv/go-utils/errs"
	"go.uber.org/zap"
)

// AuthHandler handles login and register
// Each call is stateless given repository lookups; the only side effect is a
// single insert (register) or last-login update (login).
type AuthHandler struct {
	db     *sqlx.DB
	hasher auth.Hasher
	tokens *auth.TokenIssuer
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *sqlx.DB, hasher auth.Hasher, tokens *auth.TokenIssuer) *AuthHandler {
	return &AuthHandler{
		db:     db,
		hasher: hasher,
		tokens: tokens,
	}
}

// Login handles POST /api/auth/login
// Unknown username and wrong password produce the same 401 so the response
// does not leak which check failed.
func (h *AuthHandler) Login(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logRequest(r, "error", "Invalid login body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Invalid JSON"))
		return
	}

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		logRequest(r, "error", "Missing credentials")
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Username and password are required"))
		return
	}

	logRequest(r, "info", "Login request", zap.String("username", req.Username))

	var user models.User
	err := h.db.QueryRow("SELECT id, username, email, password_hash FROM users WHERE username = ?", req.Username).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash)
	if err == sql.ErrNoRows {
		logRequest(r, "info", "Unknown username", zap.String("username", req.Username))
		writeJSON(w, http.StatusUnauthorized, errs.NewAuthenticationError("Invalid username or password"))
		return
	}
	if err != nil {
		logRequest(r, "error", "Failed to query user", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Database error"))
		return
	}

	if !h.hasher.Verify(req.Password, user.PasswordHash) {
		logRequest(r, "info", "Password mismatch", zap.String("username", req.Username))
		writeJSON(w, http.StatusUnauthorized, errs.NewAuthenticationError("Invalid username or password"))
		return
	}

	// Best-effort; a failed timestamp write must not block the login
	if _, err := h.db.Exec("UPDATE users SET last_login_at = ? WHERE id = ?", time.Now(), user.ID); err != nil {
		logRequest(r, "error", "Failed to update last login", zap.Error(err), zap.Int("user_id", user.ID))
	}

	token, expiresAt, err := h.tokens.Issue(&user)
	if err != nil {
		logRequest(r, "error", "Failed to issue token", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Failed to issue token"))
		return
	}

	logRequest(r, "info", "Login successful", zap.Int("user_id", user.ID))

	writeJSON(w, http.StatusOK, models.AuthResponse{
		Token:     token,
		Username:  user.Username,
		Email:     user.Email,
		ExpiresAt: expiresAt,
	})
}

// Register handles POST /api/auth/register
// Username and email must both be unique; the two checks report distinct
// errors so the frontend can point at the offending field.
func (h *AuthHandler) Register(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logRequest(r, "error", "Invalid register body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Invalid JSON"))
		return
	}

	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		logRequest(r, "error", "Missing required fields")
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Username, email, and password are required"))
		return
	}

	logRequest(r, "info", "Register request", zap.String("username", req.Username))

	var exists bool
	if err := h.db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)", req.Username).Scan(&exists); err != nil {
		logRequest(r, "error", "Failed to check username", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Database error"))
		return
	}
	if exists {
		logRequest(r, "info", "Username taken", zap.String("username", req.Username))
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Username already exists"))
		return
	}

	if err := h.db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)", req.Email).Scan(&exists); err != nil {
		logRequest(r, "error", "Failed to check email", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Database error"))
		return
	}
	if exists {
		logRequest(r, "info", "Email taken", zap.String("email", req.Email))
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Email already registered"))
		return
	}

	hashed, err := h.hasher.Hash(req.Password)
	if err != nil {
		logRequest(r, "error", "Password hashing failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Failed to process password"))
		return
	}

	result, err := h.db.Exec("INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		req.Username, req.Email, hashed, time.Now())
	if err != nil {
		logRequest(r, "error", "Failed to create user", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Failed to create user"))
		return
	}

	id, err := result.LastInsertId()
	if err != nil {
		logRequest(r, "error", "Failed to read new user id", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Failed to create user"))
		return
	}

	user := models.User{
		ID:       int(id),
		Username: req.Username,
		Email:    req.Email,
	}

	token, expiresAt, err := h.tokens.Issue(&user)
	if err != nil {
		logRequest(r, "error", "Failed to issue token", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Failed to issue token"))
		return
	}

	logRequest(r, "info", "User registered", zap.Int("user_id", user.ID))

	writeJSON(w, http.StatusCreated, models.AuthResponse{
		Token:     token,
		Username:  user.Username,
		Email:     user.Email,
		ExpiresAt: expiresAt,
	})
}
