package server

import (
	"context"
	"net/http"
	"os"
	"strings"

	"film-selector/auth"
	cachepackage "film-selector/cache"
	"film-selector/config"
	"film-selector/database"
	"film-selector/handlers"
	"film-selector/omdb"
	"film-selector/resilience"

	"github.com/umakantv/go-utils/httpserver"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// checkAuth validates the bearer JWT and exposes the user identity to
// handlers through the request auth claims
func checkAuth(tokens *auth.TokenIssuer) func(r *http.Request) (bool, httpserver.RequestAuth) {
	return func(r *http.Request) (bool, httpserver.RequestAuth) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return false, httpserver.RequestAuth{}
		}

		claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return false, httpserver.RequestAuth{}
		}

		userID, err := claims.UserID()
		if err != nil {
			return false, httpserver.RequestAuth{}
		}

		return true, httpserver.RequestAuth{
			Type:   "bearer",
			Client: claims.Username,
			Claims: map[string]interface{}{
				"user_id":  userID,
				"username": claims.Username,
				"email":    claims.Email,
			},
		}
	}
}

func StartServer() {
	// Initialize logger
	logger.Init(logger.LoggerConfig{
		CallerKey:  "file",
		TimeKey:    "timestamp",
		CallerSkip: 1,
	})

	logger.Info("Starting Film Selector...")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration", zap.Error(err))
		os.Exit(1)
	}
	if cfg.Omdb.APIKey == "" {
		logger.Error("OMDB_API_KEY is not set; movie lookups will be rejected upstream")
	}

	// Initialize database
	dbConn := database.InitializeDatabase(cfg.DatabasePath)
	defer dbConn.Close()

	// Initialize cache
	cache := cachepackage.InitializeCache(cfg.CacheType, cfg.RedisAddr)
	defer cache.Close()

	// Outbound movie API: one shared breaker per upstream target
	breaker := resilience.NewBreaker(cfg.Breaker.FailureThreshold, cfg.Breaker.Cooldown)
	gateway := resilience.NewGateway(resilience.Config{
		RetryCount:  cfg.Omdb.RetryCount,
		BackoffBase: cfg.Omdb.BackoffBase,
		Timeout:     cfg.Omdb.Timeout,
	}, breaker)
	movieClient := omdb.NewClient(cfg.Omdb, gateway)

	// Initialize handlers
	tokens := auth.NewTokenIssuer(cfg.JWT)
	hasher := auth.NewHasher(cfg.PasswordHasher)
	authHandler := handlers.NewAuthHandler(dbConn, hasher, tokens)
	favoriteHandler := handlers.NewFavoriteHandler(dbConn, tokens)
	movieHandler := handlers.NewMovieHandler(movieClient, cache)

	// Create HTTP server with authentication
	server := httpserver.New(cfg.Port, checkAuth(tokens))

	// Register routes
	server.Register(httpserver.Route{
		Name:     "HealthCheck",
		Method:   "GET",
		Path:     "/health",
		AuthType: "none",
	}, httpserver.HandlerFunc(func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "film-selector"}`))
	}))

	server.Register(httpserver.Route{
		Name:     "Login",
		Method:   "POST",
		Path:     "/api/auth/login",
		AuthType: "none",
	}, httpserver.HandlerFunc(authHandler.Login))

	server.Register(httpserver.Route{
		Name:     "Register",
		Method:   "POST",
		Path:     "/api/auth/register",
		AuthType: "none",
	}, httpserver.HandlerFunc(authHandler.Register))

	server.Register(httpserver.Route{
		Name:     "ListFavorites",
		Method:   "GET",
		Path:     "/api/favorites",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(favoriteHandler.List))

	server.Register(httpserver.Route{
		Name:     "GetFavorite",
		Method:   "GET",
		Path:     "/api/favorites/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(favoriteHandler.Get))

	server.Register(httpserver.Route{
		Name:     "CreateFavorite",
		Method:   "POST",
		Path:     "/api/favorites",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(favoriteHandler.Create))

	server.Register(httpserver.Route{
		Name:     "UpdateFavorite",
		Method:   "PUT",
		Path:     "/api/favorites/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(favoriteHandler.Update))

	server.Register(httpserver.Route{
		Name:     "DeleteFavorite",
		Method:   "DELETE",
		Path:     "/api/favorites/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(favoriteHandler.Delete))

	server.Register(httpserver.Route{
		Name:     "SearchMovies",
		Method:   "GET",
		Path:     "/api/movies/search",
		AuthType: "none",
	}, httpserver.HandlerFunc(movieHandler.Search))

	server.Register(httpserver.Route{
		Name:     "GetMovieDetails",
		Method:   "GET",
		Path:     "/api/movies/{externalId}",
		AuthType: "none",
	}, httpserver.HandlerFunc(movieHandler.Details))

	logger.Info("Film Selector started on port " + cfg.Port)
	logger.Info("Health check: GET /health")
	logger.Info("API endpoints: /api/auth, /api/favorites, /api/movies")

	// Start server
	if err := server.Start(); err != nil {
		logger.Error("Server failed to start", zap.Error(err))
		os.Exit(1)
	}
}
