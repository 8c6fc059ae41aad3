package models

import "time"

// Favorite represents a movie saved to a user's list
// (user_id, imdb_id) is unique: a user cannot favorite the same title twice
type Favorite struct {
	ID         int        `json:"id" db:"id"`
	UserID     int        `json:"user_id" db:"user_id"`
	MovieTitle string     `json:"movie_title" db:"movie_title"`
	ImdbID     string     `json:"imdb_id" db:"imdb_id"`
	Year       string     `json:"year" db:"year"`
	Type       string     `json:"type" db:"type"` // movie, series, episode
	Poster     *string    `json:"poster,omitempty" db:"poster"`
	Notes      *string    `json:"notes,omitempty" db:"notes"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// CreateFavoriteRequest for POST /api/favorites
// Year/type/poster/imdbId are fixed at creation time
type CreateFavoriteRequest struct {
	MovieTitle string  `json:"movieTitle"`
	ImdbID     string  `json:"imdbId"`
	Year       string  `json:"year"`
	Type       string  `json:"type"`
	Poster     *string `json:"poster,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// UpdateFavoriteRequest for PUT /api/favorites/{id}
// Only title and notes are mutable after creation
type UpdateFavoriteRequest struct {
	MovieTitle string  `json:"movieTitle"`
	Notes      *string `json:"notes,omitempty"`
}

// FavoriteResponse is the API shape for a favorite (camelCase, matches frontend)
type FavoriteResponse struct {
	ID         int        `json:"id"`
	MovieTitle string     `json:"movieTitle"`
	ImdbID     string     `json:"imdbId"`
	Year       string     `json:"year"`
	Type       string     `json:"type"`
	Poster     *string    `json:"poster,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// ToResponse maps a stored favorite to its API shape
func (f *Favorite) ToResponse() FavoriteResponse {
	return FavoriteResponse{
		ID:         f.ID,
		MovieTitle: f.MovieTitle,
		ImdbID:     f.ImdbID,
		Year:       f.Year,
		Type:       f.Type,
		Poster:     f.Poster,
		Notes:      f.Notes,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}
