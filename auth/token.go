package auth

import (
	"errors"
	"strconv"
	"time"

	"film-selector/config"
	"film-selector/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when a token fails signature, issuer or
	// audience validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token lifetime has elapsed.
	ErrExpiredToken = errors.New("token has expired")
)

// Claims is the signed claim set carried by issued bearer tokens
// unique_name mirrors the sub/unique_name/email/jti shape the frontend expects
type Claims struct {
	Username string `json:"unique_name"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer creates and validates HMAC-SHA256 signed bearer tokens.
// Tokens are stateless; there is no refresh flow or revocation list.
type TokenIssuer struct {
	cfg config.JWTConfig
}

// NewTokenIssuer creates a token issuer from JWT configuration
func NewTokenIssuer(cfg config.JWTConfig) *TokenIssuer {
	return &TokenIssuer{cfg: cfg}
}

// Issue signs a fresh token for the user and returns it with its expiry
func (t *TokenIssuer) Issue(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(t.cfg.TTL)

	claims := Claims{
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			ID:        uuid.New().String(),
			Issuer:    t.cfg.Issuer,
			Audience:  jwt.ClaimStrings{t.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(t.cfg.Key))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify validates signature, issuer, audience and lifetime, and returns the
// decoded claims.
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(t.cfg.Key), nil
	}, jwt.WithIssuer(t.cfg.Issuer), jwt.WithAudience(t.cfg.Audience), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// UserID parses the numeric user id out of the subject claim
func (c *Claims) UserID() (int, error) {
	return strconv.Atoi(c.Subject)
}
