package auth

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// Hasher is the pluggable password hashing contract
// Implementations must keep Verify consistent with their own Hash output
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// SHA256Hasher hashes passwords as base64(sha256(password))
// Deterministic and unsalted; kept for compatibility with existing stored
// digests. New deployments should prefer BcryptHasher (PASSWORD_HASHER=bcrypt).
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

func (h SHA256Hasher) Verify(password, digest string) bool {
	computed, _ := h.Hash(password)
	return computed == digest
}

// BcryptHasher hashes passwords with bcrypt (salted, deliberately slow)
// Not interchangeable with SHA256Hasher digests; switching hashers for an
// existing database requires a migration of stored hashes.
type BcryptHasher struct{}

func (BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (BcryptHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// NewHasher selects a hasher by name; unknown names fall back to sha256
func NewHasher(name string) Hasher {
	if name == "bcrypt" {
		return BcryptHasher{}
	}
	return SHA256Hasher{}
}
