// file: gate/auth/jwt.go

// Package auth holds the gateway's identity pipeline: token validation,
// permission checks against subject patterns, and per-connection sessions.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken wraps every validation failure. The wrapped message keeps
// the jwt library's diagnostics, which distinguish an expired token from a
// bad signature.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the validated payload of a bearer token. Immutable for the life
// of a session; missing lists default to empty.
type Claims struct {
	// Permissions the holder may exercise: publish, subscribe, request
	// (matched case-insensitively).
	Permissions []string `json:"permissions,omitempty"`
	// AllowedSubjects are NATS-style patterns the holder may touch.
	// An empty list means every subject is allowed.
	AllowedSubjects []string `json:"allowed_subjects,omitempty"`
	// DenySubjects are patterns that take precedence over AllowedSubjects.
	DenySubjects []string `json:"deny_subjects,omitempty"`

	jwt.RegisteredClaims
}

// UserID returns the token subject.
func (c *Claims) UserID() string {
	return c.Subject
}

// Validator verifies bearer tokens under a shared HS256 secret.
// Safe for concurrent use; it exposes no mutable state.
type Validator struct {
	secret []byte
}

func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// Validate checks the token's signature and expiry and returns its claims.
// Expiry is required and verified with no leeway.
func (v *Validator) Validate(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
