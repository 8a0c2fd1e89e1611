// Package auth verifies bearer tokens and extracts the caller identity.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "mediaconv/internal/app/errors"
)

// Claims carries the identity in the "id" claim.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("JWT secret is empty")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Identity extracts and verifies the token from an Authorization header
// value. It returns ErrNoCredential when the header is absent or not a
// bearer token, and ErrBadCredential for anything that fails verification.
func (v *Verifier) Identity(header string) (string, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return "", apperrors.ErrNoCredential
	}
	return v.Verify(token)
}

// Verify parses a raw token and returns its identity.
func (v *Verifier) Verify(raw string) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", apperrors.ErrBadCredential.WithCause(err)
	}
	if claims.ID == "" {
		return "", apperrors.ErrBadCredential.WithCause(errors.New("token has no id claim"))
	}
	return claims.ID, nil
}

// Issue signs a token for identity. A zero ttl issues a token without expiry.
func (v *Verifier) Issue(identity string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		ID: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
