package client

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoToken is returned by authenticated calls made before sign-up.
	ErrNoToken = errors.New("client: no token, sign up first")
	// ErrTokenExpired is returned when the token's exp claim has passed.
	ErrTokenExpired = errors.New("client: token expired, sign up again")
)

// TokenInfo holds the claims the client reads from a token. The signature
// is not verified; only the server can do that.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time // zero if the token has no exp claim
}

// InspectToken decodes the claims of a JWT without verifying it.
func InspectToken(token string) (*TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	info := &TokenInfo{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}

// checkToken rejects a missing or locally expired token. Tokens that are
// not JWTs are passed through for the server to judge.
func checkToken(token string, now time.Time) error {
	if token == "" {
		return ErrNoToken
	}
	info, err := InspectToken(token)
	if err != nil {
		return nil
	}
	if !info.ExpiresAt.IsZero() && !now.Before(info.ExpiresAt) {
		return ErrTokenExpired
	}
	return nil
}
