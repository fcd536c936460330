// Package session holds the authenticated identity the client acts as and
// persists it between invocations.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dohr-michael/taskdeck/internal/api"
)

// ErrNoSession is returned when no one is logged in.
var ErrNoSession = errors.New("not logged in")

// Session is the token and user of a login against one API.
type Session struct {
	BaseURL   string    `json:"base_url"`
	Token     string    `json:"token"`
	User      api.User  `json:"user"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	CreatedAt time.Time `json:"created_at"`
}

// FromAuth builds a session from a login or register response. The token
// expiry is read from its claims without verifying the signature; the
// server remains the authority on validity.
func FromAuth(baseURL string, resp *api.AuthResponse) (*Session, error) {
	if resp == nil || resp.AccessToken == "" {
		return nil, errors.New("auth response carries no access token")
	}
	s := &Session{
		BaseURL:   baseURL,
		Token:     resp.AccessToken,
		CreatedAt: time.Now(),
	}
	if resp.User != nil {
		s.User = *resp.User
	}
	exp, err := TokenExpiry(resp.AccessToken)
	if err != nil {
		return nil, err
	}
	s.ExpiresAt = exp
	return s, nil
}

// TokenExpiry returns the exp claim of a JWT, or the zero time when the
// token has none.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("token expiry: %w", err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

// Expired reports whether the token is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Remaining is the time left before expiry; zero when unknown or expired.
func (s *Session) Remaining(now time.Time) time.Duration {
	if s.ExpiresAt.IsZero() || s.Expired(now) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}
