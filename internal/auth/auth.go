// Package auth resolves bearer tokens to users.
package auth

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrMissingToken 表示请求没有携带 Authorization 头。
	ErrMissingToken = errors.New("missing authorization")
	// ErrUnauthorized 表示令牌无效或已过期。
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotConfigured 表示没有任何可用的认证后端。
	ErrNotConfigured = errors.New("authentication is not configured")
)

// User is the authenticated caller.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Authenticator verifies a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (User, error)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrUnauthorized
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// Chain tries each authenticator in order and returns the first success.
type Chain []Authenticator

// Authenticate implements Authenticator.
func (c Chain) Authenticate(ctx context.Context, token string) (User, error) {
	if len(c) == 0 {
		return User{}, ErrNotConfigured
	}
	var lastErr error
	for _, a := range c {
		user, err := a.Authenticate(ctx, token)
		if err == nil {
			return user, nil
		}
		lastErr = err
	}
	return User{}, lastErr
}

type contextKey struct{}

// WithUser stores user in ctx.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the user stored by RequireUser.
func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(contextKey{}).(User)
	return user, ok
}
