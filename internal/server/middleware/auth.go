// Package middleware provides HTTP middleware for authentication and
// authorization.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/emposo/cvision/internal/auth"
	"github.com/emposo/cvision/internal/types"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// userKey is the context key for the authenticated user.
const userKey ContextKey = "user"

// TokenValidator verifies a bearer token and returns the identity it asserts.
// The indirection lets tests supply a fake identity provider.
type TokenValidator interface {
	Validate(tokenString string) (*types.UserInfo, error)
}

// Auth returns middleware that validates bearer tokens and adds the
// authenticated user to the request context.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "Not authenticated")
				return
			}

			user, err := validator.Validate(token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrMissingConfig):
					http.Error(w, "Authentication not configured", http.StatusInternalServerError)
				case errors.Is(err, auth.ErrJWKSUnavailable):
					http.Error(w, "Authentication service unavailable", http.StatusServiceUnavailable)
				default:
					unauthorized(w, "Invalid authentication credentials")
				}
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns middleware that rejects authenticated users lacking all
// of the given roles. It must run inside Auth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := GetUser(r)
			if err != nil {
				unauthorized(w, "Not authenticated")
				return
			}
			if !user.HasRole(roles...) {
				http.Error(w, fmt.Sprintf("Insufficient permissions. Required: %s", strings.Join(roles, ", ")), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUser extracts the authenticated user from the request context.
func GetUser(r *http.Request) (*types.UserInfo, error) {
	user, ok := r.Context().Value(userKey).(*types.UserInfo)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in request context")
	}
	return user, nil
}

// WithUser returns a request context carrying the given user (for tests).
func WithUser(ctx context.Context, user *types.UserInfo) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	// Case-insensitive "Bearer" prefix
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	http.Error(w, message, http.StatusUnauthorized)
}
