package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emposo/cvision/internal/auth"
	"github.com/emposo/cvision/internal/types"
)

type stubValidator struct {
	user *types.UserInfo
	err  error
}

func (s *stubValidator) Validate(string) (*types.UserInfo, error) {
	return s.user, s.err
}

func protectedEcho(t *testing.T) (http.Handler, *types.UserInfo) {
	t.Helper()
	captured := &types.UserInfo{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := GetUser(r)
		require.NoError(t, err)
		*captured = *user
		w.WriteHeader(http.StatusOK)
	})
	return handler, captured
}

func TestAuth_ValidToken(t *testing.T) {
	validator := &stubValidator{user: &types.UserInfo{ID: "abc", Name: "Anna", Roles: []string{"hr"}}}
	handler, captured := protectedEcho(t)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer token123")
	rec := httptest.NewRecorder()

	Auth(validator)(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Anna", captured.Name)
}

func TestAuth_MissingHeader(t *testing.T) {
	handler, _ := protectedEcho(t)

	req := httptest.NewRequest("GET", "/protected", nil)
	rec := httptest.NewRecorder()

	Auth(&stubValidator{})(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestAuth_MalformedHeader(t *testing.T) {
	handler, _ := protectedEcho(t)

	for _, header := range []string{"token123", "Basic dXNlcg==", "Bearer", "Bearer  "} {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()

		Auth(&stubValidator{})(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestAuth_BearerCaseInsensitive(t *testing.T) {
	validator := &stubValidator{user: &types.UserInfo{ID: "abc"}}
	handler, _ := protectedEcho(t)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "bearer token123")
	rec := httptest.NewRecorder()

	Auth(validator)(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	validator := &stubValidator{err: errors.New("signature invalid")}
	handler, _ := protectedEcho(t)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()

	Auth(validator)(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_MissingConfigIsServerError(t *testing.T) {
	validator := &stubValidator{err: auth.ErrMissingConfig}
	handler, _ := protectedEcho(t)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	Auth(validator)(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuth_JWKSOutageIsServiceUnavailable(t *testing.T) {
	validator := &stubValidator{err: auth.ErrJWKSUnavailable}
	handler, _ := protectedEcho(t)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	Auth(validator)(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireRole_Allowed(t *testing.T) {
	handler := RequireRole("hr")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/admin", nil)
	req = req.WithContext(WithUser(req.Context(), &types.UserInfo{ID: "abc", Roles: []string{"hr"}}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_Forbidden(t *testing.T) {
	handler := RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/admin", nil)
	req = req.WithContext(WithUser(req.Context(), &types.UserInfo{ID: "abc", Roles: []string{"hr"}}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetUser_NotAuthenticated(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	_, err := GetUser(req)

	assert.Error(t, err)
}
