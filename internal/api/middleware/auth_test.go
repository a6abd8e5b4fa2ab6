package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/hobbyden/store/internal/models"
	"github.com/hobbyden/store/internal/repository"
)

type stubResolver struct {
	tokens map[string]*models.User
}

func (s *stubResolver) GetByToken(ctx context.Context, token string) (*models.User, error) {
	if u, ok := s.tokens[token]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func authChain(resolver *stubResolver, requireUser bool) http.Handler {
	var inner http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := UserFrom(r.Context()); u != nil {
			w.Header().Set("X-User-ID", "set")
		}
		w.WriteHeader(http.StatusOK)
	})
	if requireUser {
		inner = RequireUser(inner)
	}
	return Authenticate(resolver, zap.NewNop())(inner)
}

func TestAuthenticate(t *testing.T) {
	resolver := &stubResolver{tokens: map[string]*models.User{
		"good-token": {ID: 1, Email: "u@x.io"},
	}}

	t.Run("anonymous passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		rec := httptest.NewRecorder()
		authChain(resolver, false).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-User-ID"))
	})

	t.Run("valid token resolves the user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		authChain(resolver, false).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "set", rec.Header().Get("X-User-ID"))
	})

	t.Run("unknown token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		rec := httptest.NewRecorder()
		authChain(resolver, false).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.Header.Set("Authorization", "Token good-token")
		rec := httptest.NewRecorder()
		authChain(resolver, false).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("require user blocks anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		rec := httptest.NewRecorder()
		authChain(resolver, true).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
