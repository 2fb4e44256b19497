package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"empresaflow/internal/authz"
	"empresaflow/internal/platform/logger"
	"empresaflow/pkg/requestcontext"
)

type stubValidator map[string]*JWTClaims

func (s stubValidator) ValidateToken(token string) (*JWTClaims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

func TestRequireAuth(t *testing.T) {
	validator := stubValidator{
		"good":  {UserID: "u-1", Profile: "comercial"},
		"alien": {UserID: "u-2", Profile: "root"},
	}
	var seen authz.AuthorizationContext
	var seenUser string
	h := RequireAuth(validator, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = authz.FromContext(r.Context())
		seenUser = requestcontext.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"unknown profile", "Bearer alien", http.StatusForbidden},
		{"valid", "Bearer good", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
	assert.Equal(t, "u-1", seen.UserID)
	assert.Equal(t, authz.RoleCommercial, seen.Role)
	assert.Equal(t, "u-1", seenUser)
}

func TestRequirePermission(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequirePermission(authz.PermCreateCompany, logger.Discard())(ok)

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("role without permission", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(authz.WithContext(req.Context(), authz.NewAuthorizationContext("u", authz.RoleSacExec)))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("role with permission", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(authz.WithContext(req.Context(), authz.NewAuthorizationContext("u", authz.RoleCommercial)))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestRequestIDPropagation(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestcontext.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", got)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestDescribeClient(t *testing.T) {
	ua := "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
	assert.Contains(t, DescribeClient(ua), "Firefox 128.0 on Linux")
	assert.Empty(t, DescribeClient(""))
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
