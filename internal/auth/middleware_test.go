package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key-for-unit-tests-only")

func signToken(t *testing.T, subject, role string, key []byte) string {
	t.Helper()
	claims := Claims{}
	claims.Subject = subject
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	claims.Metadata.Role = role

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func echoCaller(t *testing.T, got *RequestContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc, ok := FromContext(r.Context())
		require.True(t, ok)
		*got = rc
		w.WriteHeader(http.StatusOK)
	})
}

func TestResolveRole(t *testing.T) {
	tests := []struct {
		raw  string
		want Role
	}{
		{"ADMIN", RoleAdmin},
		{" Doctor ", RoleDoctor},
		{"laboratory", RoleLaboratory},
		{"", RolePatient},
		{"janitor", RolePatient},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveRole(tt.raw), "raw=%q", tt.raw)
	}
}

func TestMiddleware_ValidToken(t *testing.T) {
	v := NewVerifier(Config{Secret: testSecret})
	var got RequestContext

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user_1", "NURSE", testSecret))
	rec := httptest.NewRecorder()

	v.Middleware(echoCaller(t, &got)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, RequestContext{UserID: "user_1", Role: RoleNurse}, got)
}

func TestMiddleware_MissingRoleFallsBackToPatient(t *testing.T) {
	v := NewVerifier(Config{Secret: testSecret})
	var got RequestContext

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user_2", "", testSecret))
	rec := httptest.NewRecorder()

	v.Middleware(echoCaller(t, &got)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, RolePatient, got.Role)
}

func TestMiddleware_Rejects(t *testing.T) {
	v := NewVerifier(Config{Secret: testSecret})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"wrong key", "Bearer " + signToken(t, "user_1", "admin", []byte("other-key"))},
		{"no subject", "Bearer " + signToken(t, "", "admin", testSecret)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
			v.Middleware(next).ServeHTTP(rec, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestMiddleware_DevHeaders(t *testing.T) {
	v := NewVerifier(Config{Secret: testSecret, AllowHeaders: true})
	var got RequestContext

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "dev")
	req.Header.Set("X-User-Role", "Receptionist")
	rec := httptest.NewRecorder()

	v.Middleware(echoCaller(t, &got)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, RequestContext{UserID: "dev", Role: RoleReceptionist}, got)
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	guard := RequireRole(RoleAdmin, RoleDoctor)(ok)

	tests := []struct {
		name string
		rc   *RequestContext
		want int
	}{
		{"admin allowed", &RequestContext{UserID: "a", Role: RoleAdmin}, http.StatusNoContent},
		{"doctor allowed", &RequestContext{UserID: "d", Role: RoleDoctor}, http.StatusNoContent},
		{"patient forbidden", &RequestContext{UserID: "p", Role: RolePatient}, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.rc != nil {
				req = req.WithContext(WithRequestContext(req.Context(), *tt.rc))
			}
			rec := httptest.NewRecorder()
			guard.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
