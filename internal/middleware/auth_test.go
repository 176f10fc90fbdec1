// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
)

type stubVerifier map[string]*AccessTokenClaims

func (s stubVerifier) VerifyAccessToken(_ context.Context, token string) (*AccessTokenClaims, error) {
	if token == "revoked" {
		return nil, core.ErrTokenRevoked
	}
	claims, ok := s[token]
	if !ok {
		return nil, core.ErrTokenInvalid
	}
	return claims, nil
}

var verifier = stubVerifier{
	"admin-token": {UserID: "u1", Name: "Root", Role: "admin"},
	"user-token":  {UserID: "u2", Name: "Clerk", Role: "user"},
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		core.OK(w, map[string]string{
			"id":   GetUserID(r.Context()),
			"name": GetUserName(r.Context()),
			"role": GetUserRole(r.Context()),
		})
	})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func TestAuthenticator(t *testing.T) {
	h := Authenticator(verifier)(echoIdentity())

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer user-token")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, map[string]string{"id": "u2", "name": "Clerk", "role": "user"}, body.Data)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer revoked")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "TOKEN_REVOKED", errorCode(t, rec))
	})
}

func TestRequireAdmin(t *testing.T) {
	h := Authenticator(verifier)(RequireAdmin(echoIdentity()))

	for token, want := range map[string]int{
		"admin-token": http.StatusOK,
		"user-token":  http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, want, rec.Code, token)
	}
}

func TestRequireRole_WithoutAuthentication(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireRole("admin")(echoIdentity()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExtractToken(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		upgrade bool
		query   string
		want    string
	}{
		{name: "bearer", header: "Bearer abc", want: "abc"},
		{name: "case-insensitive scheme", header: "bearer  abc ", want: "abc"},
		{name: "other scheme", header: "Basic abc", want: ""},
		{name: "query ignored on plain requests", query: "abc", want: ""},
		{name: "query on websocket upgrade", upgrade: true, query: "abc", want: "abc"},
		{name: "header wins on upgrade", header: "Bearer hdr", upgrade: true, query: "abc", want: "hdr"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/live?access_token="+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.upgrade {
				req.Header.Set("Upgrade", "websocket")
			}

			assert.Equal(t, tc.want, ExtractToken(req))
		})
	}
}

func TestKeyByUserAndEndpoint_NormalizesIDs(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/records/0b6c1f4e-8a55-4c1f-9c3e-2f1d7a9e4b10/export", nil)
	ctx := context.WithValue(req.Context(), UserIDKey, "u1")

	key := KeyByUserAndEndpoint(req.WithContext(ctx))

	assert.Contains(t, key, "/v1/records/{id}/export")
}
