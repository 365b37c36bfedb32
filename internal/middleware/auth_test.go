package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"pixshare-backend/internal/authz"
	"pixshare-backend/internal/models"
	"pixshare-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureCredentials(t *testing.T, build func(r *http.Request)) authz.Credentials {
	t.Helper()
	var got authz.Credentials
	h := Credentials(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetCredentials(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/albums/1", nil)
	build(req)
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestCredentialsExtraction(t *testing.T) {
	t.Run("bearer header", func(t *testing.T) {
		got := captureCredentials(t, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer session-jwt")
		})
		assert.Equal(t, "session-jwt", got.SessionToken)
		assert.Empty(t, got.ShareToken)
	})

	t.Run("share token from query", func(t *testing.T) {
		got := captureCredentials(t, func(r *http.Request) {
			q := r.URL.Query()
			q.Set("t", "tok123")
			r.URL.RawQuery = q.Encode()
		})
		assert.Equal(t, "tok123", got.ShareToken)
	})

	t.Run("share token from header", func(t *testing.T) {
		got := captureCredentials(t, func(r *http.Request) {
			r.Header.Set("X-Share-Token", "tok456")
		})
		assert.Equal(t, "tok456", got.ShareToken)
	})

	t.Run("query beats header", func(t *testing.T) {
		got := captureCredentials(t, func(r *http.Request) {
			q := r.URL.Query()
			q.Set("t", "from-query")
			r.URL.RawQuery = q.Encode()
			r.Header.Set("X-Share-Token", "from-header")
		})
		assert.Equal(t, "from-query", got.ShareToken)
	})

	t.Run("guest key", func(t *testing.T) {
		got := captureCredentials(t, func(r *http.Request) {
			r.Header.Set("X-Guest-Key", "guest-1")
		})
		assert.Equal(t, "guest-1", got.GuestKey)
	})

	t.Run("malformed authorization ignored", func(t *testing.T) {
		got := captureCredentials(t, func(r *http.Request) {
			r.Header.Set("Authorization", "Basic abc")
		})
		assert.Empty(t, got.SessionToken)
	})
}

func TestRequireUser(t *testing.T) {
	authService := services.NewAuthService(nil, "test-secret")

	var seen models.UserID
	h := Credentials(RequireUser(authService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserID(r.Context())
	})))

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := authService.GenerateJWT(42)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.UserID(42), seen)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := services.NewAuthService(nil, "other-secret")
		token, err := other.GenerateJWT(42)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
