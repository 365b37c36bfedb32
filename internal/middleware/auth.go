package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"pixshare-backend/internal/authz"
	"pixshare-backend/internal/models"
	"pixshare-backend/internal/services"
)

type contextKey string

const (
	credentialsKey contextKey = "credentials"
	userIDKey      contextKey = "user_id"
)

// Credentials extracts the raw access credentials from a request and stores
// them in the context unverified. Resolution happens inside the
// authorization engine; absence of credentials is not an error here.
//
// Session tokens arrive as "Authorization: Bearer <jwt>". Share tokens
// arrive as "?t=<token>" or "X-Share-Token". Guest keys arrive as
// "X-Guest-Key".
func Credentials(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var creds authz.Credentials

		authHeader := r.Header.Get("Authorization")
		if parts := strings.Split(authHeader, " "); len(parts) == 2 && parts[0] == "Bearer" {
			creds.SessionToken = parts[1]
		}

		creds.ShareToken = r.URL.Query().Get("t")
		if creds.ShareToken == "" {
			creds.ShareToken = r.Header.Get("X-Share-Token")
		}

		creds.GuestKey = r.Header.Get("X-Guest-Key")

		ctx := context.WithValue(r.Context(), credentialsKey, creds)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCredentials extracts the raw credentials from context
func GetCredentials(ctx context.Context) authz.Credentials {
	creds, ok := ctx.Value(credentialsKey).(authz.Credentials)
	if !ok {
		return authz.Credentials{}
	}
	return creds
}

// RequireUser guards routes that only make sense for registered accounts,
// resource creation and profile management among them. Share tokens never
// satisfy it.
func RequireUser(authService *services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds := GetCredentials(r.Context())
			if creds.SessionToken == "" {
				respondError(w, "Authorization required", http.StatusUnauthorized)
				return
			}
			userID, ok := authService.ResolveIdentity(r.Context(), creds.SessionToken)
			if !ok {
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts the authenticated user ID from context. Zero means the
// request did not pass RequireUser.
func GetUserID(ctx context.Context) models.UserID {
	userID, ok := ctx.Value(userIDKey).(models.UserID)
	if !ok {
		return 0
	}
	return userID
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
