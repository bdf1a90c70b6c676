package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/linkvault/companion-core/internal/auth"
	"github.com/linkvault/companion-core/internal/util"
)

type contextKey string

const UserContextKey contextKey = "user"

// GetUserID returns the authenticated user id, or empty when the
// request carried no valid session.
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(UserContextKey).(string); ok {
		return userID
	}
	return ""
}

type AuthMiddleware struct {
	sessions auth.SessionStore
}

func NewAuthMiddleware(sessions auth.SessionStore) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Handler resolves the bearer token to a user id and stores it on the
// request context. Requests without a resolvable session continue
// anonymously; handlers that require identity reject them.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		tokenHash := util.HashToken(token)
		userID, err := m.sessions.UserIDForToken(r.Context(), tokenHash)
		if err != nil {
			log.Error().Err(err).Msg("auth middleware: session lookup failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Authentication failed",
			})
			return
		}

		if userID == "" {
			log.Warn().Msg("auth middleware: invalid token attempt")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid token",
			})
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}
