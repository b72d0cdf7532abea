package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"treasury-backend/internal/auth"
	"treasury-backend/internal/models"
)

type contextKey string

const TreasurerIDKey contextKey = "treasurer_id"
const EmailKey contextKey = "email"

// TreasurerLookup loads the treasurer named in a token.
type TreasurerLookup interface {
	Get(ctx context.Context, id int) (*models.Treasurer, error)
}

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	treasurers TreasurerLookup
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, treasurers TreasurerLookup) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		treasurers: treasurers,
	}
}

// Authenticate is a middleware that validates JWT tokens. Websocket
// handshakes may pass the token as a "token" query parameter since browsers
// cannot set headers on them.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		// Check the account still exists
		t, err := m.treasurers.Get(r.Context(), claims.TreasurerID)
		if err != nil {
			http.Error(w, "Treasurer not found", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), TreasurerIDKey, t.ID)
		ctx = context.WithValue(ctx, EmailKey, t.Email)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if websocket.IsWebSocketUpgrade(r) {
			if t := r.URL.Query().Get("token"); t != "" {
				return t, true
			}
		}
		return "", false
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetTreasurerIDFromContext extracts the treasurer ID from request context
func GetTreasurerIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(TreasurerIDKey).(int)
	return id, ok
}

// GetEmailFromContext extracts email from request context
func GetEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}
