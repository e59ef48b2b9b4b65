package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/emailbuilder/emailbuilder/internal/auth"
)

// ActorKey holds the authenticated admin identity
const ActorKey contextKey = "actor"

// APIKeyActor is the actor name recorded for X-API-Key requests
const APIKeyActor = "api_key"

// Auth creates an authentication middleware that accepts either an admin
// bearer token or the admin API key
func (m *Middleware) Auth(tokenSvc *auth.TokenService, keys *auth.APIKeyVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var actor string

			// 1. Try Authorization header first
			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
					claims, err := tokenSvc.ValidateToken(parts[1])
					if err != nil {
						m.log.Debug().Err(err).Msg("token validation failed")
						writeAuthError(w, "invalid_token", "The access token is invalid or expired")
						return
					}
					actor = claims.Subject
				}
			}

			// 2. Fall back to the API key header
			if actor == "" {
				if key := r.Header.Get("X-API-Key"); key != "" {
					if !keys.Verify(key) {
						writeAuthError(w, "invalid_api_key", "The API key is invalid")
						return
					}
					actor = APIKeyActor
				}
			}

			if actor == "" {
				writeAuthError(w, "unauthorized", "Authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), ActorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetActor retrieves the authenticated admin identity from context
func GetActor(ctx context.Context) string {
	if actor, ok := ctx.Value(ActorKey).(string); ok {
		return actor
	}
	return "anonymous"
}

func writeAuthError(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"code":"` + code + `","message":"` + message + `"}}`))
}
