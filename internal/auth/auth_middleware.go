package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sebuszqo/FinanceManager/internal/finance/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenValidator turns an access token into a user id.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (string, error)
}

// WithIdentity stores the caller identity on ctx.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the zero Identity when the request carries none.
func IdentityFromContext(ctx context.Context) domain.Identity {
	identity, _ := ctx.Value(identityKey).(domain.Identity)
	return identity
}

// IdentityMiddleware resolves the bearer token into an Identity. It never rejects a request:
// a missing, malformed or expired token leaves the request without identity and the category
// service answers it as unauthenticated.
func IdentityMiddleware(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if authHeader == "" || tokenString == authHeader || tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := validator.ValidateAccessToken(tokenString)
			if err != nil {
				logger.DebugContext(r.Context(), "access token rejected", slog.String("reason", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithIdentity(r.Context(), domain.Identity{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
