package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

const (
	// IdentityKey holds the opaque identity a cart or checkout operation
	// runs on behalf of: an authenticated user id, or a guest session id.
	IdentityKey contextKey = "identity"

	// SessionHeader carries the opaque guest session identifier.
	SessionHeader = "X-Session-Id"
)

// IdentityMiddleware resolves the current identity for cart and checkout
// routes. A valid bearer token wins; otherwise the session header is used
// as-is. A request with neither cannot touch any cart state and is
// rejected before reaching the handler.
func IdentityMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, role, err := parseBearer(r, jwtSecret); err == nil {
				ctx := context.WithValue(r.Context(), IdentityKey, userID)
				ctx = context.WithValue(ctx, UserIDKey, userID)
				ctx = context.WithValue(ctx, UserRoleKey, role)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if sessionID := r.Header.Get(SessionHeader); sessionID != "" {
				ctx := context.WithValue(r.Context(), IdentityKey, sessionID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			logger.Debug("No identity on request",
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
			)
			RespondWithError(w, http.StatusBadRequest, "missing identity: provide a bearer token or "+SessionHeader+" header")
		})
	}
}

// GetIdentity extracts the resolved identity from request context
func GetIdentity(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(IdentityKey).(string)
	return identity, ok
}
