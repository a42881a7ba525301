package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"grocery-api/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func identityTestHandler(captured *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentity(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		*captured = identity
		w.WriteHeader(http.StatusOK)
	})
}

func signIdentityToken(t *testing.T, secret string, userID string, role domain.Role) string {
	t.Helper()

	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tokenString
}

func TestProperty_SessionHeaderResolvesIdentity(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("any non-empty session header becomes the identity", prop.ForAll(
		func(sessionID string) bool {
			logger, _ := zap.NewDevelopment()
			var captured string
			handler := IdentityMiddleware("test-secret", logger)(identityTestHandler(&captured))

			req := httptest.NewRequest("GET", "/cart", nil)
			req.Header.Set(SessionHeader, sessionID)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			return w.Code == http.StatusOK && captured == sessionID
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestBearerTokenTakesPrecedenceOverSessionHeader(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	secret := "test-secret"
	userID := uuid.New().String()

	var captured string
	handler := IdentityMiddleware(secret, logger)(identityTestHandler(&captured))

	req := httptest.NewRequest("GET", "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+signIdentityToken(t, secret, userID, domain.RoleCustomer))
	req.Header.Set(SessionHeader, "guest-session-123")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, captured, "authenticated user id should win over the session header")
}

func TestInvalidBearerFallsBackToSessionHeader(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	var captured string
	handler := IdentityMiddleware("test-secret", logger)(identityTestHandler(&captured))

	req := httptest.NewRequest("GET", "/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	req.Header.Set(SessionHeader, "guest-session-123")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "guest-session-123", captured)
}

func TestMissingIdentityIsRejected(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	var captured string
	handler := IdentityMiddleware("test-secret", logger)(identityTestHandler(&captured))

	req := httptest.NewRequest("GET", "/cart", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, captured)
}

func TestAuthenticatedIdentityCarriesRole(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	secret := "test-secret"
	userID := uuid.New().String()

	var role domain.Role
	var hadRole bool
	handler := IdentityMiddleware(secret, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, hadRole = GetUserRole(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+signIdentityToken(t, secret, userID, domain.RoleAdmin))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, hadRole)
	assert.Equal(t, domain.RoleAdmin, role)
}

func TestGuestIdentityCarriesNoRole(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	var hadRole bool
	handler := IdentityMiddleware("test-secret", logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadRole = GetUserRole(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/cart", nil)
	req.Header.Set(SessionHeader, "guest-session-123")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, hadRole)
}
