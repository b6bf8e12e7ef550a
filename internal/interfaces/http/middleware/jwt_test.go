package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomdesk/backend/internal/infrastructure/auth"
	"github.com/bloomdesk/backend/internal/infrastructure/config"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})
}

func newJWTRouter(svc *auth.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWTAuthMiddleware(svc))
	router.GET("/api/v1/cards", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"tenant_id": GetJWTTenantID(c),
			"actor":     GetJWTDisplayName(c),
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestJWTService()
	router := newJWTRouter(svc)
	tenantID := uuid.New()

	token, err := svc.GenerateAccessToken(tenantID, uuid.New(), "Maya")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/v1/cards", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), tenantID.String())
	assert.Contains(t, w.Body.String(), "Maya")
}

func TestJWTAuthMiddleware_MissingHeader(t *testing.T) {
	router := newJWTRouter(newTestJWTService())

	req := httptest.NewRequest("GET", "/api/v1/cards", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_TOKEN_INVALID")
}

func TestJWTAuthMiddleware_MalformedHeader(t *testing.T) {
	router := newJWTRouter(newTestJWTService())

	req := httptest.NewRequest("GET", "/api/v1/cards", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_ExpiredToken(t *testing.T) {
	expired := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: -1 * time.Hour,
		Issuer:                "test-issuer",
	})
	router := newJWTRouter(newTestJWTService())

	token, err := expired.GenerateAccessToken(uuid.New(), uuid.New(), "Maya")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/v1/cards", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_TOKEN_EXPIRED")
}

func TestJWTAuthMiddleware_SkipsHealth(t *testing.T) {
	router := newJWTRouter(newTestJWTService())

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalJWTAuthMiddleware(t *testing.T) {
	svc := newTestJWTService()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(OptionalJWTAuthMiddleware(svc))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetJWTTenantID(c))
	})

	// Without a token the request passes with no claims
	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	// With a valid token claims are populated
	tenantID := uuid.New()
	token, err := svc.GenerateAccessToken(tenantID, uuid.New(), "Maya")
	require.NoError(t, err)

	req = httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenantID.String(), w.Body.String())
}
