package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomdesk/backend/internal/infrastructure/config"
)

func newTestJWTService() *JWTService {
	cfg := config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	}
	return NewJWTService(cfg)
}

func TestNewJWTService(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:                "test-secret",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	}

	svc := NewJWTService(cfg)

	assert.NotNil(t, svc)
	assert.Equal(t, []byte(cfg.Secret), svc.secret)
	assert.Equal(t, cfg.AccessTokenExpiration, svc.expiration)
	assert.Equal(t, cfg.Issuer, svc.issuer)
}

func TestValidateAccessToken_Success(t *testing.T) {
	svc := newTestJWTService()
	tenantID := uuid.New()
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(tenantID, userID, "Maya")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateAccessToken(token)

	require.NoError(t, err)
	assert.Equal(t, tenantID.String(), claims.TenantID)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "Maya", claims.DisplayName)
	assert.Equal(t, "test-issuer", claims.Issuer)
}

func TestValidateAccessToken_ExpiredToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: -1 * time.Hour, // Already expired
		Issuer:                "test-issuer",
	}
	svc := NewJWTService(cfg)

	token, err := svc.GenerateAccessToken(uuid.New(), uuid.New(), "Maya")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateAccessToken_InvalidToken(t *testing.T) {
	svc := newTestJWTService()

	_, err := svc.ValidateAccessToken("invalid-token")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_DifferentSecret(t *testing.T) {
	svc1 := newTestJWTService()

	token, err := svc1.GenerateAccessToken(uuid.New(), uuid.New(), "Maya")
	require.NoError(t, err)

	cfg := config.JWTConfig{
		Secret:                "different-secret-key-32-chars!",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	}
	svc2 := NewJWTService(cfg)

	_, err = svc2.ValidateAccessToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaims_GetTenantUUID(t *testing.T) {
	svc := newTestJWTService()
	tenantID := uuid.New()

	token, err := svc.GenerateAccessToken(tenantID, uuid.New(), "Maya")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)

	tenantUUID, err := claims.GetTenantUUID()

	require.NoError(t, err)
	assert.Equal(t, tenantID, tenantUUID)
}

func TestClaims_GetUserUUID(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(uuid.New(), userID, "Maya")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)

	userUUID, err := claims.GetUserUUID()

	require.NoError(t, err)
	assert.Equal(t, userID, userUUID)
}

func TestClaims_Actor(t *testing.T) {
	claims := &Claims{UserID: "user-123", DisplayName: "Maya"}
	assert.Equal(t, "Maya", claims.Actor())

	claims.DisplayName = ""
	assert.Equal(t, "user-123", claims.Actor())
}
