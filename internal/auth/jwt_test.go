// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/useSafe/File-Allocation-System-2.0/internal/config"
	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
)

func jwtConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 24 * time.Hour,
		Issuer:             "fas",
		Audience:           "fas-api",
	}
}

func newManager(t *testing.T, cfg config.JWTConfig) *JWTManager {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	m, err := NewJWTManagerFromKey(key, cfg)
	require.NoError(t, err)
	return m
}

func TestJWTManager_AccessTokenRoundTrip(t *testing.T) {
	m := newManager(t, jwtConfig())

	token, err := m.CreateAccessToken(AccessTokenClaims{
		UserID:       "0b6c1f4e-8a55-4c1f-9c3e-2f1d7a9e4b10",
		Name:         "Clerk",
		Role:         "user",
		TokenVersion: 3,
	})
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, "0b6c1f4e-8a55-4c1f-9c3e-2f1d7a9e4b10", claims.UserID)
	assert.Equal(t, "Clerk", claims.Name)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.NotEmpty(t, claims.JTI)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt, 5*time.Second)
}

func TestJWTManager_RejectsForeignTokens(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	issuer, err := NewJWTManagerFromKey(key, jwtConfig())
	require.NoError(t, err)

	token, err := issuer.CreateAccessToken(AccessTokenClaims{UserID: "u1", Role: "admin"})
	require.NoError(t, err)

	t.Run("other signing key", func(t *testing.T) {
		_, err := newManager(t, jwtConfig()).VerifyAccessToken(context.Background(), token)
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("other audience", func(t *testing.T) {
		cfg := jwtConfig()
		cfg.Audience = "someone-else"
		verifier, err := NewJWTManagerFromKey(key, cfg)
		require.NoError(t, err)

		_, err = verifier.VerifyAccessToken(context.Background(), token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.VerifyAccessToken(context.Background(), "not.a.jwt")
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	cfg := jwtConfig()
	cfg.AccessTokenExpire = -time.Minute
	m := newManager(t, cfg)

	token, err := m.CreateAccessToken(AccessTokenClaims{UserID: "u1", Role: "user"})
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(context.Background(), token)
	assert.Error(t, err)
}

func TestGenerateKeyPair(t *testing.T) {
	dir := t.TempDir()
	cfg := jwtConfig()
	cfg.PrivateKeyPath = filepath.Join(dir, "private.pem")
	cfg.PublicKeyPath = filepath.Join(dir, "public.pem")

	require.NoError(t, GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath))

	info, err := os.Stat(cfg.PrivateKeyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	m, err := NewJWTManager(cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, m.GetKeyID())
}

func TestJWTManager_RefreshToken(t *testing.T) {
	m := newManager(t, jwtConfig())

	data, err := m.CreateRefreshToken("u1", "")
	require.NoError(t, err)

	assert.NotEmpty(t, data.FamilyID)
	assert.Equal(t, core.HashToken(data.Token), data.Hash)

	again, err := m.CreateRefreshToken("u1", data.FamilyID)
	require.NoError(t, err)
	assert.Equal(t, data.FamilyID, again.FamilyID)
	assert.NotEqual(t, data.Token, again.Token)
}
