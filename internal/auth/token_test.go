package auth

import (
	"encoding/hex"
	"testing"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/storefront/internal/config"
)

func testAuthConfig() config.Auth {
	return config.Auth{Issuer: "storefront", Audience: "storefront-api", TokenTTL: time.Hour}
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := newTokenService(paseto.NewV4SymmetricKey(), testAuthConfig())
	seller := uuid.New()

	token, expires, err := svc.Issue(seller)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, seller, got)
}

func TestTokenService_Rejects(t *testing.T) {
	key := paseto.NewV4SymmetricKey()
	svc := newTokenService(key, testAuthConfig())
	seller := uuid.New()

	otherKey := newTokenService(paseto.NewV4SymmetricKey(), testAuthConfig())
	foreign, _, err := otherKey.Issue(seller)
	require.NoError(t, err)

	otherAudience := testAuthConfig()
	otherAudience.Audience = "someone-else"
	wrongAudience, _, err := newTokenService(key, otherAudience).Issue(seller)
	require.NoError(t, err)

	expiredSvc := newTokenService(key, testAuthConfig())
	expiredSvc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := expiredSvc.Issue(seller)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":        "not-a-token",
		"foreign key":    foreign,
		"wrong audience": wrongAudience,
		"expired":        expired,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenService_IssueRequiresSeller(t *testing.T) {
	svc := newTokenService(paseto.NewV4SymmetricKey(), testAuthConfig())
	_, _, err := svc.Issue(uuid.Nil)
	assert.Error(t, err)
}

func TestNewTokenService_ConfiguredKeyIsStable(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}
	cfg := config.Config{Auth: testAuthConfig()}
	cfg.Auth.TokenKey = hex.EncodeToString(raw)

	first, err := NewTokenService(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	second, err := NewTokenService(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	seller := uuid.New()
	token, _, err := first.Issue(seller)
	require.NoError(t, err)

	got, err := second.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, seller, got)
}
