package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte("test-jwt-secret")
	refreshSecret = []byte("test-refresh-secret")
)

func TestNewAccessToken_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(15 * time.Minute).UTC()
	token, err := NewAccessToken(accessSecret, 42, true, exp)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(token, accessSecret)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.True(t, claims.Superuser)
	assert.Equal(t, TypeAccess, claims.Type)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestNewRefreshToken_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	jti := uuid.NewString()
	exp := time.Now().Add(24 * time.Hour).UTC()
	token, err := NewRefreshToken(refreshSecret, 7, jti, exp)
	require.NoError(t, err)

	claims, err := RefreshClaimsFromToken(token, refreshSecret)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
}

func TestClaimsFromToken_Rejects(t *testing.T) {
	t.Parallel()

	expired, err := NewAccessToken(accessSecret, 1, false, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(expired, accessSecret)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))

	access, err := NewAccessToken(accessSecret, 1, false, time.Now().Add(time.Minute))
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(access, []byte("other"))
	assert.Error(t, err)

	// same secret, wrong kind of token
	refresh, err := NewRefreshToken(accessSecret, 1, "jti", time.Now().Add(time.Minute))
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(refresh, accessSecret)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = RefreshClaimsFromToken("not-a-jwt", refreshSecret)
	assert.Error(t, err)
}
