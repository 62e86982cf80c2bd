package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_SessionRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")
	accountID := uuid.New()

	token, err := svc.GenerateSessionToken(accountID)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	got, err := claims.AccountID()
	require.NoError(t, err)
	assert.Equal(t, accountID, got)
	assert.WithinDuration(t, time.Now().Add(SessionTokenExpiry), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTService_ValidateToken(t *testing.T) {
	svc := NewJWTService("test-secret")
	accountID := uuid.New()

	expired := NewJWTService("test-secret")
	expired.now = func() time.Time { return time.Now().Add(-25 * time.Hour) }
	expiredToken, err := expired.GenerateSessionToken(accountID)
	require.NoError(t, err)

	foreignToken, err := NewJWTService("other-secret").GenerateSessionToken(accountID)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: accountID.String()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: "not-a-uuid",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired", token: expiredToken},
		{name: "signed with another secret", token: foreignToken},
		{name: "unsigned", token: noneToken},
		{name: "invalid subject", token: badSubject},
		{name: "garbage", token: "abc.def.ghi"},
		{name: "empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}
