package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret")

	token, err := svc.Issue("17", []string{"owner"}, 7, 17)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "17", claims.Subject)
	assert.Equal(t, []string{"owner"}, claims.Scopes)
	assert.Equal(t, uint(7), claims.CompanyID)
	assert.Equal(t, uint(17), claims.AccountID)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.HasScope("owner"))
	assert.False(t, claims.HasScope("employee"))
}

func TestTokenRejectedAfterExpiry(t *testing.T) {
	svc := NewTokenService("test-secret")

	base := time.Now()
	svc.now = func() time.Time { return base }

	token, err := svc.Issue("17", []string{"customer"}, 0, 17)
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(accessTokenExpiry + time.Minute) }
	_, err = svc.Verify(token)
	assert.Error(t, err)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	token, err := NewTokenService("secret-a").Issue("17", nil, 0, 0)
	require.NoError(t, err)

	_, err = NewTokenService("secret-b").Verify(token)
	assert.Error(t, err)
}

func TestTokenGarbageRejected(t *testing.T) {
	_, err := NewTokenService("secret").Verify("not.a.token")
	assert.Error(t, err)
}
