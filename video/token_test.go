package video

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseCredential(t *testing.T, secret, token string) *GrantClaims {
	t.Helper()

	claims := &GrantClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	return claims
}

func TestNewIssuerRequiresKeyPair(t *testing.T) {
	_, err := NewIssuer("", "secret")
	assert.Error(t, err)
	_, err = NewIssuer("key", "")
	assert.Error(t, err)
	_, err = NewIssuer("key", "secret")
	assert.NoError(t, err)
}

func TestIssueDefaults(t *testing.T) {
	issuer, err := NewIssuer("api-key", "api-secret")
	require.NoError(t, err)

	cred, err := issuer.Issue("study-abc", "user-42", GrantOptions{})
	require.NoError(t, err)

	assert.Equal(t, "study-abc", cred.Room)
	assert.Equal(t, "user-42", cred.Identity)
	assert.True(t, cred.CanPublish)
	assert.True(t, cred.CanSubscribe)
	assert.Equal(t, DefaultTTL, cred.ExpiresAt.Sub(cred.IssuedAt))

	claims := parseCredential(t, "api-secret", cred.Token)
	assert.Equal(t, "api-key", claims.Issuer)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, "study-abc", claims.Video.Room)
	assert.True(t, claims.Video.RoomJoin)
	assert.True(t, claims.Video.CanPublish)
	assert.True(t, claims.Video.CanSubscribe)
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestIssueOverrides(t *testing.T) {
	issuer, err := NewIssuer("api-key", "api-secret")
	require.NoError(t, err)

	noPublish := false
	cred, err := issuer.Issue("study-abc", "user-42", GrantOptions{
		CanPublish: &noPublish,
		TTL:        2 * time.Minute,
	})
	require.NoError(t, err)

	assert.False(t, cred.CanPublish)
	assert.True(t, cred.CanSubscribe)
	assert.Equal(t, 2*time.Minute, cred.ExpiresAt.Sub(cred.IssuedAt))

	claims := parseCredential(t, "api-secret", cred.Token)
	assert.False(t, claims.Video.CanPublish)
	assert.True(t, claims.Video.CanSubscribe)
}

func TestReissueUsesDefaults(t *testing.T) {
	issuer, err := NewIssuer("api-key", "api-secret")
	require.NoError(t, err)

	cred, err := issuer.Reissue("study-abc", "user-42")
	require.NoError(t, err)
	assert.True(t, cred.CanPublish)
	assert.True(t, cred.CanSubscribe)
	assert.Equal(t, DefaultTTL, cred.ExpiresAt.Sub(cred.IssuedAt))
}

func TestIdentityRoundTrip(t *testing.T) {
	ids := IdentityScheme{}

	userID, ok := ids.UserForIdentity(ids.IdentityFor(42))
	require.True(t, ok)
	assert.Equal(t, uint(42), userID)

	_, ok = ids.UserForIdentity("someone-else")
	assert.False(t, ok)
	_, ok = ids.UserForIdentity("user-")
	assert.False(t, ok)
	_, ok = ids.UserForIdentity("user-abc")
	assert.False(t, ok)
}
