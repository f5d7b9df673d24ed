package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueAndParse(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	manager := NewTokenManager([]byte("super-secret"), 30*time.Minute).WithClock(fixedClock(issuedAt))

	token, err := manager.Issue(7, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, token.ID)
	assert.Equal(t, issuedAt.Add(30*time.Minute), token.ExpiresAt)

	claims, err := manager.WithClock(fixedClock(issuedAt.Add(29 * time.Minute))).Parse(token.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, token.ID, claims.ID)
}

func TestParseExpired(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	manager := NewTokenManager([]byte("secret"), 30*time.Minute).WithClock(fixedClock(issuedAt))

	token, err := manager.Issue(1, "bob")
	require.NoError(t, err)

	_, err = manager.WithClock(fixedClock(issuedAt.Add(31 * time.Minute))).Parse(token.Value)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := NewTokenManager([]byte("right-secret"), time.Hour).Issue(1, "carol")
	require.NoError(t, err)

	_, err = NewTokenManager([]byte("wrong-secret"), time.Hour).Parse(token.Value)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseMalformedAndMissing(t *testing.T) {
	t.Parallel()

	manager := NewTokenManager([]byte("k"), time.Hour)

	_, err := manager.Parse("not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = manager.Parse("   ")
	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "mallory",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	value, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager(secret, time.Hour).Parse(value)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPayloadIsReadable(t *testing.T) {
	t.Parallel()

	token, err := NewTokenManager([]byte("secret"), time.Hour).Issue(3, "dave")
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(token.Value, claims)
	require.NoError(t, err)
	assert.Equal(t, "dave", claims.Subject)
	assert.Len(t, strings.Split(token.Value, "."), 3)
}

func TestIssueWithoutSecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenManager(nil, time.Hour).Issue(1, "eve")
	assert.Error(t, err)
}
