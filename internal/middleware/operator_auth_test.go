package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
)

func newAuthorizer(ttl time.Duration) *OperatorAuthorizer {
	return NewOperatorAuthorizer("hunter2", "test-jwt-secret", ttl, logger.NewNop())
}

func TestOperatorAuthorizer_VerifySecret(t *testing.T) {
	a := newAuthorizer(time.Hour)

	assert.True(t, a.VerifySecret("hunter2"))
	assert.False(t, a.VerifySecret("hunter3"))
	assert.False(t, a.VerifySecret(""))
}

func TestOperatorAuthorizer_TokenRoundTrip(t *testing.T) {
	a := newAuthorizer(time.Hour)

	token, err := a.IssueToken()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.True(t, a.VerifyToken(token))
	assert.True(t, a.Authorize(token))
}

func TestOperatorAuthorizer_RejectsForeignAndExpiredTokens(t *testing.T) {
	a := newAuthorizer(time.Hour)

	t.Run("EmptyToken", func(t *testing.T) {
		assert.False(t, a.VerifyToken(""))
	})

	t.Run("Garbage", func(t *testing.T) {
		assert.False(t, a.VerifyToken("not.a.jwt"))
	})

	t.Run("WrongSigningKey", func(t *testing.T) {
		other := NewOperatorAuthorizer("hunter2", "different-secret", time.Hour, logger.NewNop())
		token, err := other.IssueToken()
		require.NoError(t, err)
		assert.False(t, a.VerifyToken(token))
	})

	t.Run("Expired", func(t *testing.T) {
		shortLived := newAuthorizer(-time.Minute)
		token, err := shortLived.IssueToken()
		require.NoError(t, err)
		assert.False(t, shortLived.VerifyToken(token))
	})

	t.Run("WrongRole", func(t *testing.T) {
		claims := OperatorClaims{
			Role: "viewer",
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-jwt-secret"))
		require.NoError(t, err)
		assert.False(t, a.VerifyToken(token))
	})
}

func TestOperatorAuthorizer_AuthorizeAcceptsSecretOrToken(t *testing.T) {
	a := newAuthorizer(time.Hour)

	token, err := a.IssueToken()
	require.NoError(t, err)

	assert.True(t, a.Authorize("hunter2"))
	assert.True(t, a.Authorize(token))
	assert.False(t, a.Authorize("wrong"))
}
