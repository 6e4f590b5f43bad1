package identity

import (
	"testing"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err, "expected token signing to succeed")
	return s
}

func TestFromToken(t *testing.T) {
	t.Run("userId and username claims", func(t *testing.T) {
		tok := signedToken(t, jwt.MapClaims{"userId": "u1", "username": "alice"})

		id, err := FromToken(tok)
		assert.NoError(t, err, "expected no error for valid token")
		assert.Equal(t, "u1", id.UserId, "expected userId claim to be extracted")
		assert.Equal(t, "alice", id.Username, "expected username claim to be extracted")
	})

	t.Run("falls back to name claim", func(t *testing.T) {
		tok := signedToken(t, jwt.MapClaims{"userId": "u1", "name": "alice"})

		id, err := FromToken(tok)
		assert.NoError(t, err, "expected no error for valid token")
		assert.Equal(t, "alice", id.Username, "expected name claim fallback")
	})

	t.Run("missing userId claim", func(t *testing.T) {
		tok := signedToken(t, jwt.MapClaims{"username": "alice"})

		_, err := FromToken(tok)
		assert.Error(t, err, "expected error when userId claim is absent")
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := FromToken("")
		assert.Error(t, err, "expected error for empty token")
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := FromToken("not-a-jwt")
		assert.Error(t, err, "expected error for malformed token")
	})
}
