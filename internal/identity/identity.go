// Package identity extracts the local user's identity from the session's
// auth token. The token is issued and verified by the backend; the client
// only reads its public claims, so no signature verification happens here.
package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt"
)

type Identity struct {
	UserId   string
	Username string
}

// FromToken decodes the JWT payload and returns the local user's id and
// username. The backend sets "userId" and "username" claims; older tokens
// carry "name" instead of "username".
func FromToken(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, fmt.Errorf("auth token cannot be empty")
	}

	parser := jwt.Parser{}
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return Identity{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("unexpected claims type %T", token.Claims)
	}

	userId, _ := claims["userId"].(string)
	if userId == "" {
		return Identity{}, fmt.Errorf("token has no userId claim")
	}

	username, _ := claims["username"].(string)
	if username == "" {
		username, _ = claims["name"].(string)
	}

	return Identity{UserId: userId, Username: username}, nil
}
