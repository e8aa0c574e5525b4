package client

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the registered claims plus the UserID the server embeds in
// every access token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// IntrospectToken decodes a bearer token's claims without verifying the
// signature: the client does not hold the server's signing secret, it
// only needs the user id and expiry for local bookkeeping. The server
// remains the authority on token validity.
func IntrospectToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

// TokenExpired reports whether the token carries an exp claim in the
// past. Tokens without an exp claim are treated as unexpired.
func TokenExpired(tokenString string, now time.Time) (bool, error) {
	claims, err := IntrospectToken(tokenString)
	if err != nil {
		return false, err
	}
	if claims.ExpiresAt == nil {
		return false, nil
	}
	return claims.ExpiresAt.Before(now), nil
}
