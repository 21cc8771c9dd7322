package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims the server puts in its access tokens.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// PeekToken decodes token claims without verifying the signature. The server
// remains the authority; this only lets the client skip a whoami call for a
// token that has visibly expired and show the expiry time.
func PeekToken(token string) (TokenClaims, bool) {
	var claims TokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenClaims{}, false
	}
	return claims, true
}

// TokenExpiry reports the token's exp claim, if it has one.
func TokenExpiry(token string) (time.Time, bool) {
	claims, ok := PeekToken(token)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// TokenExpired is true only for tokens whose exp claim is at or before now.
// Opaque tokens are never considered expired.
func TokenExpired(token string, now time.Time) bool {
	exp, ok := TokenExpiry(token)
	return ok && !now.Before(exp)
}
