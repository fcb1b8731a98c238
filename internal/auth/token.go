// Package auth validates access tokens issued by the external auth provider
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator validates JWT access tokens signed with a shared secret.
// Token issuance is delegated to the hosted auth provider; this service
// only verifies signatures and extracts the user ID from the subject claim.
type TokenValidator struct {
	secret string
}

// NewTokenValidator creates a new token validator
func NewTokenValidator(secret string) *TokenValidator {
	return &TokenValidator{
		secret: secret,
	}
}

// ValidateAccessToken parses and validates a token and returns the user ID
func (v *TokenValidator) ValidateAccessToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, err := claims.GetSubject()
	if err != nil || userID == "" {
		return "", fmt.Errorf("token has no subject claim")
	}

	return userID, nil
}
