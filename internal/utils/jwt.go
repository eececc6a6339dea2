package utils

import (
	"errors" // Sentinel errors
	"time"   // Time for token expiration

	"promptionary/internal/domain" // Account and tier types

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// ErrMissingSecret is returned when tokens are requested without a signing secret
var ErrMissingSecret = errors.New("jwt secret is not configured")

// JWT Claims
type Claims struct {
	AccountID            uint        `json:"account_id"` // Custom claim for account ID
	Tier                 domain.Tier `json:"tier"`       // Tier at issue time, informational only
	jwt.RegisteredClaims             // Standard JWT claims
}

// GenerateJWT creates a JWT token for the given account
func GenerateJWT(account *domain.Account, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	now := time.Now()
	// Set token claims
	claims := Claims{
		AccountID: account.ID,   // Custom claim for account ID
		Tier:      account.Tier, // Current tier
		// Standard claims
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)), // Token expiry
			IssuedAt:  jwt.NewNumericDate(now),          // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a JWT token string
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	// Check for parsing errors
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.AccountID != 0 {
		return claims, nil // Return claims if valid
	}
	// Return error if token is invalid
	return nil, jwt.ErrTokenInvalidClaims
}
