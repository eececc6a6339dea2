package middleware

import (
	"context"  // Request context
	"errors"   // Error kind matching
	"net/http" // HTTP status codes
	"strings"  // Header parsing

	"promptionary/internal/domain" // Identity and error kinds

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging
)

// Context keys set by JWTAuthMiddleware
const (
	IdentityKey  = "identity"
	AccountIDKey = "accountID"
)

// Authenticator resolves a bearer token to the identity of an existing account
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
}

// BearerToken extracts the token from an Authorization header value.
// The scheme is case-insensitive and surrounding whitespace is ignored.
func BearerToken(header string) (string, bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", false
	}
	return fields[1], true
}

// JWTAuthMiddleware validates bearer tokens and attaches the caller's identity
func JWTAuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization")) // Get token from Authorization header
		if !ok {
			// Missing header or wrong scheme
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing or invalid Authorization header"})
			return
		}
		identity, err := auth.Authenticate(c.Request.Context(), token) // Verify token and resolve account
		if err != nil {
			status := http.StatusUnauthorized
			message := domain.Message(err, "Invalid or expired token")
			if !errors.Is(err, domain.ErrUnauthenticated) {
				// Store failure, not the caller's fault
				status = http.StatusInternalServerError
				message = "Internal server error"
				logrus.WithError(err).WithField("request_id", c.GetString(RequestIDKey)).Error("Authentication failed")
			}
			c.AbortWithStatusJSON(status, gin.H{"message": message})
			return
		}
		c.Set(IdentityKey, identity)            // Store identity in context
		c.Set(AccountIDKey, identity.AccountID) // Store accountID in context
		c.Next()                                // Proceed to the next handler
	}
}

// CurrentIdentity returns the identity attached by JWTAuthMiddleware
func CurrentIdentity(c *gin.Context) (*domain.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*domain.Identity)
	return identity, ok && identity != nil
}
