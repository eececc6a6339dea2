package api

import (
	"errors"   // Error kind matching
	"net/http" // HTTP status codes
	"strconv"  // Path and query parsing

	"promptionary/internal/domain"     // Error kinds
	"promptionary/internal/middleware" // Request id and account id keys

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// statusFor maps an error kind to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrDuplicateName),
		errors.Is(err, domain.ErrConflictingTransaction),
		errors.Is(err, domain.ErrProtectedCategory):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError // TranslationFailed, ExternalService and anything unclassified
	}
}

// respondError writes {"message"} with the mapped status, internal causes are only logged
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := domain.Message(err, "Internal server error")
	if status >= http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.RequestIDKey), // Correlates with the response header
			"method":     c.Request.Method,                     // HTTP method
			"path":       c.FullPath(),                         // Route pattern
			"error":      err.Error(),                          // Full error chain
		}).Error("Request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

// bindJSON decodes the body into dest, an oversized body is PayloadTooLarge
func bindJSON(c *gin.Context, dest any) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.Errorf(domain.ErrPayloadTooLarge, "Payload too large")
		}
		return domain.Wrap(domain.ErrInvalidInput, err, "Invalid request body")
	}
	return nil
}

// accountID returns the authenticated caller's account id
func accountID(c *gin.Context) uint {
	return c.GetUint(middleware.AccountIDKey)
}

// pathID parses a positive numeric path parameter, anything else is NotFound
func pathID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, domain.Errorf(domain.ErrNotFound, "Resource not found")
	}
	return uint(id), nil
}

// queryInt parses an optional non-negative integer query parameter
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, domain.Errorf(domain.ErrInvalidInput, "Query parameter %s must be a non-negative integer", name)
	}
	return v, nil
}
