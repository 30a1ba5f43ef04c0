// file: internal/server/error_handler.go
// version: 1.0.0
// guid: 6a7b8c9d-e0f1-4a2b-9c3d-4e5f6a7b8c9d

package server

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jdfalk/bookmeta/internal/validator"
)

// ErrorResponse provides a consistent error response format
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Status  int                    `json:"status"`
	Details []validator.FieldError `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response and logs the error
func RespondWithError(c *gin.Context, statusCode int, message string, code string) {
	logErrorWithContext(c, statusCode, message)
	c.JSON(statusCode, ErrorResponse{
		Error:  message,
		Code:   code,
		Status: statusCode,
	})
}

// RespondWithValidationErrors sends a 400 carrying every violated
// constraint at once so a caller can fix all of them in one round trip.
func RespondWithValidationErrors(c *gin.Context, errs []validator.FieldError) {
	logErrorWithContext(c, http.StatusBadRequest, "validation failed")
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation failed",
		Code:    "VALIDATION_ERROR",
		Status:  http.StatusBadRequest,
		Details: errs,
	})
}

// RespondWithNotFound sends a 404 Not Found error response
func RespondWithNotFound(c *gin.Context, resourceType string, id string) {
	message := resourceType + " not found"
	if id != "" {
		message = message + ": " + id
	}
	RespondWithError(c, http.StatusNotFound, message, "NOT_FOUND")
}

// RespondWithServiceUnavailable sends a 503 when every provider failed.
func RespondWithServiceUnavailable(c *gin.Context, message string) {
	logErrorWithContext(c, http.StatusServiceUnavailable, message)
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error":  message,
		"code":   "ALL_PROVIDERS_FAILED",
		"status": http.StatusServiceUnavailable,
		"items":  []any{},
	})
}

// RespondWithTooManyRequests sends a 429 with a Retry-After header.
func RespondWithTooManyRequests(c *gin.Context, retryAfterSeconds int) {
	c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	logErrorWithContext(c, http.StatusTooManyRequests, "rate limit exceeded")
	c.JSON(http.StatusTooManyRequests, ErrorResponse{
		Error:  "rate limit exceeded",
		Code:   "RATE_LIMITED",
		Status: http.StatusTooManyRequests,
	})
}

// logErrorWithContext logs an error with request context for debugging
func logErrorWithContext(c *gin.Context, statusCode int, message string) {
	logLevel := "WARNING"
	if statusCode >= 500 {
		logLevel = "ERROR"
	}
	log.Printf("[%s] %s %s %d - %s (from %s)", logLevel, c.Request.Method, c.Request.URL.Path, statusCode, message, c.ClientIP())
}
