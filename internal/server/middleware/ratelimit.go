// file: internal/server/middleware/ratelimit.go
// version: 2.0.0
// guid: 7b8c9d0e-f1a2-4b3c-8d4e-5f6a7b8c9d0e

package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jdfalk/bookmeta/internal/metrics"
	"github.com/jdfalk/bookmeta/internal/ratelimit"
)

// RateLimit enforces the per-fingerprint fixed-window budget. The
// fingerprint combines the client IP with a short hash of the User-Agent,
// and clients with a missing or unusually short User-Agent get the reduced
// budget.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		ident := c.Request.UserAgent()

		decision := limiter.Admit(ratelimit.Fingerprint(ip, ident), limiter.BudgetFor(ident))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			metrics.IncRateLimited()
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":               "rate limit exceeded",
				"code":                "RATE_LIMITED",
				"status":              http.StatusTooManyRequests,
				"retry_after_seconds": retryAfter,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
