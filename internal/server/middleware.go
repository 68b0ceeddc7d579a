package server

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit applies the configured limiter per client IP for the named endpoint.
// Limiter failures fail closed with 503.
func (s *Server) RateLimit(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		res, err := s.limiter.Allow(ctx, endpoint+":"+c.ClientIP())
		if err != nil {
			s.log.Warn("rate limiter failed", zap.String("endpoint", endpoint), zap.Error(err))
			s.obsMetrics.RecordRateLimitDenied(ctx, endpoint, "unavailable")
			AbortWithError(c, ErrServiceUnavailable)
			return
		}

		if res.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
		}
		if !res.Allowed {
			s.obsMetrics.RecordRateLimitDenied(ctx, endpoint, "exhausted")
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			AbortWithError(c, ErrRateLimited)
			return
		}

		s.obsMetrics.RecordRateLimitAllowed(ctx, endpoint)
		c.Next()
	}
}
