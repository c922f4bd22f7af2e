package server

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/bistro/internal/observability/logger"
	"go.uber.org/zap"
)

// RatingRateLimit throttles rating submissions per caller. Redis failures
// let the request through; the per-day uniqueness does not depend on it.
func (s *Server) RatingRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.ratingLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)

		res, err := s.ratingLimiter.Allow(ctx, s.rateLimitCaller(c))
		if err != nil {
			logger.FromContext(ctx).Warn("rating rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			logger.FromContext(ctx).Warn("rating rate limit exceeded", zap.String("endpoint", endpoint))
			s.obsMetrics.RecordRateLimitDenied(ctx, endpoint)

			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			AbortWithError(c, ErrRateLimited)
			return
		}

		c.Next()
	}
}

// rateLimitCaller keys the bucket by user when one is known, else by IP.
func (s *Server) rateLimitCaller(c *gin.Context) string {
	if userID := s.callerID(c, readBodyUserID(c)); userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}

func readBodyUserID(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	var payload struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.UserID)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
