package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quiz-arena/arena-backend/pkg/logger"
	"github.com/quiz-arena/arena-backend/pkg/ratelimit"
)

// RateLimit 인스턴스 로컬 토큰 버킷 기반 Rate Limit (답안 제출 같은 고빈도 경로)
func RateLimit(capacity, refillRate int64) gin.HandlerFunc {
	limiter := ratelimit.NewLimiter(capacity, refillRate)

	return func(c *gin.Context) {
		key := UserID(c)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}

		if !limiter.Allow(key) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RedisRateLimit Redis 기반 인스턴스 공유 Rate Limit (방 생성 같은 쓰기 경로)
// Redis 장애 시에는 요청을 막지 않고 통과시킨다.
func RedisRateLimit(limiter *ratelimit.RedisLimiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := UserID(c)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}

		allowed, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("Rate limit check failed, allowing request", "error", err)
			c.Next()
			return
		}

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
