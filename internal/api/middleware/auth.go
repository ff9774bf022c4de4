package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quiz-arena/arena-backend/internal/config"
	jwtutil "github.com/quiz-arena/arena-backend/pkg/jwt"
)

// Auth JWT 인증 미들웨어
// 플랫폼 SSO가 발급한 토큰에서 userId/displayName을 꺼내 context에 넣는다.
func Auth(cfg *config.Config) gin.HandlerFunc {
	jwtManager := jwtutil.NewManager(cfg.JWTSecret, cfg.JWTExpiration)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// WebSocket 연결은 헤더 대신 쿼리 파라미터로 토큰을 받을 수 있다
			if token := c.Query("token"); token != "" {
				authHeader = "Bearer " + token
			}
		}

		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		// "Bearer <token>" 형식 파싱
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format",
			})
			c.Abort()
			return
		}

		claims, err := jwtManager.Verify(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("displayName", claims.DisplayName)

		c.Next()
	}
}

// UserID context에서 인증된 사용자 ID 추출
func UserID(c *gin.Context) string {
	if v, exists := c.Get("userId"); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// DisplayName context에서 표시 이름 추출
func DisplayName(c *gin.Context) string {
	if v, exists := c.Get("displayName"); exists {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return ""
}
