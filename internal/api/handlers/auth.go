package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quiz-arena/arena-backend/internal/config"
	jwtutil "github.com/quiz-arena/arena-backend/pkg/jwt"
)

// AuthHandler 개발용 토큰 발급
// 운영에서는 플랫폼 SSO가 토큰을 발급하므로 이 엔드포인트는 development
// 환경에서만 라우팅된다 (사용자 저장소는 외부 협력 시스템이다).
type AuthHandler struct {
	jwtManager *jwtutil.Manager
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		jwtManager: jwtutil.NewManager(cfg.JWTSecret, cfg.JWTExpiration),
	}
}

type tokenRequest struct {
	UserID      string `json:"userId" binding:"required"`
	DisplayName string `json:"displayName"`
}

// IssueToken 개발용 JWT 발급
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	if req.DisplayName == "" {
		req.DisplayName = req.UserID
	}

	token, err := h.jwtManager.Generate(req.UserID, req.DisplayName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
