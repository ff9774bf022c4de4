package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quiz-arena/arena-backend/internal/api/middleware"
	"github.com/quiz-arena/arena-backend/internal/models"
	"github.com/quiz-arena/arena-backend/internal/service"
)

// ProfileHandler 아레나 프로필 및 리더보드 HTTP 핸들러
type ProfileHandler struct {
	profiles *service.ProfileService
}

func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GetMe 본인 프로필 조회 (없으면 기본값으로 생성)
func (h *ProfileHandler) GetMe(c *gin.Context) {
	userID := middleware.UserID(c)

	profile, err := h.profiles.GetOrCreate(userID, middleware.DisplayName(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetByID 프로필 조회 ("me"는 본인 프로필, 없으면 생성)
func (h *ProfileHandler) GetByID(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "me" {
		h.GetMe(c)
		return
	}

	profile, err := h.profiles.Get(userID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateMe 본인 프로필 편집 (아바타 클래스, 타워 층)
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	profile, err := h.profiles.Update(middleware.UserID(c), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAvatarClass):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown avatar class"})
		case errors.Is(err, service.ErrInvalidTowerFloor):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Tower floor must be at least 1"})
		case errors.Is(err, service.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		}
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Leaderboard 레이팅 상위 N명 (기본 20, 최대 100)
func (h *ProfileHandler) Leaderboard(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = parsed
	}

	profiles, err := h.profiles.Leaderboard(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": profiles,
		"count":   len(profiles),
	})
}
