package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quiz-arena/arena-backend/internal/api/middleware"
	"github.com/quiz-arena/arena-backend/internal/models"
	"github.com/quiz-arena/arena-backend/internal/service"
	ws "github.com/quiz-arena/arena-backend/internal/websocket"
)

// LobbyHandler 매치 생성/목록/핸드셰이크 HTTP 핸들러
type LobbyHandler struct {
	lobby *service.LobbyService
	pool  *service.PoolService
	hub   *ws.Hub
}

func NewLobbyHandler(lobby *service.LobbyService, pool *service.PoolService, hub *ws.Hub) *LobbyHandler {
	return &LobbyHandler{
		lobby: lobby,
		pool:  pool,
		hub:   hub,
	}
}

// Create 대기 매치 생성
func (h *LobbyHandler) Create(c *gin.Context) {
	var req models.CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source is required (arena or exam)"})
		return
	}
	if req.Source != models.SourceArena && req.Source != models.SourceExam {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source must be arena or exam"})
		return
	}

	match, err := h.lobby.CreateMatch(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyPool) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No questions available for the requested filters"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create match"})
		return
	}

	c.JSON(http.StatusCreated, match)
}

// List 대기 중인 매치 목록 (본인 방 제외)
func (h *LobbyHandler) List(c *gin.Context) {
	matches, err := h.lobby.ListWaiting(middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list matches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches": matches,
		"count":   len(matches),
	})
}

// Get 매치 단건 조회
func (h *LobbyHandler) Get(c *gin.Context) {
	match, err := h.lobby.GetMatch(c.Param("id"))
	if err != nil {
		h.writeLobbyError(c, err)
		return
	}

	c.JSON(http.StatusOK, match)
}

// Challenge 도전 등록 (waiting → challenged)
func (h *LobbyHandler) Challenge(c *gin.Context) {
	match, err := h.lobby.Challenge(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		h.writeLobbyError(c, err)
		return
	}

	c.JSON(http.StatusOK, match)
}

// Accept 호스트의 도전 수락 (challenged → playing)
func (h *LobbyHandler) Accept(c *gin.Context) {
	match, err := h.lobby.Accept(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		h.writeLobbyError(c, err)
		return
	}

	c.JSON(http.StatusOK, match)
}

// Reject 호스트의 도전 거절 (challenged → waiting)
func (h *LobbyHandler) Reject(c *gin.Context) {
	match, err := h.lobby.Reject(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		h.writeLobbyError(c, err)
		return
	}

	c.JSON(http.StatusOK, match)
}

// Cancel 방 닫기: 호스트는 방 삭제, 도전자는 같은 경로로 도전 철회
func (h *LobbyHandler) Cancel(c *gin.Context) {
	if err := h.lobby.Cancel(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		h.writeLobbyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Match cancelled"})
}

// Questions 매치에 스냅샷된 문항 전체 조회 (참가자 전용)
// 연결이 끊겼다 재접속한 클라이언트가 현재 문항을 복원할 때 쓴다.
func (h *LobbyHandler) Questions(c *gin.Context) {
	match, err := h.lobby.GetMatch(c.Param("id"))
	if err != nil {
		h.writeLobbyError(c, err)
		return
	}
	if !match.HasPlayer(middleware.UserID(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only participants can view match questions"})
		return
	}

	questions, err := h.pool.ResolveQuestions(match.QuestionIDs)
	if err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			c.JSON(http.StatusConflict, gin.H{"error": "A snapshotted question is no longer available"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve questions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"questions":       questions,
		"currentQuestion": match.CurrentQuestion,
	})
}

// ServeLobbyWs 로비 알림 WebSocket 연결 (방 생성 브로드캐스트 수신용)
func (h *LobbyHandler) ServeLobbyWs(c *gin.Context) {
	ws.ServeWs(h.hub, c.Writer, c.Request, middleware.UserID(c))
}

func (h *LobbyHandler) writeLobbyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMatchNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
	case errors.Is(err, service.ErrOwnRoom):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot challenge your own room"})
	case errors.Is(err, service.ErrAlreadyClaimed):
		c.JSON(http.StatusConflict, gin.H{"error": "Match already has a challenger"})
	case errors.Is(err, service.ErrNotHost):
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the host can perform this action"})
	case errors.Is(err, service.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "Only participants can perform this action"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Match is not in a state that allows this action"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
