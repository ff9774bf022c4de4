package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quiz-arena/arena-backend/internal/api/middleware"
	"github.com/quiz-arena/arena-backend/internal/config"
	"github.com/quiz-arena/arena-backend/internal/realtime"
	"github.com/quiz-arena/arena-backend/internal/service"
	ws "github.com/quiz-arena/arena-backend/internal/websocket"
	"go.uber.org/zap"
)

// BattleHandler 배틀 진행 HTTP/WebSocket 핸들러
type BattleHandler struct {
	battle  *service.BattleService
	watcher *realtime.Watcher
	cfg     *config.Config
	logger  *zap.Logger
}

func NewBattleHandler(battle *service.BattleService, watcher *realtime.Watcher, cfg *config.Config, logger *zap.Logger) *BattleHandler {
	return &BattleHandler{
		battle:  battle,
		watcher: watcher,
		cfg:     cfg,
		logger:  logger,
	}
}

type answerRequest struct {
	QuestionIndex int     `json:"questionIndex"`
	ChosenIndex   int     `json:"chosenIndex"`
	TimeTaken     float64 `json:"timeTaken"`
}

// SubmitAnswer REST 경로로 답안 제출 (WebSocket 불가 클라이언트용)
func (h *BattleHandler) SubmitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.battle.SubmitAnswer(
		c.Request.Context(),
		c.Param("id"),
		middleware.UserID(c),
		req.QuestionIndex,
		req.ChosenIndex,
		req.TimeTaken,
	)
	if err != nil {
		h.writeBattleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Events 매치 이벤트 로그 조회 (참가자 전용, 복기용)
func (h *BattleHandler) Events(c *gin.Context) {
	events, err := h.battle.MatchEvents(c.Param("id"), middleware.UserID(c))
	if err != nil {
		h.writeBattleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}

// ServeBattleWs 배틀 WebSocket 연결
// 참가자 한 명의 배틀 루프(세션)와 재조정 뷰 스트림(watcher)을 묶어
// 한 연결 위에서 돌린다. 연결이 끊기면 둘 다 함께 취소된다.
func (h *BattleHandler) ServeBattleWs(c *gin.Context) {
	matchID := c.Param("id")
	userID := middleware.UserID(c)

	ctx, cancel := context.WithCancel(c.Request.Context())

	views, err := h.watcher.Watch(ctx, matchID)
	if err != nil {
		cancel()
		c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
		return
	}

	session := service.NewBattleSession(
		h.battle,
		matchID,
		userID,
		h.cfg.QuestionTime,
		h.cfg.RevealTime,
		h.logger,
	)

	go func() {
		if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			h.logger.Warn("Battle session ended with error",
				zap.String("matchId", matchID),
				zap.String("playerId", userID),
				zap.Error(err))
		}
	}()

	ws.ServeBattle(c.Writer, c.Request, session, views, cancel, h.logger)
}

func (h *BattleHandler) writeBattleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMatchNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
	case errors.Is(err, service.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "Only participants can submit answers"})
	case errors.Is(err, service.ErrMatchNotPlaying):
		c.JSON(http.StatusConflict, gin.H{"error": "Match is not in progress"})
	case errors.Is(err, service.ErrQuestionNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Question index out of range or question unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
