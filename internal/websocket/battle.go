package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/quiz-arena/arena-backend/internal/realtime"
	"github.com/quiz-arena/arena-backend/internal/service"
	"go.uber.org/zap"
)

// AnswerMessage 배틀 연결에서 클라이언트가 보내는 유일한 메시지
type AnswerMessage struct {
	Type  string `json:"type"` // "answer"
	Index int    `json:"index"`
}

// battleEnvelope 배틀 연결의 아웃바운드 메시지
type battleEnvelope struct {
	Type    string      `json:"type"` // "view" | "session"
	Payload interface{} `json:"payload"`
}

// ServeBattle 배틀 WebSocket 연결 처리
// 한 연결 = 참가자 한 명의 배틀 루프. 세션 이벤트(문항/공개/종료)와
// 재조정된 매치 뷰를 내려보내고, 인바운드로는 답안 제출만 받는다.
// 연결이 끊기면 세션도 같이 취소된다 (재접속 시 현재 문항부터 재개).
func ServeBattle(
	w http.ResponseWriter,
	r *http.Request,
	session *service.BattleSession,
	views <-chan realtime.MatchView,
	cancel context.CancelFunc,
	logger *zap.Logger,
) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade battle connection", zap.Error(err))
		cancel()
		return
	}

	go battleReadPump(conn, session, cancel, logger)
	battleWritePump(conn, session, views, logger)
}

// battleReadPump 답안 수신 (연결 종료 시 세션 취소)
func battleReadPump(conn *websocket.Conn, session *service.BattleSession, cancel context.CancelFunc, logger *zap.Logger) {
	defer func() {
		cancel()
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg AnswerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("Failed to decode battle message", zap.Error(err))
			continue
		}

		if msg.Type == "answer" {
			session.Answer(msg.Index)
		}
	}
}

// battleWritePump 세션 이벤트와 매치 뷰 전송
func battleWritePump(conn *websocket.Conn, session *service.BattleSession, views <-chan realtime.MatchView, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	events := session.Events()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !writeBattleJSON(conn, battleEnvelope{Type: "session", Payload: event}, logger) {
				return
			}

		case view, ok := <-views:
			if !ok {
				return
			}
			if !writeBattleJSON(conn, battleEnvelope{Type: "view", Payload: view}, logger) {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeBattleJSON(conn *websocket.Conn, v interface{}, logger *zap.Logger) bool {
	conn.SetWriteDeadline(time.Now().Add(writeWait))

	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to marshal battle message", zap.Error(err))
		return true
	}

	return conn.WriteMessage(websocket.TextMessage, data) == nil
}
