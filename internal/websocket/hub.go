package websocket

import (
	"sync"

	"github.com/quiz-arena/arena-backend/internal/models"
	"go.uber.org/zap"
)

// Hub 로비 알림용 WebSocket 연결 관리 및 브로드캐스트
type Hub struct {
	// 사용자별 연결 저장 (userID -> *Client)
	clients map[string]*Client
	mu      sync.RWMutex

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client

	logger *zap.Logger
}

// Message WebSocket 메시지
type Message struct {
	UserID  string      `json:"-"`       // 수신자 (빈 문자열이면 전체 브로드캐스트)
	Type    string      `json:"type"`    // 메시지 타입
	Payload interface{} `json:"payload"` // 메시지 내용
}

// RoomCreatedMessage 학급 구성원에게 보내는 방 생성 알림
type RoomCreatedMessage struct {
	MatchID  string                `json:"matchId"`
	HostName string                `json:"hostName"`
	Source   models.QuestionSource `json:"source"`
	Subject  *string               `json:"subject,omitempty"`
}

// NewHub Hub 생성
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run Hub 실행
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// 기존 연결이 있으면 닫기
	if oldClient, exists := h.clients[client.userID]; exists {
		close(oldClient.send)
	}

	h.clients[client.userID] = client
	h.logger.Info("WebSocket client registered",
		zap.String("userId", client.userID),
		zap.Int("totalClients", len(h.clients)))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, exists := h.clients[client.userID]; exists && current == client {
		delete(h.clients, client.userID)
		close(client.send)
		h.logger.Info("WebSocket client unregistered",
			zap.String("userId", client.userID),
			zap.Int("totalClients", len(h.clients)))
	}
}

func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if message.UserID == "" {
		for _, client := range h.clients {
			h.trySend(client, message)
		}
		return
	}

	if client, exists := h.clients[message.UserID]; exists {
		h.trySend(client, message)
	}
}

func (h *Hub) trySend(client *Client, message *Message) {
	select {
	case client.send <- message:
	default:
		h.logger.Warn("Client send channel full, dropping message",
			zap.String("userId", client.userID))
	}
}

// SendToUser 특정 사용자에게 메시지 전송
func (h *Hub) SendToUser(userID string, msgType string, payload interface{}) {
	h.broadcast <- &Message{
		UserID:  userID,
		Type:    msgType,
		Payload: payload,
	}
}

// AnnounceRoom 방 생성 부가 알림 (service.RoomAnnouncer 구현)
func (h *Hub) AnnounceRoom(hostName string, match *models.ArenaMatch, recipients []string) {
	payload := RoomCreatedMessage{
		MatchID:  match.ID,
		HostName: hostName,
		Source:   match.Source,
		Subject:  match.FilterSubject,
	}

	for _, userID := range recipients {
		h.SendToUser(userID, "room_created", payload)
	}
}
