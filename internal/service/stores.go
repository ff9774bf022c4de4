package service

import (
	"context"
	"time"

	"github.com/quiz-arena/arena-backend/internal/models"
	"github.com/quiz-arena/arena-backend/internal/realtime"
)

// MatchStore 매치 레코드 저장소에 대한 좁은 인터페이스
// 상태 전이는 전부 이전 status를 조건으로 하는 단일 UPDATE여야 한다
// (bool 반환값 false = 조건 불일치, 즉 경합에서 진 쪽).
type MatchStore interface {
	Create(id, hostID string, questionIDs []string, source models.QuestionSource, subject, grade *string) (*models.ArenaMatch, error)
	FindByID(id string) (*models.ArenaMatch, error)
	FindWaiting(excludeHostID string) ([]*models.ArenaMatch, error)
	Claim(matchID, challengerID string) (bool, error)
	Accept(matchID string) (bool, error)
	Reject(matchID string) (bool, error)
	WithdrawChallenge(matchID, challengerID string) (bool, error)
	DeleteIfOpen(matchID, hostID string) (bool, error)
	ApplyDamage(matchID string, targetIsPlayer1 bool, damage int) (*models.ArenaMatch, error)
	AdvanceQuestion(matchID string, index int) error
	Finish(matchID string) (bool, error)
	FindStalePlaying(cutoff time.Time) ([]*models.ArenaMatch, error)
}

type QuestionStore interface {
	FindByFilters(subject, topic string) ([]*models.ArenaQuestion, error)
	FindByIDs(ids []string) (map[string]*models.ArenaQuestion, error)
}

type ExamStore interface {
	FindPublishedMCQs(subject, grade string) ([]*models.ArenaQuestion, error)
	FindExamQuestion(examID, questionID string) (*models.ArenaQuestion, error)
}

type ProfileStore interface {
	FindByID(id string) (*models.ArenaProfile, error)
	GetOrCreate(id, displayName string) (*models.ArenaProfile, error)
	UpdateRating(id string, newRating, xpGain int, won, lost bool) error
	UpdateCosmetics(id string, avatarClass *string, towerFloor *int) (*models.ArenaProfile, error)
	TopByRating(limit int) ([]*models.ArenaProfile, error)
}

type EventStore interface {
	Append(event *models.MatchEvent) error
	FindByMatchID(matchID string) ([]*models.MatchEvent, error)
}

// UserDirectory 아이덴티티 협력 시스템 (읽기 전용)
type UserDirectory interface {
	DisplayName(userID string) (string, error)
	ClassmateIDs(userID string) ([]string, error)
}

// StatePublisher 매치 변경 전파 채널 (realtime.Notifier가 구현)
type StatePublisher interface {
	PublishState(ctx context.Context, match *models.ArenaMatch) error
	PublishDamage(ctx context.Context, msg realtime.DamageMessage) error
}

// RoomAnnouncer 방 생성 부가 알림 (websocket.Hub가 구현)
type RoomAnnouncer interface {
	AnnounceRoom(hostName string, match *models.ArenaMatch, recipients []string)
}
