package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/quiz-arena/arena-backend/internal/models"
	"go.uber.org/zap"
)

// LobbyService 방 생성/목록/도전 핸드셰이크
type LobbyService struct {
	matches   MatchStore
	pool      *PoolService
	users     UserDirectory
	publisher StatePublisher
	announcer RoomAnnouncer
	logger    *zap.Logger
}

func NewLobbyService(
	matches MatchStore,
	pool *PoolService,
	users UserDirectory,
	publisher StatePublisher,
	announcer RoomAnnouncer,
	logger *zap.Logger,
) *LobbyService {
	return &LobbyService{
		matches:   matches,
		pool:      pool,
		users:     users,
		publisher: publisher,
		announcer: announcer,
		logger:    logger,
	}
}

// CreateMatch 대기 매치 생성
// 풀이 비면 매치를 저장하지 않고 ErrEmptyPool을 반환한다.
func (s *LobbyService) CreateMatch(ctx context.Context, hostID string, req models.CreateMatchRequest) (*models.ArenaMatch, error) {
	subject := ""
	if req.Subject != nil {
		subject = *req.Subject
	}
	grade := ""
	if req.Grade != nil {
		grade = *req.Grade
	}

	questionIDs, err := s.pool.BuildPool(req.Source, subject, grade)
	if err != nil {
		return nil, err
	}
	if len(questionIDs) == 0 {
		return nil, ErrEmptyPool
	}

	match, err := s.matches.Create(uuid.NewString(), hostID, questionIDs, req.Source, req.Subject, req.Grade)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	s.logger.Info("Arena match created",
		zap.String("matchId", match.ID),
		zap.String("hostId", hostID),
		zap.String("source", string(match.Source)),
		zap.Int("questions", len(questionIDs)))

	// 학급 구성원에게 방 생성 알림 (부가 기능, 실패해도 매치 생성은 유효)
	s.announceRoom(hostID, match)

	return match, nil
}

func (s *LobbyService) announceRoom(hostID string, match *models.ArenaMatch) {
	if s.announcer == nil {
		return
	}

	classmates, err := s.users.ClassmateIDs(hostID)
	if err != nil {
		s.logger.Warn("Failed to resolve classmates for room announcement",
			zap.String("hostId", hostID), zap.Error(err))
		return
	}
	if len(classmates) == 0 {
		return
	}

	hostName, err := s.users.DisplayName(hostID)
	if err != nil {
		s.logger.Warn("Failed to resolve host display name",
			zap.String("hostId", hostID), zap.Error(err))
		hostName = hostID
	}

	s.announcer.AnnounceRoom(hostName, match, classmates)
}

// ListWaiting 대기 중인 매치 목록 (최신 순, 호출자 본인의 방 제외)
func (s *LobbyService) ListWaiting(callerID string) ([]*models.ArenaMatch, error) {
	return s.matches.FindWaiting(callerID)
}

// GetMatch 매치 단건 조회
func (s *LobbyService) GetMatch(matchID string) (*models.ArenaMatch, error) {
	match, err := s.matches.FindByID(matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}
	return match, nil
}

// Challenge 도전 등록: waiting → challenged
// 두 도전자가 경합하면 조건부 업데이트로 정확히 한 명만 이기고,
// 진 쪽은 ErrAlreadyClaimed를 받는다.
func (s *LobbyService) Challenge(ctx context.Context, matchID, challengerID string) (*models.ArenaMatch, error) {
	match, err := s.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	if match.Player1ID == challengerID {
		return nil, ErrOwnRoom
	}

	claimed, err := s.matches.Claim(matchID, challengerID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrAlreadyClaimed
	}

	return s.publishTransition(ctx, matchID, "challenged")
}

// Accept 호스트가 도전 수락: challenged → playing
func (s *LobbyService) Accept(ctx context.Context, matchID, hostID string) (*models.ArenaMatch, error) {
	if err := s.requireHost(matchID, hostID); err != nil {
		return nil, err
	}

	ok, err := s.matches.Accept(matchID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	return s.publishTransition(ctx, matchID, "playing")
}

// Reject 호스트가 도전 거절: challenged → waiting, player2 해제
// 거절당한 도전자는 이 전이를 관찰하고 스스로 물러난다.
func (s *LobbyService) Reject(ctx context.Context, matchID, hostID string) (*models.ArenaMatch, error) {
	if err := s.requireHost(matchID, hostID); err != nil {
		return nil, err
	}

	ok, err := s.matches.Reject(matchID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	return s.publishTransition(ctx, matchID, "waiting")
}

// Cancel 방 닫기: 호스트는 waiting/challenged 상태의 방을 삭제하고,
// 도전자는 같은 경로로 도전을 철회한다 (challenged → waiting, 방은 유지).
func (s *LobbyService) Cancel(ctx context.Context, matchID, userID string) error {
	match, err := s.GetMatch(matchID)
	if err != nil {
		return err
	}

	if match.Player1ID == userID {
		ok, err := s.matches.DeleteIfOpen(matchID, userID)
		if err != nil {
			return err
		}
		if !ok {
			// 도전 수락과 취소가 경합해 이미 playing으로 넘어간 경우
			return ErrInvalidTransition
		}

		s.logger.Info("Arena match cancelled", zap.String("matchId", matchID), zap.String("hostId", userID))
		return nil
	}

	if match.Player2ID != nil && *match.Player2ID == userID {
		ok, err := s.matches.WithdrawChallenge(matchID, userID)
		if err != nil {
			return err
		}
		if !ok {
			// 이미 수락되었거나 거절되어 더 이상 도전자가 아닌 경우
			return ErrInvalidTransition
		}

		if _, err := s.publishTransition(ctx, matchID, "waiting"); err != nil {
			return err
		}

		s.logger.Info("Arena challenge withdrawn", zap.String("matchId", matchID), zap.String("challengerId", userID))
		return nil
	}

	return ErrNotParticipant
}

func (s *LobbyService) requireHost(matchID, userID string) error {
	match, err := s.GetMatch(matchID)
	if err != nil {
		return err
	}
	if match.Player1ID != userID {
		return ErrNotHost
	}
	return nil
}

func (s *LobbyService) publishTransition(ctx context.Context, matchID, to string) (*models.ArenaMatch, error) {
	match, err := s.GetMatch(matchID)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishState(ctx, match); err != nil {
			s.logger.Warn("Failed to publish match state",
				zap.String("matchId", matchID), zap.String("to", to), zap.Error(err))
		}
	}

	return match, nil
}
