package service

import (
	"context"
	"errors"
	"time"

	"github.com/quiz-arena/arena-backend/internal/models"
	"go.uber.org/zap"
)

// SessionEventType 세션이 클라이언트에게 내보내는 이벤트
type SessionEventType string

const (
	SessionQuestion SessionEventType = "question"
	SessionReveal   SessionEventType = "reveal"
	SessionEnd      SessionEventType = "match_end"
)

type SessionEvent struct {
	Type          SessionEventType      `json:"type"`
	QuestionIndex int                   `json:"questionIndex,omitempty"`
	Question      *models.ArenaQuestion `json:"question,omitempty"`
	Result        *AnswerResult         `json:"result,omitempty"`
	Match         *models.ArenaMatch    `json:"match,omitempty"`
}

// BattleSession 접속한 참가자 한 명의 배틀 루프
// loading → active → revealed → advancing → (active | ended) 를 그대로 돈다.
// 카운트다운은 클라이언트 로컬 타이머라서 양쪽 세션이 서로 기다리지 않는다
// (약간의 스큐는 설계상 허용, 동기화는 저장소와 notifier가 담당).
type BattleSession struct {
	svc          *BattleService
	matchID      string
	playerID     string
	questionTime time.Duration
	revealTime   time.Duration
	answers      chan int
	events       chan SessionEvent
	logger       *zap.Logger
}

func NewBattleSession(svc *BattleService, matchID, playerID string, questionTime, revealTime time.Duration, logger *zap.Logger) *BattleSession {
	return &BattleSession{
		svc:          svc,
		matchID:      matchID,
		playerID:     playerID,
		questionTime: questionTime,
		revealTime:   revealTime,
		answers:      make(chan int, 1),
		events:       make(chan SessionEvent, 8),
		logger:       logger,
	}
}

// Events 세션 이벤트 스트림 (Run 종료 시 닫힌다)
func (s *BattleSession) Events() <-chan SessionEvent {
	return s.events
}

// Answer 현재 문항에 대한 답 제출 (논블로킹, 문항당 첫 답만 유효)
func (s *BattleSession) Answer(index int) {
	select {
	case s.answers <- index:
	default:
		// 이미 이번 문항 답이 들어와 있으면 무시
	}
}

// Run 세션 실행. ctx 취소(연결 끊김) 또는 매치 종료 시 반환한다.
func (s *BattleSession) Run(ctx context.Context) error {
	defer close(s.events)

	match, err := s.svc.matches.FindByID(s.matchID)
	if err != nil {
		return err
	}
	if match == nil {
		return ErrMatchNotFound
	}
	if !match.HasPlayer(s.playerID) {
		return ErrNotParticipant
	}
	if match.Status != models.MatchStatusPlaying {
		return ErrMatchNotPlaying
	}

	questions, err := s.svc.pool.ResolveQuestions(match.QuestionIDs)
	if err != nil {
		return err
	}

	for i := match.CurrentQuestion; i < len(questions); i++ {
		// 이전 문항의 늦은 답이 남아있으면 문항 제시 전에 버린다
		select {
		case <-s.answers:
		default:
		}

		s.emit(SessionEvent{
			Type:          SessionQuestion,
			QuestionIndex: i,
			Question:      questions[i],
		})

		chosen, elapsed, err := s.waitForAnswer(ctx)
		if err != nil {
			return err
		}

		result, err := s.svc.SubmitAnswer(ctx, s.matchID, s.playerID, i, chosen, elapsed)
		if errors.Is(err, ErrMatchNotPlaying) {
			// 상대 쪽에서 이미 종료된 매치
			break
		}
		if err != nil {
			return err
		}

		s.emit(SessionEvent{
			Type:          SessionReveal,
			QuestionIndex: i,
			Result:        result,
		})

		select {
		case <-time.After(s.revealTime):
		case <-ctx.Done():
			return ctx.Err()
		}

		current, err := s.svc.matches.FindByID(s.matchID)
		if err != nil {
			return err
		}
		if current == nil || !ShouldAdvance(current, i+1) {
			break
		}

		if err := s.svc.matches.AdvanceQuestion(s.matchID, i+1); err != nil {
			s.logger.Warn("Failed to advance question",
				zap.String("matchId", s.matchID), zap.Error(err))
		}
	}

	final, err := s.svc.FinishMatch(ctx, s.matchID)
	if err != nil {
		return err
	}

	s.emit(SessionEvent{
		Type:  SessionEnd,
		Match: final,
	})

	return nil
}

// waitForAnswer 답 또는 타임아웃 대기 (타임아웃 = 자동 오답, 인덱스 -1)
func (s *BattleSession) waitForAnswer(ctx context.Context) (chosen int, elapsed float64, err error) {
	start := time.Now()
	timer := time.NewTimer(s.questionTime)
	defer timer.Stop()

	select {
	case idx := <-s.answers:
		return idx, time.Since(start).Seconds(), nil
	case <-timer.C:
		return -1, s.questionTime.Seconds(), nil
	case <-ctx.Done():
		return 0, 0, ctx.Err()
	}
}

func (s *BattleSession) emit(event SessionEvent) {
	select {
	case s.events <- event:
	default:
		s.logger.Warn("Session event buffer full, dropping event",
			zap.String("matchId", s.matchID),
			zap.String("type", string(event.Type)))
	}
}
