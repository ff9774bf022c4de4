package service

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/quiz-arena/arena-backend/internal/models"
	"github.com/quiz-arena/arena-backend/internal/realtime"
	"go.uber.org/zap"
)

const (
	// QuestionSeconds 문항당 카운트다운 (데미지 공식의 기준 시간)
	QuestionSeconds = 15
	// BaseDamage 정답 기본 데미지
	BaseDamage = 20
	// SpeedBonusFactor 남은 시간 1초당 보너스 데미지
	SpeedBonusFactor = 0.7
)

// DamageForAnswer 답안 데미지 계산
// 정답: 20 + max(0, round((15 − timeTaken) × 0.7)), 오답/타임아웃: 0
func DamageForAnswer(correct bool, timeTaken float64) int {
	if !correct {
		return 0
	}

	bonus := math.Round((QuestionSeconds - timeTaken) * SpeedBonusFactor)
	if bonus < 0 {
		bonus = 0
	}

	return BaseDamage + int(bonus)
}

// AnswerResult 답안 제출 결과
type AnswerResult struct {
	Correct      bool               `json:"correct"`
	CorrectIndex int                `json:"correctIndex"`
	Damage       int                `json:"damage"`
	Match        *models.ArenaMatch `json:"match"`
}

// BattleService 배틀 루프의 저장소 쪽 절반: 답안 판정, 데미지 적용, 종료 처리
type BattleService struct {
	matches  MatchStore
	events   EventStore
	pool     *PoolService
	rating   *RatingService
	notifier StatePublisher
	logger   *zap.Logger
}

func NewBattleService(
	matches MatchStore,
	events EventStore,
	pool *PoolService,
	rating *RatingService,
	notifier StatePublisher,
	logger *zap.Logger,
) *BattleService {
	return &BattleService{
		matches:  matches,
		events:   events,
		pool:     pool,
		rating:   rating,
		notifier: notifier,
		logger:   logger,
	}
}

// SubmitAnswer 답안 제출 처리 (타임아웃은 chosenIndex = -1)
// 정답이면 상대 HP에만 데미지를 쓴다. 자기 HP는 자기 답으로 절대 줄지 않는다.
func (s *BattleService) SubmitAnswer(ctx context.Context, matchID, playerID string, questionIndex, chosenIndex int, timeTaken float64) (*AnswerResult, error) {
	match, err := s.matches.FindByID(matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}
	if !match.HasPlayer(playerID) {
		return nil, ErrNotParticipant
	}
	if match.Status != models.MatchStatusPlaying {
		return nil, ErrMatchNotPlaying
	}
	if questionIndex < 0 || questionIndex >= len(match.QuestionIDs) {
		return nil, ErrQuestionNotFound
	}

	questions, err := s.pool.ResolveQuestions([]string{match.QuestionIDs[questionIndex]})
	if err != nil {
		return nil, err
	}
	question := questions[0]

	if timeTaken < 0 {
		timeTaken = 0
	} else if timeTaken > QuestionSeconds {
		timeTaken = QuestionSeconds
	}

	correct := chosenIndex >= 0 && chosenIndex == question.CorrectIndex
	damage := DamageForAnswer(correct, timeTaken)

	eventType := models.EventAnswerWrong
	if correct {
		eventType = models.EventAnswerCorrect
	}

	// 감사 로그는 상태 계산에 읽히지 않으므로 실패해도 제출 자체는 계속 진행
	if err := s.events.Append(&models.MatchEvent{
		ID:            uuid.NewString(),
		MatchID:       matchID,
		PlayerID:      playerID,
		EventType:     eventType,
		QuestionIndex: questionIndex,
		Damage:        damage,
		TimeTaken:     timeTaken,
		ChosenIndex:   chosenIndex,
	}); err != nil {
		s.logger.Error("Failed to append match event",
			zap.String("matchId", matchID), zap.Error(err))
	}

	result := &AnswerResult{
		Correct:      correct,
		CorrectIndex: question.CorrectIndex,
		Damage:       damage,
		Match:        match,
	}

	if damage == 0 {
		return result, nil
	}

	// 피어 브로드캐스트를 저장소 쓰기보다 먼저 쏜다 (지연 최적화, 권위 없음)
	targetIsPlayer1 := match.Player1ID != playerID
	targetID := match.OpponentOf(playerID)
	if s.notifier != nil {
		if err := s.notifier.PublishDamage(ctx, realtime.DamageMessage{
			MatchID:        matchID,
			TargetPlayerID: targetID,
			Damage:         damage,
			QuestionIndex:  questionIndex,
		}); err != nil {
			s.logger.Warn("Failed to publish damage broadcast",
				zap.String("matchId", matchID), zap.Error(err))
		}
	}

	updated, err := s.matches.ApplyDamage(matchID, targetIsPlayer1, damage)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// 상대가 이미 매치를 종료시킨 경우: 권위 레코드를 그대로 돌려준다
		updated, err = s.matches.FindByID(matchID)
		if err != nil || updated == nil {
			return nil, ErrMatchNotPlaying
		}
	}
	result.Match = updated

	if s.notifier != nil {
		if err := s.notifier.PublishState(ctx, updated); err != nil {
			s.logger.Warn("Failed to publish match state",
				zap.String("matchId", matchID), zap.Error(err))
		}
	}

	return result, nil
}

// MatchEvents 매치의 답안 이벤트 로그 (참가자 전용, 매치 종료 후 복기용)
func (s *BattleService) MatchEvents(matchID, requesterID string) ([]*models.MatchEvent, error) {
	match, err := s.matches.FindByID(matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}
	if !match.HasPlayer(requesterID) {
		return nil, ErrNotParticipant
	}

	return s.events.FindByMatchID(matchID)
}

// FinishMatch 종료 처리: playing → finished 전이
// 승자 판정은 저장소의 전이 UPDATE 안에서 HP로 이뤄진다. 여기서 미리 읽은
// HP로 판정하면 전이 직전에 들어온 상대의 마지막 데미지를 놓칠 수 있다.
// 양쪽 클라이언트가 각자 호출해도 안전하다: status를 실제로 뒤집은 호출만
// 레이팅 갱신을 수행하고, 나머지는 이미 종료된 매치를 돌려받는다.
func (s *BattleService) FinishMatch(ctx context.Context, matchID string) (*models.ArenaMatch, error) {
	match, err := s.matches.FindByID(matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}
	if match.Status == models.MatchStatusFinished {
		return match, nil
	}
	if match.Status != models.MatchStatusPlaying {
		return nil, ErrMatchNotPlaying
	}

	flipped, err := s.matches.Finish(matchID)
	if err != nil {
		return nil, err
	}

	final, err := s.matches.FindByID(matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload finished match: %w", err)
	}
	if final == nil {
		return nil, ErrMatchNotFound
	}

	if !flipped {
		// 반대쪽이 먼저 종료시켰다. 레이팅은 그쪽에서 처리됐다.
		return final, nil
	}

	s.logger.Info("Match finished",
		zap.String("matchId", matchID),
		zap.Any("winnerId", final.WinnerID),
		zap.Int("player1Hp", final.Player1HP),
		zap.Int("player2Hp", final.Player2HP))

	if err := s.rating.ApplyMatchResult(final); err != nil {
		// 레이팅 실패가 종료 기록을 되돌리지는 않는다 (희귀 경로 한계로 수용)
		s.logger.Error("Failed to apply rating update",
			zap.String("matchId", matchID), zap.Error(err))
	}

	if s.notifier != nil {
		if err := s.notifier.PublishState(ctx, final); err != nil {
			s.logger.Warn("Failed to publish final match state",
				zap.String("matchId", matchID), zap.Error(err))
		}
	}

	return final, nil
}

// ShouldAdvance 다음 문항으로 넘어갈지 판정
// 남은 문항이 있고 양쪽 HP가 모두 0보다 클 때만 계속한다.
func ShouldAdvance(match *models.ArenaMatch, nextIndex int) bool {
	if match.Status != models.MatchStatusPlaying {
		return false
	}
	if nextIndex >= len(match.QuestionIDs) {
		return false
	}
	return match.Player1HP > 0 && match.Player2HP > 0
}
