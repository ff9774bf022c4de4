package service

import (
	"fmt"
	"math"

	"github.com/quiz-arena/arena-backend/internal/models"
	"go.uber.org/zap"
)

const (
	// WinnerXP / LoserXP 매치 종료 경험치 (무승부는 양쪽 다 LoserXP)
	WinnerXP = 50
	LoserXP  = 10
)

// RatingService Elo 레이팅 엔진
type RatingService struct {
	profiles ProfileStore
	kFactor  float64
	logger   *zap.Logger
}

func NewRatingService(profiles ProfileStore, logger *zap.Logger) *RatingService {
	return &RatingService{
		profiles: profiles,
		kFactor:  32, // K-factor: 레이팅 변동 폭
		logger:   logger,
	}
}

// ExpectedScore 로지스틱 Elo 기대 승률
func (s *RatingService) ExpectedScore(ratingA, ratingB int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(ratingB-ratingA)/400.0))
}

// NewRating round(R + K×(S − E))
func (s *RatingService) NewRating(rating int, score, expected float64) int {
	return int(math.Round(float64(rating) + s.kFactor*(score-expected)))
}

// ApplyMatchResult 종료된 매치의 레이팅/XP/전적 반영
// finishMatch의 상태 전이(CAS)를 통과한 쪽에서만 호출되므로 매치당 한 번만 실행된다.
// 실패 시 레이팅만 포기하고 status=finished는 그대로 둔다.
func (s *RatingService) ApplyMatchResult(match *models.ArenaMatch) error {
	if match.Status != models.MatchStatusFinished || match.Player2ID == nil {
		return fmt.Errorf("match %s is not a finished two-player match", match.ID)
	}

	p1, err := s.profiles.FindByID(match.Player1ID)
	if err != nil {
		return fmt.Errorf("failed to read player1 profile: %w", err)
	}
	p2, err := s.profiles.FindByID(*match.Player2ID)
	if err != nil {
		return fmt.Errorf("failed to read player2 profile: %w", err)
	}
	if p1 == nil || p2 == nil {
		return ErrProfileNotFound
	}

	// 실제 점수: 승 1, 패 0, 무 0.5
	score1 := 0.5
	if match.WinnerID != nil {
		if *match.WinnerID == p1.ID {
			score1 = 1.0
		} else {
			score1 = 0.0
		}
	}
	score2 := 1.0 - score1

	expected1 := s.ExpectedScore(p1.EloRating, p2.EloRating)
	expected2 := 1.0 - expected1

	new1 := s.NewRating(p1.EloRating, score1, expected1)
	new2 := s.NewRating(p2.EloRating, score2, expected2)

	xp1, xp2 := LoserXP, LoserXP
	if score1 == 1.0 {
		xp1 = WinnerXP
	} else if score2 == 1.0 {
		xp2 = WinnerXP
	}

	if err := s.profiles.UpdateRating(p1.ID, new1, xp1, score1 == 1.0, score1 == 0.0); err != nil {
		return fmt.Errorf("failed to update player1 rating: %w", err)
	}
	if err := s.profiles.UpdateRating(p2.ID, new2, xp2, score2 == 1.0, score2 == 0.0); err != nil {
		return fmt.Errorf("failed to update player2 rating: %w", err)
	}

	s.logger.Info("Ratings updated",
		zap.String("matchId", match.ID),
		zap.String("player1", p1.ID),
		zap.Int("player1Rating", new1),
		zap.String("player2", p2.ID),
		zap.Int("player2Rating", new2))

	return nil
}
