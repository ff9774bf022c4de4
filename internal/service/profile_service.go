package service

import (
	"fmt"

	"github.com/quiz-arena/arena-backend/internal/models"
)

// 아바타 클래스는 코스메틱 태그 (열거형, 게임플레이 영향 없음)
var avatarClasses = map[string]bool{
	"scholar":   true,
	"sage":      true,
	"warrior":   true,
	"trickster": true,
}

type ProfileService struct {
	profiles ProfileStore
	users    UserDirectory
}

func NewProfileService(profiles ProfileStore, users UserDirectory) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		users:    users,
	}
}

// GetOrCreate 본인 프로필 조회, 최초 옵트인 시 기본값으로 생성
func (s *ProfileService) GetOrCreate(userID, fallbackName string) (*models.ArenaProfile, error) {
	name, err := s.users.DisplayName(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve display name: %w", err)
	}
	if name == "" {
		name = fallbackName
	}
	if name == "" {
		name = userID
	}

	return s.profiles.GetOrCreate(userID, name)
}

// Get 프로필 단건 조회
func (s *ProfileService) Get(userID string) (*models.ArenaProfile, error) {
	profile, err := s.profiles.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// Update 본인 프로필 편집 (아바타 클래스, 타워 층)
func (s *ProfileService) Update(userID string, req models.UpdateProfileRequest) (*models.ArenaProfile, error) {
	if req.AvatarClass != nil && !avatarClasses[*req.AvatarClass] {
		return nil, ErrInvalidAvatarClass
	}
	if req.TowerFloor != nil && *req.TowerFloor < 1 {
		return nil, ErrInvalidTowerFloor
	}

	profile, err := s.profiles.UpdateCosmetics(userID, req.AvatarClass, req.TowerFloor)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// Leaderboard elo_rating 내림차순 상위 N명
func (s *ProfileService) Leaderboard(limit int) ([]*models.ArenaProfile, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.profiles.TopByRating(limit)
}
