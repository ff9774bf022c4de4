package models

import "time"

// DefaultEloRating 최초 옵트인 시 레이팅
const DefaultEloRating = 1000

type ArenaProfile struct {
	ID          string    `json:"id" db:"id"` // = user id
	DisplayName string    `json:"displayName" db:"display_name"`
	AvatarClass string    `json:"avatarClass" db:"avatar_class"`
	EloRating   int       `json:"eloRating" db:"elo_rating"`
	TotalXP     int       `json:"totalXp" db:"total_xp"`
	Wins        int       `json:"wins" db:"wins"`
	Losses      int       `json:"losses" db:"losses"`
	TowerFloor  int       `json:"towerFloor" db:"tower_floor"` // 싱글플레이 타워 모드 전용
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type UpdateProfileRequest struct {
	AvatarClass *string `json:"avatarClass"`
	TowerFloor  *int    `json:"towerFloor"`
}
