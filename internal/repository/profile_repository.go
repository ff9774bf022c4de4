package repository

import (
	"database/sql"
	"fmt"

	"github.com/quiz-arena/arena-backend/internal/models"
	"github.com/quiz-arena/arena-backend/pkg/database"
)

type ProfileRepository struct {
	db *database.DB
}

func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, display_name, avatar_class, elo_rating, total_xp, wins, losses, tower_floor, created_at, updated_at`

func scanProfile(row interface{ Scan(...interface{}) error }) (*models.ArenaProfile, error) {
	profile := &models.ArenaProfile{}
	err := row.Scan(
		&profile.ID,
		&profile.DisplayName,
		&profile.AvatarClass,
		&profile.EloRating,
		&profile.TotalXP,
		&profile.Wins,
		&profile.Losses,
		&profile.TowerFloor,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// FindByID ID로 프로필 찾기
func (r *ProfileRepository) FindByID(id string) (*models.ArenaProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM arena_profiles WHERE id = $1`

	profile, err := scanProfile(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	return profile, nil
}

// GetOrCreate 프로필 조회, 없으면 기본값으로 생성 (최초 옵트인)
func (r *ProfileRepository) GetOrCreate(id, displayName string) (*models.ArenaProfile, error) {
	query := `
		INSERT INTO arena_profiles (id, display_name, avatar_class, elo_rating, tower_floor)
		VALUES ($1, $2, 'scholar', $3, 1)
		ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name
		RETURNING ` + profileColumns

	profile, err := scanProfile(r.db.QueryRow(query, id, displayName, models.DefaultEloRating))
	if err != nil {
		return nil, fmt.Errorf("failed to get or create profile: %w", err)
	}

	return profile, nil
}

// UpdateRating 매치 종료 후 레이팅/XP/전적 갱신 (Rating Engine 전용)
func (r *ProfileRepository) UpdateRating(id string, newRating, xpGain int, won, lost bool) error {
	query := `
		UPDATE arena_profiles
		SET elo_rating = $1,
		    total_xp = total_xp + $2,
		    wins = wins + $3,
		    losses = losses + $4,
		    updated_at = NOW()
		WHERE id = $5
	`

	winsInc := 0
	lossesInc := 0
	if won {
		winsInc = 1
	} else if lost {
		lossesInc = 1
	}

	result, err := r.db.Exec(query, newRating, xpGain, winsInc, lossesInc, id)
	if err != nil {
		return fmt.Errorf("failed to update profile rating: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile %s not found", id)
	}

	return nil
}

// UpdateCosmetics 사용자 본인의 프로필 편집 (아바타, 타워 층)
func (r *ProfileRepository) UpdateCosmetics(id string, avatarClass *string, towerFloor *int) (*models.ArenaProfile, error) {
	query := `
		UPDATE arena_profiles
		SET avatar_class = COALESCE($1, avatar_class),
		    tower_floor = COALESCE($2, tower_floor),
		    updated_at = NOW()
		WHERE id = $3
		RETURNING ` + profileColumns

	profile, err := scanProfile(r.db.QueryRow(query, avatarClass, towerFloor, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return profile, nil
}

// TopByRating 리더보드: elo_rating 내림차순 상위 N명
func (r *ProfileRepository) TopByRating(limit int) ([]*models.ArenaProfile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM arena_profiles
		ORDER BY elo_rating DESC, total_xp DESC
		LIMIT $1
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var profiles []*models.ArenaProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}
