package repository

import (
	"fmt"

	"github.com/quiz-arena/arena-backend/internal/models"
	"github.com/quiz-arena/arena-backend/pkg/database"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Append 매치 이벤트 기록 (append-only, 수정/삭제 없음)
func (r *EventRepository) Append(event *models.MatchEvent) error {
	query := `
		INSERT INTO arena_match_events
			(id, match_id, player_id, event_type, question_index, damage, time_taken, chosen_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(query,
		event.ID,
		event.MatchID,
		event.PlayerID,
		event.EventType,
		event.QuestionIndex,
		event.Damage,
		event.TimeTaken,
		event.ChosenIndex,
	)
	if err != nil {
		return fmt.Errorf("failed to append match event: %w", err)
	}

	return nil
}

// FindByMatchID 매치의 이벤트 로그 조회 (분석/감사용)
func (r *EventRepository) FindByMatchID(matchID string) ([]*models.MatchEvent, error) {
	query := `
		SELECT id, match_id, player_id, event_type, question_index, damage, time_taken, chosen_index, created_at
		FROM arena_match_events
		WHERE match_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query match events: %w", err)
	}
	defer rows.Close()

	var events []*models.MatchEvent
	for rows.Next() {
		event := &models.MatchEvent{}
		err := rows.Scan(
			&event.ID,
			&event.MatchID,
			&event.PlayerID,
			&event.EventType,
			&event.QuestionIndex,
			&event.Damage,
			&event.TimeTaken,
			&event.ChosenIndex,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match event: %w", err)
		}
		events = append(events, event)
	}

	return events, nil
}
