package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/quiz-arena/arena-backend/internal/models"
	"github.com/quiz-arena/arena-backend/pkg/database"
)

type MatchRepository struct {
	db *database.DB
}

func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

const matchColumns = `id, player1_id, player2_id, status, question_ids, current_question,
	       player1_hp, player2_hp, player1_score, player2_score,
	       winner_id, source, filter_subject, filter_grade, created_at, updated_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.ArenaMatch, error) {
	match := &models.ArenaMatch{}
	err := row.Scan(
		&match.ID,
		&match.Player1ID,
		&match.Player2ID,
		&match.Status,
		pq.Array(&match.QuestionIDs),
		&match.CurrentQuestion,
		&match.Player1HP,
		&match.Player2HP,
		&match.Player1Score,
		&match.Player2Score,
		&match.WinnerID,
		&match.Source,
		&match.FilterSubject,
		&match.FilterGrade,
		&match.CreatedAt,
		&match.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return match, nil
}

// Create 새 매치 생성 (status=waiting, HP 100/100)
func (r *MatchRepository) Create(id, hostID string, questionIDs []string, source models.QuestionSource, subject, grade *string) (*models.ArenaMatch, error) {
	query := `
		INSERT INTO arena_matches
			(id, player1_id, status, question_ids, player1_hp, player2_hp, source, filter_subject, filter_grade)
		VALUES ($1, $2, 'waiting', $3, $4, $4, $5, $6, $7)
		RETURNING ` + matchColumns

	match, err := scanMatch(r.db.QueryRow(query, id, hostID, pq.Array(questionIDs), models.InitialHP, source, subject, grade))
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	return match, nil
}

// FindByID ID로 매치 찾기
func (r *MatchRepository) FindByID(id string) (*models.ArenaMatch, error) {
	query := `SELECT ` + matchColumns + ` FROM arena_matches WHERE id = $1`

	match, err := scanMatch(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find match: %w", err)
	}

	return match, nil
}

// FindWaiting 대기 중인 매치 목록 (최신 순, 자기 방 제외)
func (r *MatchRepository) FindWaiting(excludeHostID string) ([]*models.ArenaMatch, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM arena_matches
		WHERE status = 'waiting' AND player1_id != $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, excludeHostID)
	if err != nil {
		return nil, fmt.Errorf("failed to query waiting matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.ArenaMatch
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}

	return matches, nil
}

// Claim 도전 등록: status가 여전히 waiting일 때만 성공
// 동시에 두 명이 도전하면 정확히 한 명만 이긴다.
func (r *MatchRepository) Claim(matchID, challengerID string) (bool, error) {
	query := `
		UPDATE arena_matches
		SET player2_id = $1, status = 'challenged', updated_at = NOW()
		WHERE id = $2 AND status = 'waiting'
	`

	result, err := r.db.Exec(query, challengerID, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to claim match: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected == 1, nil
}

// Accept challenged → playing (조건부 업데이트)
func (r *MatchRepository) Accept(matchID string) (bool, error) {
	return r.transition(matchID, `
		UPDATE arena_matches
		SET status = 'playing', updated_at = NOW()
		WHERE id = $1 AND status = 'challenged'
	`)
}

// Reject challenged → waiting, player2 해제
func (r *MatchRepository) Reject(matchID string) (bool, error) {
	return r.transition(matchID, `
		UPDATE arena_matches
		SET status = 'waiting', player2_id = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'challenged'
	`)
}

// WithdrawChallenge 도전자 스스로 물러남: challenged → waiting, player2 해제
// Reject와 같은 전이지만 호출자가 현재 player2 본인인지까지 조건에 넣는다.
func (r *MatchRepository) WithdrawChallenge(matchID, challengerID string) (bool, error) {
	query := `
		UPDATE arena_matches
		SET status = 'waiting', player2_id = NULL, updated_at = NOW()
		WHERE id = $1 AND player2_id = $2 AND status = 'challenged'
	`

	result, err := r.db.Exec(query, matchID, challengerID)
	if err != nil {
		return false, fmt.Errorf("failed to withdraw challenge: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected == 1, nil
}

func (r *MatchRepository) transition(matchID, query string) (bool, error) {
	result, err := r.db.Exec(query, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to update match status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected == 1, nil
}

// DeleteIfOpen 방 취소: waiting/challenged 상태에서만 호스트가 삭제 가능
func (r *MatchRepository) DeleteIfOpen(matchID, hostID string) (bool, error) {
	query := `
		DELETE FROM arena_matches
		WHERE id = $1 AND player1_id = $2 AND status IN ('waiting', 'challenged')
	`

	result, err := r.db.Exec(query, matchID, hostID)
	if err != nil {
		return false, fmt.Errorf("failed to delete match: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected == 1, nil
}

// ApplyDamage 상대 HP 감소 (0 미만 방지) + 득점자 스코어 증가
// 각 플레이어는 상대 HP 컬럼에만 쓰기 때문에 두 감산은 충돌하지 않는다.
func (r *MatchRepository) ApplyDamage(matchID string, targetIsPlayer1 bool, damage int) (*models.ArenaMatch, error) {
	var query string
	if targetIsPlayer1 {
		query = `
			UPDATE arena_matches
			SET player1_hp = GREATEST(player1_hp - $1, 0),
			    player2_score = player2_score + 1,
			    updated_at = NOW()
			WHERE id = $2 AND status = 'playing'
			RETURNING ` + matchColumns
	} else {
		query = `
			UPDATE arena_matches
			SET player2_hp = GREATEST(player2_hp - $1, 0),
			    player1_score = player1_score + 1,
			    updated_at = NOW()
			WHERE id = $2 AND status = 'playing'
			RETURNING ` + matchColumns
	}

	match, err := scanMatch(r.db.QueryRow(query, damage, matchID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply damage: %w", err)
	}

	return match, nil
}

// AdvanceQuestion 현재 문항 인덱스 갱신 (정보용, 뒤로는 가지 않음)
func (r *MatchRepository) AdvanceQuestion(matchID string, index int) error {
	query := `
		UPDATE arena_matches
		SET current_question = GREATEST(current_question, $1), updated_at = NOW()
		WHERE id = $2 AND status = 'playing'
	`

	if _, err := r.db.Exec(query, index, matchID); err != nil {
		return fmt.Errorf("failed to advance question: %w", err)
	}

	return nil
}

// Finish playing → finished 전이
// 승자는 같은 UPDATE 안에서 HP로 판정한다. 읽기 시점과 전이 시점 사이에
// 상대의 마지막 데미지가 끼어들어도 낡은 승자가 기록되지 않는다.
// RowsAffected가 1인 호출자만 레이팅 갱신을 수행한다 (양쪽에서 호출해도 한 번만).
func (r *MatchRepository) Finish(matchID string) (bool, error) {
	query := `
		UPDATE arena_matches
		SET status = 'finished',
		    winner_id = CASE
		        WHEN player1_hp > player2_hp THEN player1_id
		        WHEN player2_hp > player1_hp THEN player2_id
		        ELSE NULL
		    END,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'playing'
	`

	result, err := r.db.Exec(query, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to finish match: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected == 1, nil
}

// FindStalePlaying 일정 시간 쓰기가 없었던 진행 중 매치 (몰수 스위퍼용)
func (r *MatchRepository) FindStalePlaying(cutoff time.Time) ([]*models.ArenaMatch, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM arena_matches
		WHERE status = 'playing' AND updated_at < $1
	`

	rows, err := r.db.Query(query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.ArenaMatch
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}

	return matches, nil
}
