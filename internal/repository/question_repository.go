package repository

import (
	"fmt"

	"github.com/lib/pq"
	"github.com/quiz-arena/arena-backend/internal/models"
	"github.com/quiz-arena/arena-backend/pkg/database"
)

type QuestionRepository struct {
	db *database.DB
}

func NewQuestionRepository(db *database.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `id, content, answers, correct_index, difficulty, subject, topic`

func scanQuestion(row interface{ Scan(...interface{}) error }) (*models.ArenaQuestion, error) {
	q := &models.ArenaQuestion{}
	err := row.Scan(
		&q.ID,
		&q.Content,
		pq.Array(&q.Answers),
		&q.CorrectIndex,
		&q.Difficulty,
		&q.Subject,
		&q.Topic,
	)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// FindByFilters 과목/토픽 필터에 맞는 문제 은행 문항 조회
// 빈 필터는 전체 조회를 의미한다.
func (r *QuestionRepository) FindByFilters(subject, topic string) ([]*models.ArenaQuestion, error) {
	query := `
		SELECT ` + questionColumns + `
		FROM arena_questions
		WHERE ($1 = '' OR subject = $1)
		  AND ($2 = '' OR topic = $2)
	`

	rows, err := r.db.Query(query, subject, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []*models.ArenaQuestion
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}

	return questions, nil
}

// FindByIDs ID 목록으로 문항 조회 (조회 시점 내용 기준 — 은행이 수정되면 수정본이 보인다)
func (r *QuestionRepository) FindByIDs(ids []string) (map[string]*models.ArenaQuestion, error) {
	if len(ids) == 0 {
		return map[string]*models.ArenaQuestion{}, nil
	}

	query := `
		SELECT ` + questionColumns + `
		FROM arena_questions
		WHERE id = ANY($1)
	`

	rows, err := r.db.Query(query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query questions by ids: %w", err)
	}
	defer rows.Close()

	questions := make(map[string]*models.ArenaQuestion, len(ids))
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions[q.ID] = q
	}

	return questions, nil
}
