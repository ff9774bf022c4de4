package repository

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/quiz-arena/arena-backend/internal/models"
	"github.com/quiz-arena/arena-backend/pkg/database"
)

// ExamRepository 시험/문제 은행 협력 시스템에 대한 읽기 전용 접근
// 공개된 시험의 객관식 문항만 아레나 문항으로 변환해 내보낸다.
type ExamRepository struct {
	db *database.DB
}

func NewExamRepository(db *database.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// FindPublishedMCQs 공개 시험에서 객관식 문항 추출
// 보기 4개 이상 + 정답 인덱스가 정의된 문항만 포함하며,
// ID는 exam_<examId>_<questionId>로 합성해 은행 ID와 충돌하지 않게 한다.
func (r *ExamRepository) FindPublishedMCQs(subject, grade string) ([]*models.ArenaQuestion, error) {
	query := `
		SELECT e.id, q.id, q.content, q.options, q.correct_index, q.difficulty, e.subject
		FROM exams e
		JOIN exam_questions q ON q.exam_id = e.id
		WHERE e.published = TRUE
		  AND q.question_type = 'multiple_choice'
		  AND array_length(q.options, 1) >= 4
		  AND q.correct_index IS NOT NULL
		  AND ($1 = '' OR e.subject = $1)
		  AND ($2 = '' OR e.grade = $2)
	`

	rows, err := r.db.Query(query, subject, grade)
	if err != nil {
		return nil, fmt.Errorf("failed to query exam questions: %w", err)
	}
	defer rows.Close()

	var questions []*models.ArenaQuestion
	for rows.Next() {
		var examID, questionID, content, examSubject string
		var options []string
		var correctIndex, difficulty int

		err := rows.Scan(&examID, &questionID, &content, pq.Array(&options), &correctIndex, &difficulty, &examSubject)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exam question: %w", err)
		}

		// 보기는 앞의 4개만 사용
		if len(options) > 4 {
			options = options[:4]
		}
		if correctIndex < 0 || correctIndex > 3 {
			continue
		}

		questions = append(questions, &models.ArenaQuestion{
			ID:           models.ExamQuestionID(examID, questionID),
			Content:      content,
			Answers:      options,
			CorrectIndex: correctIndex,
			Difficulty:   difficulty,
			Subject:      examSubject,
			Topic:        "general",
		})
	}

	return questions, nil
}

// FindExamQuestion 합성 ID로 시험 문항 단건 조회 (라이브 역참조)
func (r *ExamRepository) FindExamQuestion(examID, questionID string) (*models.ArenaQuestion, error) {
	query := `
		SELECT q.content, q.options, q.correct_index, q.difficulty, e.subject
		FROM exams e
		JOIN exam_questions q ON q.exam_id = e.id
		WHERE e.id = $1 AND q.id = $2 AND e.published = TRUE
	`

	var content, subject string
	var options []string
	var correctIndex, difficulty int

	err := r.db.QueryRow(query, examID, questionID).Scan(&content, pq.Array(&options), &correctIndex, &difficulty, &subject)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find exam question: %w", err)
	}

	if len(options) > 4 {
		options = options[:4]
	}

	return &models.ArenaQuestion{
		ID:           models.ExamQuestionID(examID, questionID),
		Content:      content,
		Answers:      options,
		CorrectIndex: correctIndex,
		Difficulty:   difficulty,
		Subject:      subject,
		Topic:        "general",
	}, nil
}
