package service

import (
	"fmt"
	"math/rand"

	"github.com/quiz-arena/arena-backend/internal/models"
)

// PoolService 매치용 문항 풀 조립기
type PoolService struct {
	questions QuestionStore
	exams     ExamStore
}

func NewPoolService(questions QuestionStore, exams ExamStore) *PoolService {
	return &PoolService{
		questions: questions,
		exams:     exams,
	}
}

// BuildPool 출처/필터에 맞는 문항 ID 목록 조립
// 섞은 뒤 최대 5개를 자른다. 필터 결과가 비면 무필터 은행으로 한 번 폴백하고,
// 그래도 비면 빈 목록을 반환한다 (빈 풀 거부는 호출자 책임).
func (s *PoolService) BuildPool(source models.QuestionSource, subject, grade string) ([]string, error) {
	var candidates []*models.ArenaQuestion
	var err error

	switch source {
	case models.SourceExam:
		candidates, err = s.exams.FindPublishedMCQs(subject, grade)
	default:
		candidates, err = s.questions.FindByFilters(subject, "")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build question pool: %w", err)
	}

	// 폴백: 필터를 걷어내고 아레나 은행 재시도
	if len(candidates) == 0 && (subject != "" || grade != "") {
		candidates, err = s.questions.FindByFilters("", "")
		if err != nil {
			return nil, fmt.Errorf("failed to build fallback pool: %w", err)
		}
	}

	ids := make([]string, len(candidates))
	for i, q := range candidates {
		ids[i] = q.ID
	}

	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	if len(ids) > models.MaxQuestions {
		ids = ids[:models.MaxQuestions]
	}

	return ids, nil
}

// ResolveQuestions 매치에 박힌 ID 목록을 문항으로 역참조 (제시 순서 유지)
// 스냅샷이 아니라 라이브 조회라서 은행이 수정되면 수정본이 보인다.
func (s *PoolService) ResolveQuestions(ids []string) ([]*models.ArenaQuestion, error) {
	var bankIDs []string
	for _, id := range ids {
		if !models.IsExamQuestionID(id) {
			bankIDs = append(bankIDs, id)
		}
	}

	bank, err := s.questions.FindByIDs(bankIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve questions: %w", err)
	}

	questions := make([]*models.ArenaQuestion, 0, len(ids))
	for _, id := range ids {
		if examID, questionID, ok := models.ParseExamQuestionID(id); ok {
			q, err := s.exams.FindExamQuestion(examID, questionID)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve exam question %s: %w", id, err)
			}
			if q == nil {
				// 시험이 비공개로 돌아갔거나 문항이 삭제된 경우
				return nil, fmt.Errorf("question %s: %w", id, ErrQuestionNotFound)
			}
			questions = append(questions, q)
			continue
		}

		q, ok := bank[id]
		if !ok {
			return nil, fmt.Errorf("question %s: %w", id, ErrQuestionNotFound)
		}
		questions = append(questions, q)
	}

	return questions, nil
}
