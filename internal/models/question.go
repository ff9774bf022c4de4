package models

import (
	"fmt"
	"strings"
)

// ExamIDPrefix 시험 출처 문항의 합성 ID 접두사
// 문제 은행의 네이티브 ID는 이 접두사를 포함하지 않는다.
const ExamIDPrefix = "exam_"

type ArenaQuestion struct {
	ID           string   `json:"id" db:"id"`
	Content      string   `json:"content" db:"content"`
	Answers      []string `json:"answers" db:"answers"` // 항상 4개 보기
	CorrectIndex int      `json:"correctIndex" db:"correct_index"`
	Difficulty   int      `json:"difficulty" db:"difficulty"` // 1~3
	Subject      string   `json:"subject" db:"subject"`
	Topic        string   `json:"topic" db:"topic"`
}

// ExamQuestionID 시험 문항의 합성 ID 생성 (exam_<examId>_<questionId>)
func ExamQuestionID(examID, questionID string) string {
	return fmt.Sprintf("%s%s_%s", ExamIDPrefix, examID, questionID)
}

// IsExamQuestionID 합성 ID 여부 확인
func IsExamQuestionID(id string) bool {
	return strings.HasPrefix(id, ExamIDPrefix)
}

// ParseExamQuestionID 합성 ID를 (examID, questionID)로 분해
func ParseExamQuestionID(id string) (examID, questionID string, ok bool) {
	if !IsExamQuestionID(id) {
		return "", "", false
	}
	rest := strings.TrimPrefix(id, ExamIDPrefix)
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
