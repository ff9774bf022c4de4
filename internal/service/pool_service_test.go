package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/quiz-arena/arena-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPoolTruncatesToMaxQuestions(t *testing.T) {
	bank := &fakeQuestionStore{}
	for i := 0; i < 12; i++ {
		bank.questions = append(bank.questions, bankQuestion(fmt.Sprintf("q%d", i), "math", 0))
	}
	svc := NewPoolService(bank, &fakeExamStore{})

	ids, err := svc.BuildPool(models.SourceArena, "", "")
	require.NoError(t, err)
	assert.Len(t, ids, models.MaxQuestions)

	seen := make(map[string]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate question id %s", id)
		seen[id] = true
	}
}

func TestBuildPoolKeepsSmallBank(t *testing.T) {
	bank := &fakeQuestionStore{questions: []*models.ArenaQuestion{
		bankQuestion("q1", "math", 0),
		bankQuestion("q2", "math", 1),
	}}
	svc := NewPoolService(bank, &fakeExamStore{})

	ids, err := svc.BuildPool(models.SourceArena, "", "")
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestBuildPoolFiltersBySubject(t *testing.T) {
	bank := &fakeQuestionStore{questions: []*models.ArenaQuestion{
		bankQuestion("m1", "math", 0),
		bankQuestion("s1", "science", 0),
	}}
	svc := NewPoolService(bank, &fakeExamStore{})

	ids, err := svc.BuildPool(models.SourceArena, "math", "")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, "m1", ids[0])
}

func TestBuildPoolFallsBackToUnfilteredBank(t *testing.T) {
	bank := &fakeQuestionStore{questions: []*models.ArenaQuestion{
		bankQuestion("m1", "math", 0),
	}}
	svc := NewPoolService(bank, &fakeExamStore{})

	// history 필터는 비지만 무필터 은행에는 문항이 있다
	ids, err := svc.BuildPool(models.SourceArena, "history", "")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, "m1", ids[0])
}

func TestBuildPoolEmptyEverywhere(t *testing.T) {
	svc := NewPoolService(&fakeQuestionStore{}, &fakeExamStore{})

	ids, err := svc.BuildPool(models.SourceArena, "history", "")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBuildPoolExamSourceUsesCompositeIDs(t *testing.T) {
	exams := &fakeExamStore{published: []*models.ArenaQuestion{
		{ID: models.ExamQuestionID("e1", "q1"), Answers: []string{"a", "b", "c", "d"}},
		{ID: models.ExamQuestionID("e1", "q2"), Answers: []string{"a", "b", "c", "d"}},
	}}
	svc := NewPoolService(&fakeQuestionStore{}, exams)

	ids, err := svc.BuildPool(models.SourceExam, "", "")
	require.NoError(t, err)
	require.Len(t, ids, 2)
	for _, id := range ids {
		assert.True(t, models.IsExamQuestionID(id))
	}
}

func TestResolveQuestionsPreservesOrder(t *testing.T) {
	bank := &fakeQuestionStore{questions: []*models.ArenaQuestion{
		bankQuestion("q1", "math", 0),
		bankQuestion("q2", "math", 1),
	}}
	examQ := bankQuestion(models.ExamQuestionID("e1", "7"), "math", 2)
	exams := &fakeExamStore{byID: map[string]*models.ArenaQuestion{examQ.ID: examQ}}
	svc := NewPoolService(bank, exams)

	questions, err := svc.ResolveQuestions([]string{"q2", examQ.ID, "q1"})
	require.NoError(t, err)
	require.Len(t, questions, 3)
	assert.Equal(t, "q2", questions[0].ID)
	assert.Equal(t, examQ.ID, questions[1].ID)
	assert.Equal(t, "q1", questions[2].ID)
}

func TestResolveQuestionsMissingBankID(t *testing.T) {
	svc := NewPoolService(&fakeQuestionStore{}, &fakeExamStore{})

	_, err := svc.ResolveQuestions([]string{"gone"})
	assert.True(t, errors.Is(err, ErrQuestionNotFound))
}

func TestParseExamQuestionID(t *testing.T) {
	examID, questionID, ok := models.ParseExamQuestionID("exam_e1_42")
	require.True(t, ok)
	assert.Equal(t, "e1", examID)
	assert.Equal(t, "42", questionID)

	// 문항 ID 내부의 언더스코어는 그대로 보존된다
	_, questionID, ok = models.ParseExamQuestionID("exam_e1_q_7_b")
	require.True(t, ok)
	assert.Equal(t, "q_7_b", questionID)

	_, _, ok = models.ParseExamQuestionID("q1")
	assert.False(t, ok)
}
