package models

import "time"

type MatchStatus string

const (
	MatchStatusWaiting    MatchStatus = "waiting"
	MatchStatusChallenged MatchStatus = "challenged"
	MatchStatusPlaying    MatchStatus = "playing"
	MatchStatusFinished   MatchStatus = "finished"
)

// Rank 상태 머신에서의 진행 순서
// 재조정(reconciliation) 시 뒤로 가는 레코드를 걸러내는 데 사용한다.
func (s MatchStatus) Rank() int {
	switch s {
	case MatchStatusWaiting:
		return 0
	case MatchStatusChallenged:
		return 1
	case MatchStatusPlaying:
		return 2
	case MatchStatusFinished:
		return 3
	}
	return -1
}

type QuestionSource string

const (
	SourceArena QuestionSource = "arena"
	SourceExam  QuestionSource = "exam"
)

// InitialHP 매치 시작 시 양쪽 HP
const InitialHP = 100

// MaxQuestions 매치당 최대 문항 수
const MaxQuestions = 5

type ArenaMatch struct {
	ID              string         `json:"id" db:"id"`
	Player1ID       string         `json:"player1Id" db:"player1_id"`
	Player2ID       *string        `json:"player2Id,omitempty" db:"player2_id"`
	Status          MatchStatus    `json:"status" db:"status"`
	QuestionIDs     []string       `json:"questionIds" db:"question_ids"`
	CurrentQuestion int            `json:"currentQuestion" db:"current_question"`
	Player1HP       int            `json:"player1Hp" db:"player1_hp"`
	Player2HP       int            `json:"player2Hp" db:"player2_hp"`
	Player1Score    int            `json:"player1Score" db:"player1_score"`
	Player2Score    int            `json:"player2Score" db:"player2_score"`
	WinnerID        *string        `json:"winnerId,omitempty" db:"winner_id"`
	Source          QuestionSource `json:"source" db:"source"`
	FilterSubject   *string        `json:"filterSubject,omitempty" db:"filter_subject"`
	FilterGrade     *string        `json:"filterGrade,omitempty" db:"filter_grade"`
	CreatedAt       time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time      `json:"updatedAt" db:"updated_at"`
}

// HasPlayer 해당 사용자가 매치 참가자인지 확인
func (m *ArenaMatch) HasPlayer(userID string) bool {
	if m.Player1ID == userID {
		return true
	}
	return m.Player2ID != nil && *m.Player2ID == userID
}

// OpponentOf 상대 플레이어 ID (없으면 빈 문자열)
func (m *ArenaMatch) OpponentOf(userID string) string {
	if m.Player1ID == userID {
		if m.Player2ID != nil {
			return *m.Player2ID
		}
		return ""
	}
	return m.Player1ID
}

type CreateMatchRequest struct {
	Source  QuestionSource `json:"source" binding:"required"`
	Subject *string        `json:"subject"`
	Grade   *string        `json:"grade"`
}
