package models

import "time"

type EventType string

const (
	EventAnswerCorrect EventType = "answer_correct"
	EventAnswerWrong   EventType = "answer_wrong"
)

// MatchEvent 답안 제출 감사 로그 (append-only)
// 권위 있는 HP는 ArenaMatch에 있으므로 상태 계산에 다시 읽히지 않는다.
type MatchEvent struct {
	ID            string    `json:"id" db:"id"`
	MatchID       string    `json:"matchId" db:"match_id"`
	PlayerID      string    `json:"playerId" db:"player_id"`
	EventType     EventType `json:"eventType" db:"event_type"`
	QuestionIndex int       `json:"questionIndex" db:"question_index"`
	Damage        int       `json:"damage" db:"damage"`
	TimeTaken     float64   `json:"timeTaken" db:"time_taken"`
	ChosenIndex   int       `json:"chosenIndex" db:"chosen_index"` // 타임아웃은 -1
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}
