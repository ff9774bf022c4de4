package realtime

import (
	"sync"
	"time"

	"github.com/quiz-arena/arena-backend/internal/models"
)

// DefaultOverlayTTL 낙관적 데미지 오버레이의 표시 수명
const DefaultOverlayTTL = 2 * time.Second

// MatchView 재조정 결과 스냅샷
// Player1HP/Player2HP는 오버레이가 반영된 표시용 값이고,
// Match 안의 값이 마지막으로 관찰된 권위 레코드다.
type MatchView struct {
	Match      *models.ArenaMatch `json:"match"`
	Player1HP  int                `json:"player1Hp"`
	Player2HP  int                `json:"player2Hp"`
	Optimistic bool               `json:"optimistic"`
}

type damageOverlay struct {
	targetPlayer1 bool
	amount        int
	appliedAt     time.Time
}

// Reconciler 세 신호원(피어 브로드캐스트, 변경 피드, 폴링)을 하나의 로컬 뷰로 병합
//
// 규칙:
//   - 전체 레코드(피드/폴링)는 벽시계 기준 나중에 관찰된 쪽이 권위를 가진다.
//   - status가 뒤로 가는 레코드는 무시한다. 유일한 예외는 거절 전이
//     (challenged → waiting)로, 이것만 합법적인 후퇴다.
//   - 데미지 브로드캐스트는 표시용 HP 감산 오버레이로만 반영되며, TTL이 지나거나
//     다음 전체 레코드가 도착하면 사라진다.
type Reconciler struct {
	mu         sync.Mutex
	latest     *models.ArenaMatch
	overlays   []damageOverlay
	overlayTTL time.Duration
}

func NewReconciler(initial *models.ArenaMatch) *Reconciler {
	return &Reconciler{
		latest:     initial,
		overlayTTL: DefaultOverlayTTL,
	}
}

// ApplyRecord 전체 레코드 반영. 무시된 경우 false를 반환한다.
func (r *Reconciler) ApplyRecord(match *models.ArenaMatch, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.latest != nil {
		from, to := r.latest.Status, match.Status
		rejected := from == models.MatchStatusChallenged && to == models.MatchStatusWaiting
		if to.Rank() < from.Rank() && !rejected {
			return false
		}
	}

	r.latest = match
	// 권위 레코드가 그때까지의 낙관적 오버레이를 흡수한다
	r.overlays = r.overlays[:0]
	return true
}

// ApplyDamage 피어 브로드캐스트 반영 (낙관적 오버레이)
func (r *Reconciler) ApplyDamage(msg DamageMessage, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.latest == nil || r.latest.Status != models.MatchStatusPlaying {
		return
	}

	r.overlays = append(r.overlays, damageOverlay{
		targetPlayer1: msg.TargetPlayerID == r.latest.Player1ID,
		amount:        msg.Damage,
		appliedAt:     now,
	})
}

// View 현재 로컬 뷰
func (r *Reconciler) View(now time.Time) MatchView {
	r.mu.Lock()
	defer r.mu.Unlock()

	view := MatchView{
		Match:     r.latest,
		Player1HP: r.latest.Player1HP,
		Player2HP: r.latest.Player2HP,
	}

	for _, overlay := range r.overlays {
		if now.Sub(overlay.appliedAt) > r.overlayTTL {
			continue
		}
		view.Optimistic = true
		if overlay.targetPlayer1 {
			view.Player1HP -= overlay.amount
		} else {
			view.Player2HP -= overlay.amount
		}
	}

	if view.Player1HP < 0 {
		view.Player1HP = 0
	}
	if view.Player2HP < 0 {
		view.Player2HP = 0
	}

	return view
}
