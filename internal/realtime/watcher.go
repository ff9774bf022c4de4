package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/quiz-arena/arena-backend/internal/models"
	"go.uber.org/zap"
)

// MatchReader 폴링 폴백이 쓰는 저장소 읽기 인터페이스
type MatchReader interface {
	FindByID(id string) (*models.ArenaMatch, error)
}

// Watcher 구독 + 폴링 쌍을 하나의 뷰 스트림으로 합친다
// 피드는 빠른 경로, 폴링은 피드가 조용히 메시지를 흘려도 폴 주기 안에
// 수렴을 보장하는 안전망이다. 폴링은 구독 상태와 무관하게 항상 돈다.
type Watcher struct {
	notifier *Notifier
	reader   MatchReader
	interval time.Duration
	logger   *zap.Logger
}

func NewWatcher(notifier *Notifier, reader MatchReader, interval time.Duration, logger *zap.Logger) *Watcher {
	return &Watcher{
		notifier: notifier,
		reader:   reader,
		interval: interval,
		logger:   logger,
	}
}

// Watch 매치 하나의 재조정된 뷰 스트림 시작 (ctx 취소 시 채널이 닫힌다)
func (w *Watcher) Watch(ctx context.Context, matchID string) (<-chan MatchView, error) {
	initial, err := w.reader.FindByID(matchID)
	if err != nil {
		return nil, err
	}
	if initial == nil {
		return nil, fmt.Errorf("match %s not found", matchID)
	}

	reconciler := NewReconciler(initial)
	return w.run(ctx, matchID, reconciler, w.notifier.Subscribe(ctx, matchID)), nil
}

func (w *Watcher) run(ctx context.Context, matchID string, reconciler *Reconciler, sub *Subscription) <-chan MatchView {
	out := make(chan MatchView, 16)

	go func() {
		defer close(out)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.push(out, reconciler.View(time.Now()))

		// 피드가 닫히면 해당 case만 비활성화(nil 채널)하고 폴링으로 버틴다
		damageCh, stateCh := sub.Damage, sub.State

		for {
			select {
			case msg, ok := <-damageCh:
				if !ok {
					w.logger.Warn("Damage feed closed, falling back to polling",
						zap.String("matchId", matchID))
					damageCh = nil
					continue
				}
				reconciler.ApplyDamage(msg, time.Now())
				w.push(out, reconciler.View(time.Now()))

			case match, ok := <-stateCh:
				if !ok {
					w.logger.Warn("State feed closed, falling back to polling",
						zap.String("matchId", matchID))
					stateCh = nil
					continue
				}
				if reconciler.ApplyRecord(match, time.Now()) {
					w.push(out, reconciler.View(time.Now()))
				}

			case <-ticker.C:
				match, err := w.reader.FindByID(matchID)
				if err != nil {
					w.logger.Warn("Poll fallback read failed",
						zap.String("matchId", matchID), zap.Error(err))
					continue
				}
				if match == nil {
					// waiting/challenged 방이 취소된 경우
					return
				}
				if reconciler.ApplyRecord(match, time.Now()) {
					w.push(out, reconciler.View(time.Now()))
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func (w *Watcher) push(out chan<- MatchView, view MatchView) {
	select {
	case out <- view:
	default:
		// 소비자가 느리면 중간 뷰는 건너뛴다: 다음 뷰가 항상 더 최신이다
	}
}
