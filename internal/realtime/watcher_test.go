package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/quiz-arena/arena-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memMatchReader struct {
	mu    sync.Mutex
	match *models.ArenaMatch
}

func (r *memMatchReader) FindByID(id string) (*models.ArenaMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.match == nil || r.match.ID != id {
		return nil, nil
	}
	c := *r.match
	return &c, nil
}

func (r *memMatchReader) set(match *models.ArenaMatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.match = match
}

func awaitView(t *testing.T, views <-chan MatchView, accept func(MatchView) bool) MatchView {
	t.Helper()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case view, ok := <-views:
			require.True(t, ok, "view stream closed early")
			if accept(view) {
				return view
			}
		case <-deadline:
			t.Fatal("expected view never arrived")
		}
	}
}

func TestWatcherUnknownMatch(t *testing.T) {
	n := testNotifier(t)
	w := NewWatcher(n, &memMatchReader{}, 10*time.Millisecond, zap.NewNop())

	_, err := w.Watch(context.Background(), "ghost")
	assert.Error(t, err)
}

func TestWatcherEmitsInitialView(t *testing.T) {
	n := testNotifier(t)
	reader := &memMatchReader{}
	reader.set(matchIn(models.MatchStatusWaiting))
	w := NewWatcher(n, reader, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	views, err := w.Watch(ctx, "m1")
	require.NoError(t, err)

	view := awaitView(t, views, func(MatchView) bool { return true })
	assert.Equal(t, models.MatchStatusWaiting, view.Match.Status)
	assert.Equal(t, 100, view.Player1HP)
}

func TestWatcherConvergesViaPolling(t *testing.T) {
	n := testNotifier(t)
	reader := &memMatchReader{}
	reader.set(matchIn(models.MatchStatusPlaying))
	// 피드는 조용하고 폴링만 도는 상황
	w := NewWatcher(n, reader, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	views, err := w.Watch(ctx, "m1")
	require.NoError(t, err)

	hit := matchIn(models.MatchStatusPlaying)
	hit.Player2HP = 42
	reader.set(hit)

	view := awaitView(t, views, func(v MatchView) bool { return v.Player2HP == 42 })
	assert.False(t, view.Optimistic)
}

func TestWatcherAppliesDamageBroadcast(t *testing.T) {
	n := testNotifier(t)
	reader := &memMatchReader{}
	reader.set(matchIn(models.MatchStatusPlaying))
	w := NewWatcher(n, reader, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	views, err := w.Watch(ctx, "m1")
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, n.PublishDamage(ctx, DamageMessage{MatchID: "m1", TargetPlayerID: "p2", Damage: 27}))

	view := awaitView(t, views, func(v MatchView) bool { return v.Player2HP == 73 })
	assert.True(t, view.Optimistic)
	// 권위 레코드는 아직 그대로
	assert.Equal(t, 100, view.Match.Player2HP)
}

func TestWatcherKeepsPollingAfterFeedClosed(t *testing.T) {
	reader := &memMatchReader{}
	reader.set(matchIn(models.MatchStatusPlaying))
	w := NewWatcher(nil, reader, 10*time.Millisecond, zap.NewNop())

	damage := make(chan DamageMessage)
	state := make(chan *models.ArenaMatch)
	sub := &Subscription{Damage: damage, State: state}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	views := w.run(ctx, "m1", NewReconciler(matchIn(models.MatchStatusPlaying)), sub)

	// 피드 단절 (redis 연결 유실 등). 뷰 스트림은 죽지 않아야 한다
	close(damage)
	close(state)

	hit := matchIn(models.MatchStatusPlaying)
	hit.Player2HP = 42
	reader.set(hit)

	view := awaitView(t, views, func(v MatchView) bool { return v.Player2HP == 42 })
	assert.False(t, view.Optimistic)
}

func TestWatcherClosesWhenRoomDeleted(t *testing.T) {
	n := testNotifier(t)
	reader := &memMatchReader{}
	reader.set(matchIn(models.MatchStatusWaiting))
	w := NewWatcher(n, reader, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	views, err := w.Watch(ctx, "m1")
	require.NoError(t, err)

	// 방 취소 = 레코드 삭제
	reader.set(nil)

	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-views:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("view stream not closed after room deletion")
		}
	}
}
