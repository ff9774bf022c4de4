package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/quiz-arena/arena-backend/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testNotifier(t *testing.T) *Notifier {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewNotifier(client, zap.NewNop())
}

func TestNotifierDamageRoundtrip(t *testing.T) {
	n := testNotifier(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := n.Subscribe(ctx, "m1")
	// 구독이 실제로 붙을 때까지 잠깐 대기
	time.Sleep(50 * time.Millisecond)

	sent := DamageMessage{MatchID: "m1", TargetPlayerID: "p2", Damage: 27, QuestionIndex: 1}
	require.NoError(t, n.PublishDamage(ctx, sent))

	select {
	case got := <-sub.Damage:
		assert.Equal(t, sent, got)
	case <-time.After(3 * time.Second):
		t.Fatal("damage message not received")
	}
}

func TestNotifierStateRoundtrip(t *testing.T) {
	n := testNotifier(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := n.Subscribe(ctx, "m1")
	time.Sleep(50 * time.Millisecond)

	p2 := "p2"
	match := &models.ArenaMatch{
		ID:        "m1",
		Player1ID: "p1",
		Player2ID: &p2,
		Status:    models.MatchStatusPlaying,
		Player1HP: 100,
		Player2HP: 73,
	}
	require.NoError(t, n.PublishState(ctx, match))

	select {
	case got := <-sub.State:
		assert.Equal(t, "m1", got.ID)
		assert.Equal(t, models.MatchStatusPlaying, got.Status)
		assert.Equal(t, 73, got.Player2HP)
	case <-time.After(3 * time.Second):
		t.Fatal("state record not received")
	}
}

func TestNotifierIsolatesMatches(t *testing.T) {
	n := testNotifier(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := n.Subscribe(ctx, "m1")
	time.Sleep(50 * time.Millisecond)

	// 다른 매치의 메시지는 이 구독에 나타나지 않는다
	require.NoError(t, n.PublishDamage(ctx, DamageMessage{MatchID: "m2", TargetPlayerID: "p2", Damage: 20}))

	select {
	case got := <-sub.Damage:
		t.Fatalf("unexpected message for foreign match: %+v", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSubscriptionClosesOnCancel(t *testing.T) {
	n := testNotifier(t)

	ctx, cancel := context.WithCancel(context.Background())
	sub := n.Subscribe(ctx, "m1")
	time.Sleep(50 * time.Millisecond)

	cancel()

	select {
	case _, ok := <-sub.Damage:
		assert.False(t, ok, "damage channel should be closed")
	case <-time.After(3 * time.Second):
		t.Fatal("damage channel not closed after cancel")
	}
}
