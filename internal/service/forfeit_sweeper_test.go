package service

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

func sweeperFixture(t *testing.T) (*ForfeitSweeper, *battleFixture, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := newBattleFixture(t, []string{"q1"})
	sweeper := NewForfeitSweeper(f.matches, f.svc, client, 10*time.Second, 45*time.Second, zap.NewNop())
	return sweeper, f, mr
}

func TestSweepForfeitsStaleMatch(t *testing.T) {
	sweeper, f, _ := sweeperFixture(t)

	// 46초 무활동, 상대 HP가 낮은 진행 중 매치
	f.match.Player2HP = 40
	f.match.UpdatedAt = time.Now().Add(-46 * time.Second)
	f.matches.put(f.match)

	sweeper.sweep()

	final, err := f.matches.FindByID("m1")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusFinished, final.Status)
	require.NotNil(t, final.WinnerID)
	assert.Equal(t, "p1", *final.WinnerID)

	// 몰수 종료도 레이팅을 반영한다
	assert.Equal(t, 2, f.profiles.ratingUpdates)
}

func TestSweepIgnoresActiveMatch(t *testing.T) {
	sweeper, f, _ := sweeperFixture(t)

	f.match.UpdatedAt = time.Now().Add(-10 * time.Second)
	f.matches.put(f.match)

	sweeper.sweep()

	current, err := f.matches.FindByID("m1")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusPlaying, current.Status)
}

func TestSweepSkipsWhenLockHeld(t *testing.T) {
	sweeper, f, mr := sweeperFixture(t)

	// 다른 인스턴스가 락을 쥔 상황
	require.NoError(t, mr.Set(sweepLockKey, "other-instance"))

	f.match.UpdatedAt = time.Now().Add(-time.Minute)
	f.matches.put(f.match)

	sweeper.sweep()

	current, err := f.matches.FindByID("m1")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusPlaying, current.Status)

	// 남의 락은 건드리지 않는다
	val, err := mr.Get(sweepLockKey)
	require.NoError(t, err)
	assert.Equal(t, "other-instance", val)
}

func TestSweepReleasesOwnLock(t *testing.T) {
	sweeper, _, _ := sweeperFixture(t)

	sweeper.sweep()

	ctx := context.Background()
	exists := sweeper.redis.Exists(ctx, sweepLockKey).Val()
	assert.Equal(t, int64(0), exists, "lock should be released after sweep")
}
