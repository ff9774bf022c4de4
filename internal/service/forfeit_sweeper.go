package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sweepLockKey = "arena:forfeit:sweep"

// ForfeitSweeper 무활동 매치 몰수 처리기
// playing 상태에서 ForfeitTimeout 동안 아무 쓰기도 없었던 매치를 강제 종료한다.
// 승패는 현재 HP로 판정한다 (양쪽 다 잠수면 HP 동률 → 무승부).
// 여러 인스턴스가 떠 있어도 Redis SET NX 락으로 한 인스턴스만 스윕한다.
type ForfeitSweeper struct {
	matches    MatchStore
	battle     *BattleService
	redis      *redis.Client
	interval   time.Duration
	timeout    time.Duration
	instanceID string
	logger     *zap.Logger
	stopChan   chan struct{}
	wg         sync.WaitGroup
	running    bool
	mu         sync.Mutex
}

func NewForfeitSweeper(
	matches MatchStore,
	battle *BattleService,
	redisClient *redis.Client,
	interval, timeout time.Duration,
	logger *zap.Logger,
) *ForfeitSweeper {
	return &ForfeitSweeper{
		matches:    matches,
		battle:     battle,
		redis:      redisClient,
		interval:   interval,
		timeout:    timeout,
		instanceID: uuid.NewString(),
		logger:     logger,
		stopChan:   make(chan struct{}),
	}
}

// Start 스위퍼 시작
func (s *ForfeitSweeper) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("Starting ForfeitSweeper",
		zap.Duration("interval", s.interval),
		zap.Duration("timeout", s.timeout))

	s.wg.Add(1)
	go s.sweepLoop()
}

// Stop 스위퍼 중지
func (s *ForfeitSweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
	s.logger.Info("ForfeitSweeper stopped")
}

func (s *ForfeitSweeper) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			return
		}
	}
}

func (s *ForfeitSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	// SET NX로 스윕 락 획득 (TTL = 주기, 죽은 인스턴스의 락은 저절로 풀린다)
	acquired, err := s.redis.SetNX(ctx, sweepLockKey, s.instanceID, s.interval).Result()
	if err != nil {
		s.logger.Error("Failed to acquire sweep lock", zap.Error(err))
		return
	}
	if !acquired {
		return
	}
	defer s.releaseLock(ctx)

	stale, err := s.matches.FindStalePlaying(time.Now().Add(-s.timeout))
	if err != nil {
		s.logger.Error("Failed to query stale matches", zap.Error(err))
		return
	}

	for _, match := range stale {
		final, err := s.battle.FinishMatch(ctx, match.ID)
		if err != nil {
			s.logger.Error("Failed to forfeit stale match",
				zap.String("matchId", match.ID), zap.Error(err))
			continue
		}

		s.logger.Info("Stale match forfeited",
			zap.String("matchId", match.ID),
			zap.Any("winnerId", final.WinnerID))
	}
}

// releaseLock 자신이 잡은 락만 해제 (Lua)
func (s *ForfeitSweeper) releaseLock(ctx context.Context) {
	script := redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		end
		return 0
	`)

	if err := script.Run(ctx, s.redis, []string{sweepLockKey}, s.instanceID).Err(); err != nil && err != redis.Nil {
		s.logger.Warn("Failed to release sweep lock", zap.Error(err))
	}
}
