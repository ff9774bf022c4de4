package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter Redis 기반 고정 윈도우 Rate Limiter
// 여러 인스턴스가 떠 있어도 키 단위 제한이 공유된다 (방 생성 등 쓰기 경로용).
type RedisLimiter struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisLimiter Redis Rate Limiter 생성
func NewRedisLimiter(client *redis.Client, keyPrefix string) *RedisLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:"
	}
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Allow 윈도우 내 요청 수가 limit 미만이면 허용
// INCR + 최초 요청 시 EXPIRE를 Lua로 원자 실행한다.
func (r *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	script := redis.NewScript(`
		local current = redis.call("INCR", KEYS[1])
		if current == 1 then
			redis.call("PEXPIRE", KEYS[1], ARGV[2])
		end
		if current > tonumber(ARGV[1]) then
			return 0
		end
		return 1
	`)

	result, err := script.Run(ctx, r.client,
		[]string{r.keyPrefix + key},
		limit,
		window.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}

	return result == 1, nil
}
