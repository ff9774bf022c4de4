package ratelimit

import (
	"sync"
	"time"
)

// Bucket 토큰 버킷 (단일 키)
type Bucket struct {
	mu         sync.Mutex
	capacity   int64
	tokens     int64
	refillRate int64 // 초당 토큰 충전량
	lastRefill time.Time
}

// NewBucket 토큰 버킷 생성
func NewBucket(capacity, refillRate int64) *Bucket {
	return &Bucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow 요청 1건 허용 여부 확인 (허용 시 토큰 소비)
func (b *Bucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (b *Bucket) refill() {
	now := time.Now()
	added := int64(now.Sub(b.lastRefill).Seconds()) * b.refillRate
	if added <= 0 {
		return
	}

	b.tokens += added
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now
}

// Limiter 키(사용자 ID 등)별 토큰 버킷 관리자
type Limiter struct {
	mu         sync.Mutex
	buckets    map[string]*Bucket
	capacity   int64
	refillRate int64
}

// NewLimiter 키별 Rate Limiter 생성
func NewLimiter(capacity, refillRate int64) *Limiter {
	return &Limiter{
		buckets:    make(map[string]*Bucket),
		capacity:   capacity,
		refillRate: refillRate,
	}
}

// Allow 해당 키의 요청 허용 여부 확인
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = NewBucket(l.capacity, l.refillRate)
		l.buckets[key] = bucket
	}
	l.mu.Unlock()

	return bucket.Allow()
}

// Reset 키의 버킷 제거 (주로 테스트용)
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}
