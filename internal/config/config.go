package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret     string
	JWTExpiration time.Duration

	// CORS
	CORSAllowedOrigins []string

	// Arena
	PollInterval   time.Duration // 폴링 폴백 주기
	ForfeitTimeout time.Duration // 무활동 몰수 기준 시간
	QuestionTime   time.Duration // 문항당 카운트다운
	RevealTime     time.Duration // 정답 공개 시간
}

func Load() (*Config, error) {
	// .env 파일 로드 (있는 경우)
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:          getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiration:      parseDuration(getEnv("JWT_EXPIRATION", "24h"), 24*time.Hour),
		CORSAllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		PollInterval:       parseDuration(getEnv("ARENA_POLL_INTERVAL", "3s"), 3*time.Second),
		ForfeitTimeout:     parseDuration(getEnv("ARENA_FORFEIT_TIMEOUT", "45s"), 45*time.Second),
		QuestionTime:       parseDuration(getEnv("ARENA_QUESTION_TIME", "15s"), 15*time.Second),
		RevealTime:         parseDuration(getEnv("ARENA_REVEAL_TIME", "1500ms"), 1500*time.Millisecond),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
