package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quiz-arena/arena-backend/internal/api/handlers"
	"github.com/quiz-arena/arena-backend/internal/api/middleware"
	"github.com/quiz-arena/arena-backend/internal/config"
	"github.com/quiz-arena/arena-backend/internal/realtime"
	"github.com/quiz-arena/arena-backend/internal/repository"
	"github.com/quiz-arena/arena-backend/internal/service"
	ws "github.com/quiz-arena/arena-backend/internal/websocket"
	"github.com/quiz-arena/arena-backend/pkg/database"
	"github.com/quiz-arena/arena-backend/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SetupRouter 의존성 조립 및 라우트 등록
// 반환된 스위퍼는 호출자(main)가 Start/Stop 수명주기를 관리한다.
func SetupRouter(cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zap.Logger) (*gin.Engine, *service.ForfeitSweeper) {
	// Repositories
	matchRepo := repository.NewMatchRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	examRepo := repository.NewExamRepository(db)
	eventRepo := repository.NewEventRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Realtime
	notifier := realtime.NewNotifier(redisClient, logger)
	watcher := realtime.NewWatcher(notifier, matchRepo, cfg.PollInterval, logger)

	// 로비 알림 허브
	hub := ws.NewHub(logger)
	go hub.Run()

	// Services
	poolSvc := service.NewPoolService(questionRepo, examRepo)
	profileSvc := service.NewProfileService(profileRepo, userRepo)
	ratingSvc := service.NewRatingService(profileRepo, logger)
	lobbySvc := service.NewLobbyService(matchRepo, poolSvc, userRepo, notifier, hub, logger)
	battleSvc := service.NewBattleService(matchRepo, eventRepo, poolSvc, ratingSvc, notifier, logger)

	sweeper := service.NewForfeitSweeper(matchRepo, battleSvc, redisClient,
		cfg.ForfeitTimeout/3, cfg.ForfeitTimeout, logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(cfg)
	profileHandler := handlers.NewProfileHandler(profileSvc)
	lobbyHandler := handlers.NewLobbyHandler(lobbySvc, poolSvc, hub)
	battleHandler := handlers.NewBattleHandler(battleSvc, watcher, cfg, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	router.GET("/health", handlers.HealthCheck)

	v1 := router.Group("/api/v1")

	// 개발 환경 전용 토큰 발급 (운영은 플랫폼 SSO가 담당)
	if cfg.Env != "production" {
		v1.POST("/auth/token", authHandler.IssueToken)
	}

	authed := v1.Group("")
	authed.Use(middleware.Auth(cfg))
	{
		// GET은 와일드카드 하나로 받는다 (:userId가 "me"면 본인 프로필)
		authed.GET("/profiles/:userId", profileHandler.GetByID)
		authed.PUT("/profiles/me", profileHandler.UpdateMe)
		authed.GET("/leaderboard", profileHandler.Leaderboard)

		matches := authed.Group("/matches")
		{
			// 방 생성은 인스턴스 전체에서 사용자당 분당 10회로 제한
			createLimiter := ratelimit.NewRedisLimiter(redisClient, "arena:rl:create")
			matches.POST("", middleware.RedisRateLimit(createLimiter, 10, time.Minute), lobbyHandler.Create)

			matches.GET("", lobbyHandler.List)
			matches.GET("/:id", lobbyHandler.Get)
			matches.POST("/:id/challenge", lobbyHandler.Challenge)
			matches.POST("/:id/accept", lobbyHandler.Accept)
			matches.POST("/:id/reject", lobbyHandler.Reject)
			matches.DELETE("/:id", lobbyHandler.Cancel)
			matches.GET("/:id/questions", lobbyHandler.Questions)
			matches.GET("/:id/events", battleHandler.Events)

			// REST 답안 경로는 문항 주기보다 훨씬 촘촘한 연타만 걸러낸다
			matches.POST("/:id/answers", middleware.RateLimit(10, 5), battleHandler.SubmitAnswer)
			matches.GET("/:id/ws", battleHandler.ServeBattleWs)
		}

		authed.GET("/ws", lobbyHandler.ServeLobbyWs)
	}

	return router, sweeper
}
