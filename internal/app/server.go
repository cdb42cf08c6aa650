// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"

	"almudeer-service/internal/config"
	"almudeer-service/internal/db"
	phoneHandler "almudeer-service/internal/handlers/telegramphone"
	"almudeer-service/internal/middleware"
	"almudeer-service/internal/mtproto"
	"almudeer-service/internal/pkg/loginhandle"
	"almudeer-service/internal/pkg/pending"
	"almudeer-service/internal/pkg/sessioncipher"
	"almudeer-service/internal/repository/postgres"
	phoneUsecase "almudeer-service/internal/service/telegramphone"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer(cfg config.AppConfig) *Server {
	return &Server{cfg: cfg, engine: gin.New()}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- PostgreSQL -----
	database, err := postgres.Connect(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := database.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Println("[REDIS] ✅ Connected successfully")

	// ----- Session encryption & login handles -----
	cipher, err := sessioncipher.New(s.cfg.SessionKey)
	if err != nil {
		return fmt.Errorf("failed to build session cipher: %w", err)
	}
	handles := loginhandle.NewManager(s.cfg.HandleSecret, s.cfg.HandleTTL)

	// ----- Repositories -----
	sessionRepo := postgres.NewPhoneSessionRepository(database)
	licenseRepo := postgres.NewLicenseRepository(database)

	// ----- Redis-backed login state -----
	pendingStore := pending.NewStore(redisClient, s.cfg.HandleTTL)
	rateLimiter := pending.NewRateLimiter(redisClient, s.cfg.StartLimit, s.cfg.StartLimitWindow)

	// ----- Telegram provider -----
	provider := mtproto.NewClient(s.cfg.TelegramAPIID, s.cfg.TelegramAPIHash, s.cfg.ProviderTimeout, logger)

	// ----- Services (Usecases) -----
	phoneService := phoneUsecase.NewPhoneService(
		provider,
		sessionRepo,
		pendingStore,
		rateLimiter,
		cipher,
		handles,
		s.cfg.MaskPrefixLen,
		logger,
	)

	// ----- Handlers -----
	phoneHandlerInst := phoneHandler.NewPhoneHandler(phoneService, logger)

	// ----- Middlewares -----
	licenseMiddleware := middleware.NewLicenseMiddleware(licenseRepo, logger)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	SetupRouter(s.engine, &Handlers{
		PhoneHandler:      phoneHandlerInst,
		LicenseMiddleware: licenseMiddleware,
	})

	// ----- Start HTTP -----
	log.Printf("🚀 Server running on %s", s.cfg.HTTPAddr)
	return s.engine.Run(s.cfg.HTTPAddr)
}
