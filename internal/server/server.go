package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"famtasks/internal/auth"
	"famtasks/internal/config"
	"famtasks/internal/database"
	"famtasks/internal/handler"
	"famtasks/internal/push"
	"famtasks/internal/ratelimit"
	"famtasks/internal/realtime"
	"famtasks/internal/repository"

	"github.com/MicahParks/keyfunc"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	Config *config.Config

	jwks *keyfunc.JWKS
}

func Init(cfg *config.Config) (*Server, error) {
	setupLogging(cfg.Debug)

	if cfg.AutoMigrate {
		if err := database.Migrate(cfg.MigrationURL()); err != nil {
			return nil, fmt.Errorf("❌ failed to migrate DB: %w", err)
		}
		log.Info("✅ Database migrated")
	}

	// Setup GORM
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Info("✅ Connected to database")

	// Setup Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("❌ invalid REDIS_URL: %w", err)
	}
	rc := redis.NewClient(redisOpts)

	tokens := auth.NewManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour)
	var jwks *keyfunc.JWKS
	if cfg.JWKSURL != "" {
		jwks, err = keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval: time.Hour,
			RefreshErrorHandler: func(err error) {
				log.WithError(err).Warn("⚠️  JWKS refresh failed")
			},
		})
		if err != nil {
			return nil, fmt.Errorf("❌ failed to load JWKS: %w", err)
		}
		tokens.WithJWKS(jwks)
		log.Info("🔑 Verifying tokens against JWKS")
	}

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db)
	householdRepo := repository.NewHouseholdRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	subscriptionRepo := repository.NewPushSubscriptionRepository(db)

	broker := realtime.NewBroker(rc)
	vapid := push.NewVAPID(cfg.VAPIDSubject, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	if err := vapid.Ensure(); err != nil {
		log.WithError(err).Warn("⚠️  Push notifications disabled until VAPID keys are set")
	}
	dispatcher := push.NewDispatcher(
		vapid,
		newLimiter(cfg, rc),
		profileRepo,
		subscriptionRepo,
		push.NewWebPushSender(vapid, cfg.PushTTLSeconds, &http.Client{Timeout: 10 * time.Second}),
		cfg.PushConcurrency,
	)

	// Initialize handlers
	handlers := Handlers{
		User:      handler.NewUserHandler(profileRepo, tokens),
		Household: handler.NewHouseholdHandler(householdRepo, profileRepo, cfg.InviteCodeTTL),
		Category:  handler.NewCategoryHandler(categoryRepo),
		Task:      handler.NewTaskHandler(taskRepo, categoryRepo, profileRepo, broker, broker),
		Push:      handler.NewPushHandler(dispatcher, subscriptionRepo),
	}

	health := func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if err := rc.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	}

	return &Server{
		Engine: NewRouter(handlers, tokens, profileRepo, health),
		DB:     db,
		Redis:  rc,
		Config: cfg,
		jwks:   jwks,
	}, nil
}

func setupLogging(debug bool) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if debug {
		log.SetLevel(log.DebugLevel)
		gin.SetMode(gin.DebugMode)
		return
	}
	log.SetLevel(log.InfoLevel)
	gin.SetMode(gin.ReleaseMode)
}

// newLimiter picks the push rate limiter. The in-memory limiter only counts
// requests seen by this instance.
func newLimiter(cfg *config.Config, rc *redis.Client) ratelimit.Limiter {
	switch cfg.RateLimitBackend {
	case "redis":
		log.Info("⏱️  Push rate limit shared through redis")
		return ratelimit.NewRedis(rc, cfg.RateLimitMax, cfg.RateLimitWindow)
	case "memory", "":
	default:
		log.Warnf("⚠️  unknown RATE_LIMIT_BACKEND=%q, using memory", cfg.RateLimitBackend)
	}
	return ratelimit.NewFixedWindow(cfg.RateLimitMax, cfg.RateLimitWindow)
}

func (s *Server) Run() {
	// Open event streams end when baseCtx is cancelled, so Shutdown does not
	// wait for them.
	baseCtx, cancelStreams := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:        ":" + s.Config.ServerPort,
		Handler:     s.Engine,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}

	go func() {
		log.Infof("🚀 Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Failed to listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("🛑 Shutting down server...")
	cancelStreams()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	if s.jwks != nil {
		s.jwks.EndBackground()
	}
	if err := s.Redis.Close(); err != nil {
		log.WithError(err).Warn("⚠️  closing redis")
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("✅ Server exited properly")
}
