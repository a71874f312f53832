package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/itoshi/membership-service/internal/core/port"
	"github.com/itoshi/membership-service/internal/infra/config"
	"github.com/itoshi/membership-service/internal/infra/database"
	kafkainfra "github.com/itoshi/membership-service/internal/infra/kafka"
	"github.com/itoshi/membership-service/internal/infra/logger"
	redisinfra "github.com/itoshi/membership-service/internal/infra/redis"
	"github.com/itoshi/membership-service/internal/infra/security"
	"github.com/itoshi/membership-service/internal/infra/telemetry"
	"github.com/itoshi/membership-service/internal/repository/memory"
	postgresrepo "github.com/itoshi/membership-service/internal/repository/postgres"
	redisrepo "github.com/itoshi/membership-service/internal/repository/redis"
	"github.com/itoshi/membership-service/internal/transport/http/middleware"
	"github.com/itoshi/membership-service/internal/transport/http/routes"
	"github.com/itoshi/membership-service/internal/usecase"
)

// Application wires configuration, storage, services, and the HTTP engine.
type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
	tracer *telemetry.TracerProvider
}

// New builds a fully wired application from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	var tracer *telemetry.TracerProvider
	if cfg.Telemetry.Enabled {
		tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
	}

	var (
		pool   *pgxpool.Pool
		users  port.UserRepository
		ledger port.TransactionRepository
	)

	switch cfg.App.Backend {
	case "postgres":
		pool, err = database.NewPostgresPool(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		repos := postgresrepo.NewRepositories(pool)
		users = repos.Users
		ledger = repos.Transactions
	case "", "memory":
		store := memory.NewStore()
		users = store.Users()
		ledger = store.Transactions()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.App.Backend)
	}

	locker := memory.NewAccountLocker()

	jwtSecret := cfg.JWT.Secret
	if jwtSecret == "" {
		if cfg.App.Env == "production" {
			return nil, fmt.Errorf("jwt secret is required in production")
		}
		jwtSecret = uuid.NewString()
		log.Warn("jwt secret not configured, generated an ephemeral secret for this process")
	}

	tokenIssuer, err := security.NewTokenIssuer(jwtSecret, cfg.JWT.Issuer, cfg.JWT.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	var (
		redisClient    *redisinfra.Client
		rateLimitStore middleware.RateLimitStore
	)
	redisClient, err = redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		log.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
		redisClient = nil
	} else {
		rateLimitWindow := cfg.RateLimit.WindowDuration
		if rateLimitWindow <= 0 {
			rateLimitWindow = time.Minute
		}
		rateLimitStore = redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
			KeyPrefix: "membership:rate-limit",
			TTL:       rateLimitWindow * 2,
		})
	}

	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	authService, err := usecase.NewAuthService(users, tokenIssuer)
	if err != nil {
		return nil, fmt.Errorf("init auth service: %w", err)
	}
	authService = authService.WithLogger(log)

	registrationService := usecase.NewRegistrationService(users, security.DefaultPasswordValidator()).
		WithEventPublisher(eventPublisher).
		WithLogger(log)

	activationService := usecase.NewActivationService(users, ledger, locker).
		WithEventPublisher(eventPublisher).
		WithLogger(log)

	dashboardService := usecase.NewDashboardService(users, ledger)

	deps := routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Services: routes.ServiceSet{
			Auth:         authService,
			Registration: registrationService,
			Activation:   activationService,
			Dashboard:    dashboardService,
		},
	}

	if pool != nil {
		deps.Database = pool
	}
	if redisClient != nil {
		deps.Cache = redisClient
	}

	engine := routes.Register(deps)

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
		tracer: tracer,
	}, nil
}

// Run serves HTTP traffic until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.tracer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = a.tracer.Shutdown(shutdownCtx)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting membership API",
		zap.String("env", a.cfg.App.Env),
		zap.String("backend", a.cfg.App.Backend),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
