package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/alexkola94/Paire-sub020/internal/core/port"
	"github.com/alexkola94/Paire-sub020/internal/infra/config"
	"github.com/alexkola94/Paire-sub020/internal/infra/database"
	kafkainfra "github.com/alexkola94/Paire-sub020/internal/infra/kafka"
	"github.com/alexkola94/Paire-sub020/internal/infra/logger"
	redisinfra "github.com/alexkola94/Paire-sub020/internal/infra/redis"
	"github.com/alexkola94/Paire-sub020/internal/infra/security"
	"github.com/alexkola94/Paire-sub020/internal/infra/shield"
	"github.com/alexkola94/Paire-sub020/internal/infra/telemetry"
	memoryrepo "github.com/alexkola94/Paire-sub020/internal/repository/memory"
	postgresrepo "github.com/alexkola94/Paire-sub020/internal/repository/postgres"
	redisrepo "github.com/alexkola94/Paire-sub020/internal/repository/redis"
	"github.com/alexkola94/Paire-sub020/internal/transport/http/middleware"
	"github.com/alexkola94/Paire-sub020/internal/transport/http/routes"
	"github.com/alexkola94/Paire-sub020/internal/usecase"
)

// Application owns the wired dependencies and the HTTP server lifecycle.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
	memCache *memoryrepo.ValidityCache
}

// New wires the session gate service from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &Application{cfg: cfg, logger: log}

	cache, err := app.buildCache(cfg, log)
	if err != nil {
		return nil, err
	}

	oracle, err := app.buildOracle(ctx, cfg, log)
	if err != nil {
		app.closeResources()
		return nil, err
	}

	verifier, err := security.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience)
	if err != nil {
		app.closeResources()
		return nil, fmt.Errorf("init token verifier: %w", err)
	}

	gateMetrics := telemetry.NewGateMetrics(nil, cfg.Telemetry.MetricsNamespace)

	gate := usecase.NewGateService(cfg.Gate, security.NewClaimsDecoder(), oracle, cache, log).
		WithMetrics(gateMetrics).
		WithAuditPublisher(app.buildAuditPublisher(cfg, log))

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{
		Namespace: cfg.Telemetry.MetricsNamespace,
	})
	if err != nil {
		app.closeResources()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	deps := routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Gate:     gate,
		Verifier: verifier,
		Metrics:  httpMetrics,
	}
	if app.pool != nil {
		deps.Database = app.pool
	}
	if app.redis != nil {
		deps.Cache = app.redis
	}

	app.engine = routes.Register(deps)

	return app, nil
}

func (a *Application) buildCache(cfg *config.AppConfig, log *zap.Logger) (port.ValidityCache, error) {
	switch strings.ToLower(cfg.Cache.Backend) {
	case "", "memory":
		a.memCache = memoryrepo.NewValidityCache(cfg.Cache.SweepInterval)
		return a.memCache, nil
	case "redis":
		client, err := redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		a.redis = client
		return redisrepo.NewValidityCache(client.Client()), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func (a *Application) buildOracle(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (port.RevocationOracle, error) {
	switch strings.ToLower(cfg.Oracle.Mode) {
	case "", "http":
		client, err := shield.NewClient(cfg.Oracle, cfg.Gate.OracleTimeout, log)
		if err != nil {
			return nil, fmt.Errorf("init shield client: %w", err)
		}
		return client, nil
	case "postgres":
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		a.pool = pool
		return postgresrepo.NewSessionOracle(pool), nil
	default:
		return nil, fmt.Errorf("unknown oracle mode %q", cfg.Oracle.Mode)
	}
}

func (a *Application) buildAuditPublisher(cfg *config.AppConfig, log *zap.Logger) port.AuditPublisher {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("kafka brokers not configured, using stub publisher")
		return kafkainfra.NewStubPublisher(log)
	}

	producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
	if err != nil {
		log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(log)
	}

	a.producer = producer
	log.Info("kafka audit publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	return kafkainfra.NewAuditPublisher(producer, cfg.App, log)
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.closeResources()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting shield gate",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
		zap.String("oracle_mode", a.cfg.Oracle.Mode),
		zap.String("cache_backend", a.cfg.Cache.Backend),
		zap.Duration("cache_ttl", a.cfg.Gate.CacheTTL),
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

func (a *Application) closeResources() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
	if a.producer != nil {
		_ = a.producer.Close()
		a.producer = nil
	}
	if a.memCache != nil {
		_ = a.memCache.Close()
		a.memCache = nil
	}
}
