// File: cmd/auth-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/harmsephillip7/skillsflow-auth/internal/config"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/repository"
	"github.com/harmsephillip7/skillsflow-auth/internal/events"
	kafkaEvents "github.com/harmsephillip7/skillsflow-auth/internal/events/kafka"
	httpHandler "github.com/harmsephillip7/skillsflow-auth/internal/handler/http"
	"github.com/harmsephillip7/skillsflow-auth/internal/infrastructure/cache"
	"github.com/harmsephillip7/skillsflow-auth/internal/infrastructure/database"
	"github.com/harmsephillip7/skillsflow-auth/internal/infrastructure/security"
	"github.com/harmsephillip7/skillsflow-auth/internal/service"
	jwtutil "github.com/harmsephillip7/skillsflow-auth/internal/utils/jwt"
	"github.com/harmsephillip7/skillsflow-auth/internal/utils/logger"
	"github.com/harmsephillip7/skillsflow-auth/internal/utils/telemetry"
	"github.com/harmsephillip7/skillsflow-auth/migrations"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("service exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracer(cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint, log)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer shutdownTracer()
		log.Info("tracing enabled", zap.String("otlp_endpoint", cfg.Telemetry.OTLPEndpoint))
	}

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(cfg.Database.DSN(), log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	pool, err := database.NewDBPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	sessionRepo := database.NewPgxSessionRepository(pool)
	totpRepo := database.NewPgxTOTPDeviceRepository(pool)
	userRepo := database.NewPgxUserRepository(pool)

	challenges, closeChallenges, err := newChallengeStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeChallenges()

	publisher := newPublisher(cfg, log)
	defer publisher.Close()

	codec := jwtutil.NewTokenCodec(cfg.JWT.SigningKey, cfg.JWT.AccessTokenTTL)
	hasher := security.NewRefreshTokenHasher(codec.SigningKey())
	verifier, err := security.NewArgon2idVerifier(security.DefaultArgon2idParams())
	if err != nil {
		return fmt.Errorf("init password verifier: %w", err)
	}

	sessionSvc := service.NewSessionService(sessionRepo, userRepo, codec, hasher, cfg.Session, publisher, log)
	twoFactorSvc := service.NewTwoFactorService(totpRepo, cfg.MFA, publisher, log)
	authSvc := service.NewAuthService(userRepo, challenges, verifier, sessionSvc, twoFactorSvc, cfg.MFA, publisher, log)

	router := httpHandler.NewRouter(cfg, authSvc, sessionSvc, twoFactorSvc, userRepo, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newChallengeStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.ChallengeStore, func(), error) {
	if cfg.MFA.ChallengeStore != "redis" {
		store := cache.NewMemoryChallengeStore()
		return store, store.Close, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	log.Info("using redis challenge store", zap.String("addr", cfg.Redis.Addr()))
	return cache.NewRedisChallengeStore(client), func() { client.Close() }, nil
}

func newPublisher(cfg *config.Config, log *zap.Logger) events.Publisher {
	if !cfg.Kafka.Enabled {
		return events.NopPublisher{}
	}
	log.Info("publishing auth events to kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic))
	return kafkaEvents.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
}
