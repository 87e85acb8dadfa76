package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dmitrymomot/palmistry/core/config"
	"github.com/dmitrymomot/palmistry/core/conversation"
	"github.com/dmitrymomot/palmistry/core/cookie"
	"github.com/dmitrymomot/palmistry/core/csrf"
	"github.com/dmitrymomot/palmistry/core/health"
	"github.com/dmitrymomot/palmistry/core/logger"
	"github.com/dmitrymomot/palmistry/core/server"
	"github.com/dmitrymomot/palmistry/core/session"
	"github.com/dmitrymomot/palmistry/integration/database/pg"
	"github.com/dmitrymomot/palmistry/integration/database/redis"
	"github.com/dmitrymomot/palmistry/integration/storage/s3"
	"github.com/dmitrymomot/palmistry/internal/api"
	"github.com/dmitrymomot/palmistry/middleware"
	"github.com/dmitrymomot/palmistry/pkg/llm"
)

type appConfig struct {
	Logger       logger.Config
	Server       server.Config
	Redis        redis.Config
	Postgres     pg.Config
	S3           s3.Config
	Session      session.Config
	Cookie       cookie.Config
	CSRF         csrf.Config
	LLM          llm.Config
	Conversation conversation.Config
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.NewFromConfig(cfg.Logger, logger.WithContextExtractors(middleware.RequestIDExtractor))
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	redisClient, err := redis.Connect(startCtx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()

	pool, err := pg.Connect(startCtx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(startCtx, pool, log); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	sessions := session.NewManager(
		session.NewStore(redis.NewCache(redisClient), session.WithStoreLogger(log)),
		session.WithConfig(cfg.Session),
		session.WithLogger(log),
	)

	sessionCookie, err := cookie.NewSessionFromConfig(cfg.Cookie)
	if err != nil {
		return fmt.Errorf("cookie: %w", err)
	}

	guard := csrf.New(sessions, sessionCookie, csrf.WithConfig(cfg.CSRF), csrf.WithLogger(log))
	if len(guard.AllowedOrigins()) == 0 {
		return errors.New("csrf: CSRF_ALLOWED_ORIGINS must list at least one origin")
	}

	provider, err := llm.New(startCtx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}

	checks := map[string]health.Check{
		"redis":    redis.Healthcheck(redisClient),
		"postgres": pg.Healthcheck(pool),
	}

	convOpts := []conversation.Option{
		conversation.WithConfig(cfg.Conversation),
		conversation.WithLogger(log),
	}
	if cfg.S3.Bucket != "" {
		images, err := s3.New(startCtx, cfg.S3)
		if err != nil {
			return fmt.Errorf("s3: %w", err)
		}
		convOpts = append(convOpts, conversation.WithFiles(provider.Files, images))
		checks["s3"] = images.Healthcheck
	} else {
		log.Warn("S3_BUCKET not set, follow-up answers will not see palm images")
	}

	conversations := conversation.NewService(pg.NewRepository(pool), provider.Completer, convOpts...)

	handler := api.NewHandler(sessions, sessionCookie, conversations, api.WithLogger(log))
	router := api.NewRouter(handler, api.RouterConfig{
		Guard:        guard,
		HealthChecks: checks,
		Development:  !strings.EqualFold(cfg.Logger.Env, "production"),
	})

	srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
	if err != nil {
		return err
	}

	log.Info("palmistry api ready",
		logger.Key("llm_provider", provider.Name),
		logger.Count("allowed_origins", len(guard.AllowedOrigins())),
	)
	return srv.Run(ctx, router)
}
