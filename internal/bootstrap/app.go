package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"referral-backend/internal/llm"
	"referral-backend/internal/llm/gemini"
	"referral-backend/internal/llm/openai"
	"referral-backend/internal/queue"
	"referral-backend/internal/referrals"
	"referral-backend/internal/scoring"
	"referral-backend/internal/semantic"
	"referral-backend/internal/services/health"
	"referral-backend/internal/shared/config"
	"referral-backend/internal/shared/server"
	"referral-backend/internal/shared/server/middleware"
	"referral-backend/internal/shared/storage/db"
)

// App holds shared dependencies for the API, the worker and the CLI.
type App struct {
	Config         config.Config
	Logger         *zap.Logger
	Router         *gin.Engine
	DB             *sql.DB
	Redis          *redis.Client
	Queue          *queue.RedisClient
	Referrals      referrals.Source
	Scores         scoring.Repo
	LLM            llm.Client
	Evaluator      *semantic.Evaluator
	ScoringService *scoring.Service
	ScoringHandler *scoring.Handler
	Health         *health.Service
}

// Build prepares shared dependencies and the HTTP router.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	rdb, err := buildRedis(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	llmClient, err := BuildLLM(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		Logger: logger,
		DB:     sqlDB,
		Redis:  rdb,
		LLM:    llmClient,
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Health = health.NewService(app.DB, app.Redis)
	app.Router = server.NewRouter(server.RouterDeps{
		Config:         cfg,
		Health:         app.Health,
		ScoringHandler: app.ScoringHandler,
		Limiter:        middleware.NewRateLimiter(nil),
	})
	return app, nil
}

// Close releases pooled connections.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
	_ = a.Logger.Sync()
}

func buildDB(ctx context.Context, cfg config.Config, logger *zap.Logger) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		if cfg.IsDevLike() {
			logger.Info("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.DefaultServerOptions().Merge(cfg.DB))
	if err != nil {
		if cfg.IsDevLike() {
			logger.Warn("bootstrap: database connect failed; using in-memory repositories", zap.Error(err))
			return nil, nil
		}
		return nil, err
	}
	if cfg.IsDevLike() {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildRedis(ctx context.Context, cfg config.Config, logger *zap.Logger) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		logger.Info("bootstrap: REDIS_URL empty; score cache and scoring queue disabled")
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		if cfg.IsDevLike() {
			logger.Warn("bootstrap: redis unavailable; score cache and scoring queue disabled", zap.Error(err))
			return nil, nil
		}
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// BuildLLM returns the configured provider, or a placeholder when no
// credential is set so that scoring degrades to the neutral fallback.
func BuildLLM(ctx context.Context, cfg config.Config, logger *zap.Logger) (llm.Client, error) {
	var (
		client llm.Client
		err    error
	)
	switch cfg.LLMProvider {
	case "none":
		return llm.PlaceholderClient{}, nil
	case "gemini":
		client, err = gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	default:
		client, err = openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel,
			openai.WithTimeout(cfg.LLMTimeout),
			openai.WithLogger(logger),
		)
	}
	if errors.Is(err, llm.ErrNotConfigured) {
		logger.Warn("bootstrap: no LLM credential; semantic scoring falls back to neutral", zap.String("provider", cfg.LLMProvider))
		return llm.PlaceholderClient{ModelName: cfg.LLMModel}, nil
	}
	if err != nil {
		return nil, err
	}
	return llm.WithRetry(client, cfg.LLMRetryAttempts, logger), nil
}

func buildServices(app *App) error {
	var scoreRepo scoring.Repo
	if app.DB != nil {
		app.Referrals = &referrals.PGRepo{DB: app.DB}
		scoreRepo = &scoring.PGRepo{DB: app.DB}
	} else {
		app.Referrals = referrals.NewMemoryRepo()
		scoreRepo = scoring.NewMemoryRepo()
	}
	app.Scores = scoring.NewCachedRepo(scoreRepo, app.Redis, app.Config.ScoreCacheTTL, app.Logger)

	if app.Redis != nil {
		q, err := queue.NewRedisClient(app.Redis, app.Config.ScoringQueueKey)
		if err != nil {
			return err
		}
		app.Queue = q
	}

	app.Evaluator = semantic.NewEvaluator(app.LLM, app.Logger)
	app.Evaluator.Timeout = app.Config.LLMTimeout

	svc := scoring.NewService(app.Referrals, app.Scores, app.Evaluator, app.Logger)
	svc.Concurrency = max(app.Config.ScoringConcurrency, 1)
	if app.Queue != nil {
		svc.Queue = app.Queue
	}
	app.ScoringService = svc
	app.ScoringHandler = scoring.NewHandler(svc)
	return nil
}
