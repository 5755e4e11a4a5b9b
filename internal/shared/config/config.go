package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"referral-backend/internal/shared/storage/db"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	defaultGeminiModel = "gemini-2.5-flash"
)

// Config holds application configuration.
type Config struct {
	Port               string
	CORSAllowOrigin    []string
	Env                string
	LogLevel           string
	LogFormat          string
	DatabaseURL        string
	DB                 db.Options
	RedisURL           string
	ScoringQueueKey    string
	ScoreCacheTTL      time.Duration
	LLMProvider        string
	LLMModel           string
	OpenAIAPIKey       string
	GeminiAPIKey       string
	LLMTimeout         time.Duration
	LLMRetryAttempts   int
	ScoringConcurrency int
	WorkerConcurrency  int
	WorkerMaxAttempts  int
	ShutdownTimeout    time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// Local .env files are loaded first when present; real environment wins.
func Load() Config {
	_ = godotenv.Load(existing(".env", "cmd/.env")...)
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173")
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "")
	v.SetDefault("SCORING_QUEUE_KEY", "referral:scoring:jobs")
	v.SetDefault("SCORE_CACHE_TTL", "10m")
	v.SetDefault("LLM_PROVIDER", "openai")
	v.SetDefault("LLM_TIMEOUT_SECONDS", 30)
	v.SetDefault("LLM_RETRY_ATTEMPTS", 0)
	v.SetDefault("SCORING_CONCURRENCY", 1)
	v.SetDefault("WORKER_CONCURRENCY", 4)
	v.SetDefault("WORKER_MAX_ATTEMPTS", 3)
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 30)

	for _, key := range []string{
		"DATABASE_URL", "REDIS_URL", "LLM_MODEL", "OPENAI_API_KEY", "GEMINI_API_KEY",
		"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME", "DB_PING_TIMEOUT",
	} {
		_ = v.BindEnv(key)
	}
	return v
}

func fromViper(v *viper.Viper) Config {
	env := normalizeEnv(v.GetString("ENV"))
	provider := normalizeProvider(v.GetString("LLM_PROVIDER"))

	model := strings.TrimSpace(v.GetString("LLM_MODEL"))
	if model == "" {
		model = defaultOpenAIModel
		if provider == "gemini" {
			model = defaultGeminiModel
		}
	}

	logFormat := strings.ToLower(strings.TrimSpace(v.GetString("LOG_FORMAT")))
	if logFormat == "" {
		logFormat = "console"
		if env == "production" || env == "staging" {
			logFormat = "json"
		}
	}

	return Config{
		Port:            v.GetString("PORT"),
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		Env:             env,
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       logFormat,
		DatabaseURL:     strings.TrimSpace(v.GetString("DATABASE_URL")),
		DB: db.Options{
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
			PingTimeout:     v.GetDuration("DB_PING_TIMEOUT"),
		},
		RedisURL:           strings.TrimSpace(v.GetString("REDIS_URL")),
		ScoringQueueKey:    v.GetString("SCORING_QUEUE_KEY"),
		ScoreCacheTTL:      v.GetDuration("SCORE_CACHE_TTL"),
		LLMProvider:        provider,
		LLMModel:           model,
		OpenAIAPIKey:       strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
		GeminiAPIKey:       strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
		LLMTimeout:         time.Duration(max(v.GetInt("LLM_TIMEOUT_SECONDS"), 1)) * time.Second,
		LLMRetryAttempts:   max(v.GetInt("LLM_RETRY_ATTEMPTS"), 0),
		ScoringConcurrency: max(v.GetInt("SCORING_CONCURRENCY"), 1),
		WorkerConcurrency:  max(v.GetInt("WORKER_CONCURRENCY"), 1),
		WorkerMaxAttempts:  max(v.GetInt("WORKER_MAX_ATTEMPTS"), 1),
		ShutdownTimeout:    time.Duration(max(v.GetInt("SHUTDOWN_TIMEOUT_SECONDS"), 1)) * time.Second,
	}
}

// IsDevLike reports whether missing infrastructure may fall back to memory.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func existing(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if _, err := godotenv.Read(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gemini", "google":
		return "gemini"
	case "none", "off", "disabled":
		return "none"
	default:
		return "openai"
	}
}
