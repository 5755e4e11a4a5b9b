package health

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
)

const checkTimeout = 2 * time.Second

// Service encapsulates health-related checks. Nil dependencies are reported
// as "disabled" and do not affect the overall status.
type Service struct {
	DB    *sql.DB
	Redis *redis.Client
}

// NewService constructs a new health service.
func NewService(db *sql.DB, rdb *redis.Client) *Service {
	return &Service{DB: db, Redis: rdb}
}

// Report is the health payload.
type Report struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// Status pings each configured dependency.
func (s *Service) Status(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	r := Report{OK: true, Database: "disabled", Redis: "disabled"}
	if s.DB != nil {
		r.Database = "ok"
		if err := s.DB.PingContext(ctx); err != nil {
			r.Database = "unavailable"
			r.OK = false
		}
	}
	if s.Redis != nil {
		r.Redis = "ok"
		if err := s.Redis.Ping(ctx).Err(); err != nil {
			r.Redis = "unavailable"
			r.OK = false
		}
	}
	return r
}
