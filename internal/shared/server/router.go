package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"referral-backend/internal/scoring"
	"referral-backend/internal/services/health"
	"referral-backend/internal/shared/config"
	"referral-backend/internal/shared/metrics"
	"referral-backend/internal/shared/server/middleware"
	"referral-backend/internal/shared/server/respond"
)

// RouterDeps are the handlers the router mounts.
type RouterDeps struct {
	Config         config.Config
	Health         *health.Service
	ScoringHandler *scoring.Handler
	Limiter        *middleware.RateLimiter
}

// Rate limit groups. Computing scores can call the LLM, so it is throttled
// harder than reads.
const (
	rateGroupRead    = "READ"
	rateGroupCompute = "COMPUTE"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})

	if deps.ScoringHandler != nil {
		scoped := api.Group("")
		scoped.Use(
			middleware.Tenant(),
			middleware.RateLimit(middleware.RateLimitConfig{
				DefaultGroup: rateGroupCompute,
				GroupFor:     rateGroupFor,
				Limiter:      deps.Limiter,
				Rules: map[string]middleware.RateLimitRule{
					rateGroupRead:    {Rate: 10, Burst: 40},
					rateGroupCompute: {Rate: 2, Burst: 10},
				},
			}),
		)
		deps.ScoringHandler.RegisterRoutes(scoped)
	}

	return r
}

func rateGroupFor(c *gin.Context) string {
	if c.Request.Method == http.MethodGet && c.FullPath() == "/api/v1/jobs/:id/ranking" {
		return rateGroupRead
	}
	return rateGroupCompute
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
