package scoring

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"referral-backend/internal/referrals"
	"referral-backend/internal/shared/server/middleware"
	"referral-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches scoring routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/referrals/:id/score", h.getScore)
	rg.POST("/referrals/:id/score", h.score)
	rg.POST("/referrals/:id/rescore", h.rescore)
	rg.POST("/jobs/:id/score", h.scoreJob)
	rg.GET("/jobs/:id/ranking", h.ranking)
}

type scoreRequest struct {
	UseSemantic *bool `json:"useSemantic"`
}

type scoreJobRequest struct {
	UseSemantic *bool  `json:"useSemantic"`
	Status      string `json:"status"`
	Async       bool   `json:"async"`
}

type scoreJobResponse struct {
	JobID  string   `json:"jobId"`
	Scored int      `json:"scored"`
	Items  []Scored `json:"items"`
}

type rankingResponse struct {
	JobID string   `json:"jobId"`
	Items []Ranked `json:"items"`
}

func (h *Handler) getScore(c *gin.Context) {
	orgID := middleware.OrganizationIDFromContext(c)
	referralID := c.Param("id")
	c.Set("referralId", referralID)

	rec, err := h.Svc.Score(c.Request.Context(), orgID, referralID, Options{})
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, rec)
}

func (h *Handler) score(c *gin.Context) {
	h.scoreReferral(c, false)
}

func (h *Handler) rescore(c *gin.Context) {
	h.scoreReferral(c, true)
}

func (h *Handler) scoreReferral(c *gin.Context, force bool) {
	orgID := middleware.OrganizationIDFromContext(c)
	referralID := c.Param("id")
	c.Set("referralId", referralID)

	var req scoreRequest
	if !bindOptional(c, &req) {
		return
	}
	opts := Options{DisableSemantic: !useSemantic(req.UseSemantic)}

	var (
		rec Record
		err error
	)
	if force {
		rec, err = h.Svc.Rescore(c.Request.Context(), orgID, referralID, opts)
	} else {
		rec, err = h.Svc.Score(c.Request.Context(), orgID, referralID, opts)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, rec)
}

func (h *Handler) scoreJob(c *gin.Context) {
	orgID := middleware.OrganizationIDFromContext(c)
	jobID := c.Param("id")
	c.Set("jobId", jobID)

	var req scoreJobRequest
	if !bindOptional(c, &req) {
		return
	}
	status, ok := referrals.ParseStatus(req.Status)
	if !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown referral status", nil)
		return
	}
	opts := Options{DisableSemantic: !useSemantic(req.UseSemantic)}

	if req.Async {
		requestID := middleware.RequestIDFromContext(c)
		if err := h.Svc.EnqueueJob(c.Request.Context(), orgID, jobID, status, opts, requestID); err != nil {
			writeError(c, err)
			return
		}
		respond.Accepted(c, gin.H{"jobId": jobID, "requestId": requestID, "status": "queued"})
		return
	}

	items, err := h.Svc.ScoreJob(c.Request.Context(), orgID, jobID, status, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, scoreJobResponse{JobID: jobID, Scored: len(items), Items: items})
}

func (h *Handler) ranking(c *gin.Context) {
	orgID := middleware.OrganizationIDFromContext(c)
	jobID := c.Param("id")
	c.Set("jobId", jobID)

	status, ok := referrals.ParseStatus(c.Query("status"))
	if !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown referral status", nil)
		return
	}
	items, err := h.Svc.RankJob(c.Request.Context(), orgID, jobID, status)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, rankingResponse{JobID: jobID, Items: items})
}

// bindOptional decodes a JSON body when one is present. An empty body keeps
// the zero value.
func bindOptional(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return false
	}
	return true
}

func useSemantic(v *bool) bool {
	return v == nil || *v
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrQueueNotConfigured):
		respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to score referral", nil)
	}
}
