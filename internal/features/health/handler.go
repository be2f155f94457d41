package health

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xyz-asif/citycare/internal/features/reports"
	"github.com/xyz-asif/citycare/internal/pkg/logger"
	"github.com/xyz-asif/citycare/internal/pkg/response"
	apperrors "github.com/xyz-asif/citycare/pkg/errors"
)

// Prober is the part of database.Connection the health routes use.
type Prober interface {
	Reachable() bool
	Probe(ctx context.Context) bool
}

// Status is the body of GET /api/health.
type Status struct {
	Status    string    `json:"status" example:"OK"`
	Database  string    `json:"database" example:"connected"`
	Timestamp time.Time `json:"timestamp"`
}

type Handler struct {
	prober Prober
	store  *reports.Store
}

func NewHandler(prober Prober, store *reports.Store) *Handler {
	return &Handler{prober: prober, store: store}
}

func (h *Handler) status() Status {
	database := "offline"
	if h.prober != nil && h.prober.Reachable() {
		database = "connected"
	}
	return Status{Status: "OK", Database: database, Timestamp: time.Now()}
}

// Health godoc
// @Summary Service health
// @Description Always 200; database reports whether MongoDB is currently reachable.
// @Tags health
// @Produce json
// @Success 200 {object} Status
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	response.OK(c, h.status())
}

// Reconnect godoc
// @Summary Re-probe MongoDB
// @Tags health
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Status
// @Router /health/reconnect [post]
func (h *Handler) Reconnect(c *gin.Context) {
	if h.prober != nil {
		h.prober.Probe(c.Request.Context())
	}
	response.OK(c, h.status())
}

// Sync godoc
// @Summary Replay fallback reports into MongoDB
// @Description Each report created while offline is written to MongoDB under a new id and dropped from the fallback store.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} reports.SyncResult
// @Failure 503 {object} response.ErrorResponse
// @Router /admin/sync [post]
func (h *Handler) Sync(c *gin.Context) {
	result, err := h.store.Sync(c.Request.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrUpstreamUnavailable) {
			response.ServiceUnavailable(c, "Database is not reachable", "DATABASE_OFFLINE")
			return
		}
		logger.Error("Sync failed: %v", err)
		response.InternalServerError(c, "Sync failed", "INTERNAL_ERROR")
		return
	}
	response.OK(c, result)
}
