package reports

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/xyz-asif/citycare/internal/pkg/logger"
	"github.com/xyz-asif/citycare/internal/pkg/pagination"
	"github.com/xyz-asif/citycare/internal/pkg/response"
	apperrors "github.com/xyz-asif/citycare/pkg/errors"
)

type Handler struct {
	store         *Store
	service       *Service
	maxImageBytes int64
}

func NewHandler(store *Store, service *Service, maxImageBytes int64) *Handler {
	return &Handler{
		store:         store,
		service:       service,
		maxImageBytes: maxImageBytes,
	}
}

// Create godoc
// @Summary Submit a report
// @Description Submit a civic issue with one photo. Stored in MongoDB when reachable, otherwise in the in-process fallback (mode=offline).
// @Tags reports
// @Accept multipart/form-data
// @Produce json
// @Param location formData string true "Location"
// @Param description formData string true "Description"
// @Param latitude formData number false "Latitude"
// @Param longitude formData number false "Longitude"
// @Param category formData string false "Category"
// @Param priority formData string false "Priority (low, medium, high)"
// @Param aiAnalysis formData string false "Analysis JSON"
// @Param markedLocations formData string false "Marked locations JSON"
// @Param image formData file true "Photo of the issue"
// @Success 201 {object} CreateReportResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 429 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /reports [post]
func (h *Handler) Create(c *gin.Context) {
	LimitBody(c.Writer, c.Request, h.maxImageBytes)
	sub, err := ParseSubmission(c.Request, h.maxImageBytes)
	if err != nil {
		response.FromError(c, err, "Error submitting report")
		return
	}

	report, mode, err := h.service.Submit(c.Request.Context(), sub)
	if err != nil {
		logger.Error("Error submitting report: %v", err)
		response.FromError(c, err, "Error submitting report")
		return
	}

	message := "Report submitted successfully"
	if mode == ModeOffline {
		message = "Report submitted successfully (offline mode)"
	}

	response.Created(c, CreateReportResponse{
		ReportID:  report.ID,
		ID:        report.ID,
		Message:   message,
		Timestamp: report.CreatedAt,
		Mode:      mode,
	})
}

// List godoc
// @Summary List reports
// @Description All reports, newest first. The optional status filter is applied after fetching.
// @Tags reports
// @Produce json
// @Param status query string false "Status filter (submitted, pending, in-progress, resolved, all)"
// @Param page query int false "Page number; enables pagination headers"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} Report
// @Failure 500 {object} response.ErrorResponse
// @Router /reports [get]
func (h *Handler) List(c *gin.Context) {
	list, _, err := h.store.List(c.Request.Context())
	if err != nil {
		logger.Error("Error fetching reports: %v", err)
		response.InternalServerError(c, "Error fetching reports", "INTERNAL_ERROR")
		return
	}

	list = FilterByStatus(list, c.Query("status"))
	if list == nil {
		list = []Report{}
	}

	if page, limit, ok := pagination.FromQuery(c.Query("page"), c.Query("limit")); ok {
		p := pagination.New(page, limit, int64(len(list)))
		p.SetHeaders(c.Writer.Header())
		list = pagination.Slice(list, p)
	}
	response.OK(c, list)
}

// Stats godoc
// @Summary Report counts per status
// @Tags reports
// @Produce json
// @Success 200 {object} StatsResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /reports/stats/summary [get]
func (h *Handler) Stats(c *gin.Context) {
	stats, mode, err := h.store.Stats(c.Request.Context())
	if err != nil {
		logger.Error("Error counting reports: %v", err)
		response.InternalServerError(c, "Error fetching stats", "INTERNAL_ERROR")
		return
	}
	response.OK(c, StatsResponse{Stats: stats, Mode: mode})
}

// Get godoc
// @Summary Get a report
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} Report
// @Failure 404 {object} response.ErrorResponse
// @Router /reports/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	report, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Error fetching report")
		return
	}
	response.OK(c, report)
}

// UpdateStatus godoc
// @Summary Update report status
// @Description Set any of submitted, pending, in-progress, resolved. Repeating an update is a no-op.
// @Tags reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param request body UpdateStatusRequest true "New status"
// @Success 200 {object} Report
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /reports/{id} [patch]
// @Router /reports/{id} [put]
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			response.ValidationFailed(c, "status", "status is required")
			return
		}
		response.BindJSONError(c, err)
		return
	}

	report, err := h.store.UpdateStatus(c.Request.Context(), c.Param("id"), Status(req.Status))
	if err != nil {
		h.storeError(c, err, "Error updating report")
		return
	}
	response.OK(c, report)
}

// Delete godoc
// @Summary Delete a report
// @Description Removes the report and, in the background, its image.
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} response.MessageResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /reports/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.storeError(c, err, "Error deleting report")
		return
	}
	response.Message(c, "Report removed")
}

func (h *Handler) storeError(c *gin.Context, err error, fallback string) {
	if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrValidation) {
		logger.Error("%s: %v", fallback, err)
	}
	response.FromError(c, err, fallback)
}
