package analysis

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/xyz-asif/citycare/internal/pkg/response"
	"github.com/xyz-asif/citycare/internal/pkg/storage"
)

type Handler struct {
	service  *Service
	maxBytes int64
}

func NewHandler(service *Service, maxBytes int64) *Handler {
	return &Handler{
		service:  service,
		maxBytes: maxBytes,
	}
}

// Analyze godoc
// @Summary Analyze a report photo
// @Description Run object detection on the photo and map results to civic categories. Falls back to a mock analysis when the inference service is unreachable.
// @Tags analysis
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Photo of the issue"
// @Success 200 {object} Analysis
// @Failure 400 {object} response.ErrorResponse
// @Router /analyze [post]
func (h *Handler) Analyze(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		response.ValidationFailed(c, "image", "image file is required")
		return
	}
	defer file.Close()

	if err := storage.ValidateImage(header, h.maxBytes); err != nil {
		response.ValidationFailed(c, "image", err.Error())
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		response.BadRequest(c, "Failed to read image", "INVALID_FILE")
		return
	}

	result := h.service.Analyze(c.Request.Context(), data, header.Header.Get("Content-Type"))
	response.OK(c, result)
}

// Categories godoc
// @Summary List civic categories
// @Tags analysis
// @Produce json
// @Success 200 {array} string
// @Router /analyze/categories [get]
func (h *Handler) Categories(c *gin.Context) {
	response.OK(c, CategoryNames())
}
