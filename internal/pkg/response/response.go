package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/xyz-asif/citycare/pkg/errors"
)

// ErrorResponse represents a standard error payload returned by the API
type ErrorResponse struct {
	Message string `json:"message" example:"Report not found"`
	Code    string `json:"code,omitempty" example:"NOT_FOUND"`
	Field   string `json:"field,omitempty" example:"image"`
}

// MessageResponse is the body of simple confirmations.
type MessageResponse struct {
	Msg string `json:"msg" example:"Report removed"`
}

// OK sends a 200 response with data as the body.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 Created response
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Message sends a 200 {msg} confirmation.
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, MessageResponse{Msg: msg})
}

// Error sends an error response with custom status code and message
func Error(c *gin.Context, statusCode int, message string, errorCode ...string) {
	code := ""
	if len(errorCode) > 0 {
		code = errorCode[0]
	}

	c.JSON(statusCode, ErrorResponse{
		Message: message,
		Code:    code,
	})
}

// BadRequest sends a 400 Bad Request error
func BadRequest(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusBadRequest, message, errorCode...)
}

// Unauthorized sends a 401 Unauthorized error
func Unauthorized(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusUnauthorized, message, errorCode...)
}

// Forbidden sends a 403 Forbidden error
func Forbidden(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusForbidden, message, errorCode...)
}

// NotFound sends a 404 Not Found error
func NotFound(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusNotFound, message, errorCode...)
}

// TooManyRequests sends a 429 error
func TooManyRequests(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusTooManyRequests, message, errorCode...)
}

// InternalServerError sends a 500 Internal Server Error
func InternalServerError(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusInternalServerError, message, errorCode...)
}

// ServiceUnavailable sends a 503 Service Unavailable error
func ServiceUnavailable(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusServiceUnavailable, message, errorCode...)
}

// BindJSONError handles JSON decode errors in request body
func BindJSONError(c *gin.Context, err error) {
	BadRequest(c, "Invalid request format", "INVALID_JSON")
}

// ValidationFailed sends a 400 naming the offending field.
func ValidationFailed(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Message: message,
		Code:    "VALIDATION_FAILED",
		Field:   field,
	})
}

// FromError maps the error taxonomy onto a response. fallback is the
// message used for anything unrecognised.
func FromError(c *gin.Context, err error, fallback string) {
	var validationErr *apperrors.ValidationError
	var storageErr *apperrors.StorageError

	switch {
	case errors.As(err, &validationErr):
		ValidationFailed(c, validationErr.Field, validationErr.Message)
	case errors.Is(err, apperrors.ErrNotFound):
		NotFound(c, "Report not found", "NOT_FOUND")
	case errors.As(err, &storageErr):
		InternalServerError(c, "Failed to store image", "STORAGE_ERROR")
	default:
		InternalServerError(c, fallback, "INTERNAL_ERROR")
	}
}
