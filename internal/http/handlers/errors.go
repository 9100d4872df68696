package handlers

import (
	"errors"
	"net/http"

	"dtt/internal/domain"
	"dtt/internal/drive"
	"dtt/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Message   string `json:"message"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = codeForStatus(status)
	}
	c.JSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
		Message:   message,
	})
}

// RespondDomainError maps domain and Drive errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	var upErr *drive.UploadError
	switch {
	case domain.IsValidation(err):
		var v domain.ValidationError
		var details any
		if errors.As(err, &v) && v.Field != "" {
			details = gin.H{"field": v.Field}
		}
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), details)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case domain.IsUnavailable(err):
		respondError(c, http.StatusServiceUnavailable, "unavailable", err.Error(), nil)
	case errors.Is(err, drive.ErrNotAuthorized):
		respondError(c, http.StatusConflict, "drive_not_authorized", "Google Drive is not authorized", nil)
	case errors.As(err, &upErr):
		respondError(c, http.StatusBadGateway, "upload_failed", err.Error(), gin.H{"status": upErr.StatusCode})
	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
