package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error    string `json:"error"`
	Residual string `json:"residual,omitempty"`
}

// statusFor maps a service error onto an HTTP status. Order matters: a selection
// naming a missing line wraps both ErrInvalidSelection and ErrNotFound.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrInvalidSelection),
		errors.Is(err, apperrors.ErrImbalancedClearing),
		errors.Is(err, apperrors.ErrUnbalanced),
		errors.Is(err, apperrors.ErrEmptyInvoice):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, apperrors.ErrAlreadyCleared),
		errors.Is(err, apperrors.ErrAlreadyCancelled):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrExternalDependency):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err at a level matching its status and writes the error body.
// Internal failures are reported with failMsg only.
func respondError(c *gin.Context, logger *slog.Logger, err error, failMsg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		logger.Error(failMsg, slog.String("error", err.Error()))
		c.JSON(status, ErrorResponse{Error: failMsg})
		return
	}

	logger.Warn(failMsg, slog.String("error", err.Error()), slog.Int("status", status))
	body := ErrorResponse{Error: err.Error()}
	var imbalanced *apperrors.ImbalancedClearingError
	if errors.As(err, &imbalanced) {
		body.Residual = imbalanced.Residual.String()
	}
	c.JSON(status, body)
}

// bindJSON decodes the request body into req, answering 400 on failure.
func bindJSON(c *gin.Context, logger *slog.Logger, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		logger.Warn("Failed to bind JSON", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return false
	}
	return true
}
