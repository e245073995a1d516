package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/SscSPs/bookkeeping_core/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct {
	clock func() time.Time
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogWarn logs a rejected request with the reason attached
func (s *BaseService) LogWarn(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Warn(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Debug(msg, keyvals...)
}

// LogFailure logs err at Warn when the caller is at fault and at Error otherwise.
func (s *BaseService) LogFailure(ctx context.Context, err error, msg string, keyvals ...any) {
	if isRejection(err) {
		s.LogWarn(ctx, err, msg, keyvals...)
		return
	}
	s.LogError(ctx, err, msg, keyvals...)
}

// Now returns the current UTC time, or the injected clock's time.
func (s *BaseService) Now() time.Time {
	if s.clock != nil {
		return s.clock().UTC()
	}
	return time.Now().UTC()
}

// UserID returns the acting user recorded in ctx.
func (s *BaseService) UserID(ctx context.Context) string {
	return middleware.GetUserIDFromCtx(ctx)
}

func isRejection(err error) bool {
	for _, target := range []error{
		apperrors.ErrValidation,
		apperrors.ErrNotFound,
		apperrors.ErrDuplicate,
		apperrors.ErrInvalidState,
		apperrors.ErrUnbalanced,
		apperrors.ErrImbalancedClearing,
		apperrors.ErrInvalidSelection,
		apperrors.ErrAlreadyCleared,
		apperrors.ErrAlreadyCancelled,
		apperrors.ErrConflict,
		apperrors.ErrEmptyInvoice,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
