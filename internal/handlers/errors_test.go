package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: amount", apperrors.ErrValidation), http.StatusBadRequest},
		{"missing line in selection", fmt.Errorf("%w: %w: line x", apperrors.ErrInvalidSelection, apperrors.ErrNotFound), http.StatusUnprocessableEntity},
		{"imbalanced clearing", &apperrors.ImbalancedClearingError{Residual: decimal.NewFromInt(5)}, http.StatusUnprocessableEntity},
		{"unbalanced entry", &apperrors.UnbalancedError{EntryID: "e"}, http.StatusUnprocessableEntity},
		{"not found", apperrors.NewNotFoundError("entry e"), http.StatusNotFound},
		{"version conflict", apperrors.NewConflictError("entry e"), http.StatusConflict},
		{"already cancelled", apperrors.ErrAlreadyCancelled, http.StatusConflict},
		{"external", fmt.Errorf("%w: costing feed", apperrors.ErrExternalDependency), http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
