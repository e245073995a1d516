package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidState indicates that the operation is not allowed for the current status of the resource.
var ErrInvalidState = errors.New("invalid state for operation")

// ErrUnbalanced indicates that a journal entry's debits and credits differ at post time.
var ErrUnbalanced = errors.New("journal entry is unbalanced")

// ErrImbalancedClearing indicates that the selected lines do not net to zero.
var ErrImbalancedClearing = errors.New("clearing selection does not net to zero")

// ErrInvalidSelection indicates that a clearing selection contains lines that cannot be cleared together.
var ErrInvalidSelection = errors.New("invalid clearing selection")

// ErrAlreadyCleared indicates that a line already belongs to a clearing group.
var ErrAlreadyCleared = errors.New("line already cleared")

// ErrAlreadyCancelled indicates that the resource is already cancelled.
var ErrAlreadyCancelled = errors.New("resource already cancelled")

// ErrConflict indicates that a concurrent mutation won the race for the same aggregate.
var ErrConflict = errors.New("concurrent modification conflict")

// ErrExternalDependency indicates that a collaborator lookup failed.
var ErrExternalDependency = errors.New("external dependency failure")

// ErrEmptyInvoice indicates that an invoice without items was posted.
var ErrEmptyInvoice = errors.New("invoice has no items")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// AppError carries a status-like code and a message alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that unwraps to ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}

// NewConflictError creates an AppError that unwraps to ErrConflict.
func NewConflictError(message string) *AppError {
	return &AppError{Code: 409, Message: message, Err: ErrConflict}
}

// UnbalancedError reports both sides of an entry that failed to post.
type UnbalancedError struct {
	EntryID   string
	DebitSum  decimal.Decimal
	CreditSum decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("journal entry %s is unbalanced: debits %s, credits %s", e.EntryID, e.DebitSum.String(), e.CreditSum.String())
}

func (e *UnbalancedError) Unwrap() error {
	return ErrUnbalanced
}

// ImbalancedClearingError reports the signed residual of a rejected clearing selection.
type ImbalancedClearingError struct {
	Residual decimal.Decimal
}

func (e *ImbalancedClearingError) Error() string {
	return fmt.Sprintf("clearing selection does not net to zero: residual %s", e.Residual.String())
}

func (e *ImbalancedClearingError) Unwrap() error {
	return ErrImbalancedClearing
}

// StatusError reports an operation rejected because of the resource's current status.
type StatusError struct {
	Resource  string
	ID        string
	Status    string
	Operation string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot %s %s %s in status %s", e.Operation, e.Resource, e.ID, e.Status)
}

func (e *StatusError) Unwrap() error {
	return ErrInvalidState
}

// NewStatusError creates a StatusError.
func NewStatusError(resource, id, status, operation string) *StatusError {
	return &StatusError{Resource: resource, ID: id, Status: status, Operation: operation}
}
