// Package service holds the per-session controllers of the portal: the
// auth session, the complaint list, status updates and employee management.
// Controllers talk to the backend through narrow interfaces satisfied by
// *gateway.Client.
package service

import (
	"context"
	"errors"
)

var (
	// ErrRefreshInFlight is returned when a list refresh is already running.
	ErrRefreshInFlight = errors.New("refresh already in progress")
	// ErrUpdateInFlight is returned when the same complaint is already being updated.
	ErrUpdateInFlight = errors.New("status update already in progress for this complaint")
	// ErrValidation marks input rejected before any network call.
	ErrValidation = errors.New("validation failed")
)

// User-visible fallbacks used when the backend gives no message.
const (
	MsgUnexpected            = "An unexpected error occurred"
	MsgFillAllFields         = "Please fill in all fields"
	MsgLoginFailed           = "Login failed"
	MsgLoginRetry            = "Login failed. Please try again."
	MsgComplaintsFailed      = "Failed to fetch complaints"
	MsgComplaintsRetry       = "Failed to fetch complaints. Please try again."
	MsgEmployeesFailed       = "Failed to fetch employees"
	MsgEmployeesRetry        = "Failed to fetch employees. Please try again."
	MsgStatusFailed          = "Failed to update complaint status"
	MsgStatusRetry           = "Failed to update complaint status. Please try again."
	MsgEmployeeCreated       = "Employee created successfully!"
	MsgEmployeeCreateFailed  = "Failed to create employee"
	MsgEmployeeCreateRetry   = "Failed to create employee. Please try again."
	MsgEmployeeFormHasErrors = "يرجى إصلاح الأخطاء في النموذج"
)

// ValidationError carries a form-level message and per-field messages.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// SessionTerminator is what controllers call to sign a session out after
// the backend rejected its token.
type SessionTerminator interface {
	Logout(ctx context.Context) error
}
