package errs

import (
	"context"
	"errors"
	"fmt"
)

// Sentinels for errors.Is. The HTTP layer maps each to a status code.
var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrNoRobotAvailable  = errors.New("no robot available")
	ErrOTPInvalid        = errors.New("otp is invalid")
	ErrConflict          = errors.New("conflict")
	ErrUnavailable       = errors.New("dependency unavailable")
)

// TransitionError is returned when an action is not allowed from the current state.
// The record that was asked to transition is left unchanged.
type TransitionError struct {
	Subject string
	Action  string
	From    string
}

func NewTransitionError(subject, action string, from fmt.Stringer) *TransitionError {
	return &TransitionError{
		Subject: subject,
		Action:  action,
		From:    from.String(),
	}
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s %s in status %s", ErrInvalidTransition, e.Action, e.Subject, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// NotAuthorizedError is returned when a principal may not act on a record.
type NotAuthorizedError struct {
	PrincipalID string
	Action      string
}

func NewNotAuthorizedError(principalID, action string) *NotAuthorizedError {
	return &NotAuthorizedError{
		PrincipalID: principalID,
		Action:      action,
	}
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("%s: %s may not %s", ErrNotAuthorized, e.PrincipalID, e.Action)
}

func (e *NotAuthorizedError) Unwrap() error {
	return ErrNotAuthorized
}

// ConflictError is returned when a conditional write lost against a concurrent writer.
type ConflictError struct {
	ParamName string
	ID        any
	Cause     error
}

func NewConflictError(paramName string, id any) *ConflictError {
	return &ConflictError{
		ParamName: paramName,
		ID:        id,
	}
}

func NewConflictErrorWithCause(paramName string, id any, cause error) *ConflictError {
	return &ConflictError{
		ParamName: paramName,
		ID:        id,
		Cause:     cause,
	}
}

func (e *ConflictError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s %s (cause: %v)", ErrConflict, e.ParamName, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s: %s %s", ErrConflict, e.ParamName, e.ID)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// UnavailableError marks a store or transport call that did not complete in time.
// Callers may retry.
type UnavailableError struct {
	Dependency string
	Cause      error
}

func NewUnavailableError(dependency string, cause error) *UnavailableError {
	return &UnavailableError{
		Dependency: dependency,
		Cause:      cause,
	}
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %s (cause: %v)", ErrUnavailable, e.Dependency, e.Cause)
}

func (e *UnavailableError) Unwrap() []error {
	return []error{ErrUnavailable, e.Cause}
}

// Code is the stable, externally visible classification of an operation result.
type Code string

const (
	CodeOK                Code = "OK"
	CodeValidationFailed  Code = "VALIDATION_FAILED"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeNotAuthorized     Code = "NOT_AUTHORIZED"
	CodeNoRobotAvailable  Code = "NO_ROBOT_AVAILABLE"
	CodeOTPInvalid        Code = "OTP_INVALID"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeUnavailable       Code = "UNAVAILABLE"
	CodeInternal          Code = "INTERNAL"
)

// CodeOf classifies err by walking its wrap chain.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.Is(err, ErrNotAuthorized):
		return CodeNotAuthorized
	case errors.Is(err, ErrNoRobotAvailable):
		return CodeNoRobotAvailable
	case errors.Is(err, ErrOTPInvalid):
		return CodeOTPInvalid
	case errors.Is(err, ErrObjectNotFound):
		return CodeNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrVersionIsInvalid):
		return CodeConflict
	case errors.Is(err, ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return CodeUnavailable
	case errors.Is(err, ErrValueIsInvalid),
		errors.Is(err, ErrValueIsRequired),
		errors.Is(err, ErrValueIsOutOfRange):
		return CodeValidationFailed
	default:
		return CodeInternal
	}
}
