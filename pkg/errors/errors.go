package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an engine error so callers can map it without string-parsing.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindSlotUnavailable
	KindInvalidTransition
	KindUnauthorized
	KindValidation
	KindInternal
)

// Reason carries the specific availability rejection for SlotUnavailable errors.
type Reason string

const (
	ReasonOrganizationClosed   Reason = "organization closed"
	ReasonWeeklyDayOff         Reason = "weekly day off"
	ReasonClosedThatDay        Reason = "closed that day"
	ReasonOutsideWorkingHours  Reason = "outside working hours"
	ReasonExpertUnavailable    Reason = "expert unavailable"
	ReasonDateInPast           Reason = "date in the past"
)

// AppError is the error type returned across the engine boundary.
type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Reason  Reason `json:"reason,omitempty"`
	Err     error  `json:"-"`
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

// StatusCode maps the kind onto an HTTP status for the transport layer.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindSlotUnavailable, KindInvalidTransition:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func SlotUnavailable(reason Reason) *AppError {
	return &AppError{
		Kind:    KindSlotUnavailable,
		Message: fmt.Sprintf("slot unavailable: %s", reason),
		Reason:  reason,
	}
}

func InvalidTransition(from, to string) *AppError {
	return &AppError{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot transition appointment from %s to %s", from, to),
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Kind:    KindUnauthorized,
		Message: message,
	}
}

func Validation(message string, err error) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: message,
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// As is errors.As re-exported so callers need only this package.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
