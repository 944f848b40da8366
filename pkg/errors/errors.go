package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Code is the stable kind of an AppError. Clients switch on it, so values
// must never change once published.
type Code string

const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeInvalidInput      Code = "INVALID_INPUT"
	CodeUnauthenticated   Code = "UNAUTHENTICATED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeInsufficientSeats Code = "INSUFFICIENT_SEATS"
	CodeConflict          Code = "CONFLICT"
	CodeTooManyRequests   Code = "TOO_MANY_REQUESTS"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeTimeout           Code = "TIMEOUT"
	CodeUnavailable       Code = "SERVICE_UNAVAILABLE"
)

var statusByCode = map[Code]int{
	CodeNotFound:          http.StatusNotFound,
	CodeValidation:        http.StatusUnprocessableEntity,
	CodeInvalidInput:      http.StatusBadRequest,
	CodeUnauthenticated:   http.StatusUnauthorized,
	CodeForbidden:         http.StatusForbidden,
	CodeInvalidTransition: http.StatusConflict,
	CodeInsufficientSeats: http.StatusConflict,
	CodeConflict:          http.StatusConflict,
	CodeTooManyRequests:   http.StatusTooManyRequests,
	CodeInternal:          http.StatusInternalServerError,
	CodeTimeout:           http.StatusGatewayTimeout,
	CodeUnavailable:       http.StatusServiceUnavailable,
}

// StatusFor returns the HTTP status a code is rendered with.
func StatusFor(code Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type AppError struct {
	Code       Code           `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	return StatusFor(e.Code)
}

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
	return data
}

type ErrorResponse struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func New(code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: StatusFor(code),
	}
}

func Wrap(err error, code Code, message string) *AppError {
	appErr := New(code, message)
	appErr.Err = err
	return appErr
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func NotFoundWithID(resource string, id any) *AppError {
	return NotFound(resource).WithDetails(map[string]any{
		"resource": resource,
		"id":       id,
	})
}

func Validation(message string, details map[string]any) *AppError {
	return New(CodeValidation, message).WithDetails(details)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func Unauthenticated(message string) *AppError {
	return New(CodeUnauthenticated, message)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

// InvalidTransition reports a booking state change that the ledger does not
// allow from the booking's current status.
func InvalidTransition(from, to string) *AppError {
	return New(CodeInvalidTransition, fmt.Sprintf("cannot move booking from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}

func InsufficientSeats(requested, available int) *AppError {
	return New(CodeInsufficientSeats, "not enough seats available").
		WithDetails(map[string]any{"requested": requested, "available": available})
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message)
}

func TooManyRequests(message string) *AppError {
	return New(CodeTooManyRequests, message)
}

func Internal(message string, err error) *AppError {
	return Wrap(err, CodeInternal, message)
}

func Timeout(message string) *AppError {
	return New(CodeTimeout, message)
}

func Unavailable(service string) *AppError {
	return New(CodeUnavailable, fmt.Sprintf("%s is temporarily unavailable", service))
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError unwraps err into an AppError. Anything that is not one becomes
// an internal error so causes are never leaked to clients.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// HasCode reports whether err is an AppError of the given kind.
func HasCode(err error, code Code) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
