// Package errors provides application-level error types and utilities.
// The taxonomy distinguishes recoverable transport failures, credential
// failures, credit exhaustion, duplicate-content rejections, and
// validation errors rejected before any side effect.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation          ErrorType = "validation_error"
	ErrorTypeTransport           ErrorType = "transport_error"
	ErrorTypeAuth                ErrorType = "auth_error"
	ErrorTypeInsufficientCredits ErrorType = "insufficient_credits"
	ErrorTypeDuplicateContent    ErrorType = "duplicate_content"
	ErrorTypeNotFound            ErrorType = "not_found"
	ErrorTypeConflict            ErrorType = "conflict"
	ErrorTypeInternal            ErrorType = "internal_error"
)

// AppError represents an application error with additional context
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause attaches the underlying error so the original failure is
// preserved for display, never fabricated
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	if e.Details == "" && err != nil {
		e.Details = err.Error()
	}
	return e
}

func newError(t ErrorType, code int, message string, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:    t,
		Message: message,
		Code:    code,
		Details: detail,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, details...)
}

// NewTransportError creates an error for a failed or timed-out remote call.
// Recoverable: the next wake-up retries the operation.
func NewTransportError(message string, details ...string) *AppError {
	return newError(ErrorTypeTransport, http.StatusBadGateway, message, details...)
}

// NewAuthError creates an error for invalid or revoked credentials
func NewAuthError(message string, details ...string) *AppError {
	return newError(ErrorTypeAuth, http.StatusUnauthorized, message, details...)
}

// NewInsufficientCreditsError creates an error for operations whose planned
// cost exceeds the remaining balance
func NewInsufficientCreditsError(message string, details ...string) *AppError {
	return newError(ErrorTypeInsufficientCredits, http.StatusPaymentRequired, message, details...)
}

// NewDuplicateContentError creates an error for a similarity-guard rejection
func NewDuplicateContentError(message string, details ...string) *AppError {
	return newError(ErrorTypeDuplicateContent, http.StatusConflict, message, details...)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, details...)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, details ...string) *AppError {
	return newError(ErrorTypeConflict, http.StatusConflict, message, details...)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, details...)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func isType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool { return isType(err, ErrorTypeValidation) }

// IsTransportError checks if the error is a transport error
func IsTransportError(err error) bool { return isType(err, ErrorTypeTransport) }

// IsAuthError checks if the error is an auth error
func IsAuthError(err error) bool { return isType(err, ErrorTypeAuth) }

// IsInsufficientCreditsError checks if the error is a credit exhaustion error
func IsInsufficientCreditsError(err error) bool { return isType(err, ErrorTypeInsufficientCredits) }

// IsDuplicateContentError checks if the error is a duplicate content rejection
func IsDuplicateContentError(err error) bool { return isType(err, ErrorTypeDuplicateContent) }

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool { return isType(err, ErrorTypeConflict) }

// IsDuplicateKeyError checks if the error is a database duplicate key error
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// MySQL duplicate entry error
	if strings.Contains(errStr, "Duplicate entry") || strings.Contains(errStr, "duplicate key") {
		return true
	}
	// SQLite unique violation
	return strings.Contains(errStr, "UNIQUE constraint failed")
}
