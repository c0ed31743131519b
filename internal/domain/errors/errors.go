package errors

import (
	"errors"
	"fmt"
)

// Error types for different domains
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeBusiness   ErrorType = "business"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeCatalog    ErrorType = "catalog"
	ErrorTypeTransition ErrorType = "transition"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors
func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		Retryable:  false,
		StatusCode: 400,
	}
}

func NewBusinessError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeBusiness,
		Code:       code,
		Message:    message,
		Retryable:  false,
		StatusCode: 422,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       "CONFLICT",
		Message:    message,
		Retryable:  false,
		StatusCode: 409,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Retryable:  true,
		StatusCode: 500,
	}
}

// NewRecordNotFoundError is returned when a compliance record id is unknown
// on any non-initialize call.
func NewRecordNotFoundError(recordID string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       "RECORD_NOT_FOUND",
		Message:    fmt.Sprintf("compliance record %s not found", recordID),
		Retryable:  false,
		StatusCode: 404,
		Details:    map[string]interface{}{"record_id": recordID},
	}
}

// NewCatalogUnavailableError is returned when no regulation data exists for a
// destination market or crop at build time. Initialize fails whole; no partial
// record is persisted.
func NewCatalogUnavailableError(market, crop string) *AppError {
	return &AppError{
		Type:       ErrorTypeCatalog,
		Code:       "CATALOG_DATA_UNAVAILABLE",
		Message:    fmt.Sprintf("no regulation data for market %s, crop %s", market, crop),
		Retryable:  false,
		StatusCode: 422,
		Details:    map[string]interface{}{"market": market, "crop": crop},
	}
}

// NewInvalidTransitionError is returned when a tracker update attempts a
// disallowed state change.
func NewInvalidTransitionError(ledger, from, to string) *AppError {
	return &AppError{
		Type:       ErrorTypeTransition,
		Code:       "INVALID_TRANSITION",
		Message:    fmt.Sprintf("%s: cannot transition from %s to %s", ledger, from, to),
		Retryable:  false,
		StatusCode: 422,
		Details:    map[string]interface{}{"ledger": ledger, "from": from, "to": to},
	}
}

// NewUnknownItemError is returned when an update references an item id not
// present in the record. Item sets are fixed at build time.
func NewUnknownItemError(ledger, itemID string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       "UNKNOWN_ITEM",
		Message:    fmt.Sprintf("%s item %s not found in record", ledger, itemID),
		Retryable:  false,
		StatusCode: 404,
		Details:    map[string]interface{}{"ledger": ledger, "item_id": itemID},
	}
}

// NewExpiredRecordError is returned when an update targets a record past its
// expiry; expired records must be rebuilt, never silently reused.
func NewExpiredRecordError(recordID string) *AppError {
	return &AppError{
		Type:       ErrorTypeBusiness,
		Code:       "EXPIRED_RECORD",
		Message:    fmt.Sprintf("compliance record %s has expired and must be rebuilt", recordID),
		Retryable:  false,
		StatusCode: 422,
		Details:    map[string]interface{}{"record_id": recordID},
	}
}

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// HasCode checks if an error carries a specific application code
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// GetStatusCode extracts HTTP status code from error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return 500
}
