package model

import (
	"fmt"
	"strings"
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeInvalidType       = "INVALID_PROMOTION_TYPE"
	ErrCodeInvalidValue      = "INVALID_VALUE"
	ErrCodeInvalidDateRange  = "INVALID_DATE_RANGE"
	ErrCodeDuplicateCode     = "DUPLICATE_CODE"
	ErrCodeNotFound          = "PROMOTION_NOT_FOUND"
	ErrCodeImmutableField    = "IMMUTABLE_FIELD"
	ErrCodeEmptyBatch        = "EMPTY_BATCH"
	ErrCodeUsageLimitReached = "USAGE_LIMIT_REACHED"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError is a recoverable business-rule failure surfaced to the caller.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrMissingName       = NewDomainError(ErrCodeMissingField, "Promotion name is required")
	ErrMissingCode       = NewDomainError(ErrCodeMissingField, "Promotion code is required")
	ErrMissingDates      = NewDomainError(ErrCodeMissingField, "Start and end dates are required")
	ErrInvalidType       = NewDomainError(ErrCodeInvalidType, "Promotion type must be percentage, fixed, shipping or bogo")
	ErrInvalidValue      = NewDomainError(ErrCodeInvalidValue, "Promotion value is out of range for its type")
	ErrInvalidDateRange  = NewDomainError(ErrCodeInvalidDateRange, "Start date must not be after end date")
	ErrDuplicateCode     = NewDomainError(ErrCodeDuplicateCode, "Promotion code is already in use")
	ErrPromotionNotFound = NewDomainError(ErrCodeNotFound, "Promotion not found")
	ErrImmutableField    = NewDomainError(ErrCodeImmutableField, "Promotion code and id cannot be changed")
	ErrEmptyBatch        = NewDomainError(ErrCodeEmptyBatch, "Bulk generation requires at least one code")
	ErrUsageLimitReached = NewDomainError(ErrCodeUsageLimitReached, "Promotion usage limit has been reached")
)

// DuplicateCodeError reports every conflicting code found in a bulk batch,
// not just the first.
type DuplicateCodeError struct {
	Codes []string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("duplicate promotion codes: %s", strings.Join(e.Codes, ", "))
}

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error          string   `json:"error"`
	Message        string   `json:"message"`
	DuplicateCodes []string `json:"duplicateCodes,omitempty"`
}
