package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps the codes used by domain errors to the
// standardized wire format
var DomainErrorCodeMapping = map[string]string{
	// Lookups
	"NOT_FOUND":          ErrCodeNotFound,
	"SUPPLIER_NOT_FOUND": ErrCodeNotFound,
	"ORDER_NOT_FOUND":    ErrCodeNotFound,
	"RETURN_NOT_FOUND":   ErrCodeNotFound,
	"PAYABLE_NOT_FOUND":  ErrCodeNotFound,
	"PAYMENT_NOT_FOUND":  ErrCodeNotFound,

	// Conflicts
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"ALREADY_ALLOCATED":    ErrCodeConflict,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,

	// State machine violations
	"INVALID_STATE": ErrCodeInvalidState,

	// Business rules -> 422
	"SUPPLIER_INACTIVE":    ErrCodeBusinessRule,
	"SUPPLIER_MISMATCH":    ErrCodeBusinessRule,
	"HAS_OUTSTANDING_DEBT": ErrCodeBusinessRule,
	"EXCEEDS_OUTSTANDING":  ErrCodeBusinessRule,
	"EXCEEDS_RECEIVED":     ErrCodeBusinessRule,
	"EXCEEDS_UNALLOCATED":  ErrCodeBusinessRule,
	"SPLIT_MISMATCH":       ErrCodeBusinessRule,
	"UNKNOWN_PAYABLE":      ErrCodeBusinessRule,
	"DUPLICATE_SPLIT":      ErrCodeBusinessRule,
	"DUPLICATE_LINE":       ErrCodeBusinessRule,

	// Malformed input -> 400
	"INVALID_INPUT":       ErrCodeInvalidInput,
	"INVALID_AMOUNT":      ErrCodeInvalidInput,
	"INVALID_METHOD":      ErrCodeInvalidInput,
	"INVALID_SPLIT":       ErrCodeInvalidInput,
	"INVALID_SPLITS":      ErrCodeInvalidInput,
	"EMPTY_SPLIT":         ErrCodeInvalidInput,
	"EMPTY_ORDER":         ErrCodeInvalidInput,
	"EMPTY_RETURN":        ErrCodeInvalidInput,
	"INVALID_LINE":        ErrCodeInvalidInput,
	"INVALID_NAME":        ErrCodeInvalidInput,
	"INVALID_NUMBER":      ErrCodeInvalidInput,
	"INVALID_QUANTITY":    ErrCodeInvalidInput,
	"INVALID_COST":        ErrCodeInvalidInput,
	"INVALID_SUPPLIER":    ErrCodeInvalidInput,
	"INVALID_SOURCE":      ErrCodeInvalidInput,
	"INVALID_PAYMENT":     ErrCodeInvalidInput,
	"INVALID_RETURN":      ErrCodeInvalidInput,
	"INVALID_CREDIT_DAYS": ErrCodeInvalidInput,
	"VALIDATION_ERROR":    ErrCodeValidation,
	"BAD_REQUEST":         ErrCodeBadRequest,
	"INTERNAL_ERROR":      ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized
// format. Codes already in the new format or unknown are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
