package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	ErrCodeValidation  = "ERR_VALIDATION"
	ErrCodeBadRequest  = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	ErrCodeTooLarge    = "ERR_REQUEST_TOO_LARGE"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeAlreadyDeleted      = "ERR_ALREADY_DELETED"
)

// Ledger operation error codes
const (
	// ErrCodeOperationInFlight is used when an import, bulk delete or discount already runs on the ledger
	ErrCodeOperationInFlight = "ERR_OPERATION_IN_FLIGHT"
	// ErrCodeNoDiscountSnapshot is used when a snapshot-based discount has nothing to derive from
	ErrCodeNoDiscountSnapshot = "ERR_NO_DISCOUNT_SNAPSHOT"
	// ErrCodeDuplicateSkipped is used when an import key was already claimed
	ErrCodeDuplicateSkipped = "ERR_DUPLICATE_SKIPPED"
)

// Upstream error codes
const (
	// ErrCodeSourceUnavailable is used when a reservation allocation source cannot be read
	ErrCodeSourceUnavailable = "ERR_SOURCE_UNAVAILABLE"
	// ErrCodePersistence is used when the ledger store rejects a mutation
	ErrCodePersistence = "ERR_PERSISTENCE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,
	ErrCodeTooLarge:    http.StatusRequestEntityTooLarge,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeAlreadyDeleted:      http.StatusGone,

	ErrCodeOperationInFlight:  http.StatusConflict,
	ErrCodeNoDiscountSnapshot: http.StatusUnprocessableEntity,
	ErrCodeDuplicateSkipped:   http.StatusConflict,

	ErrCodeSourceUnavailable: http.StatusBadGateway,
	ErrCodePersistence:       http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"SOURCE_UNAVAILABLE":   ErrCodeSourceUnavailable,
	"DUPLICATE_SKIPPED":    ErrCodeDuplicateSkipped,
	"ALREADY_DELETED":      ErrCodeAlreadyDeleted,
	"PERSISTENCE_ERROR":    ErrCodePersistence,
	"OPERATION_IN_FLIGHT":  ErrCodeOperationInFlight,
	"NO_DISCOUNT_SNAPSHOT": ErrCodeNoDiscountSnapshot,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format, or unknown, are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
