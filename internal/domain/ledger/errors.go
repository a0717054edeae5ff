package ledger

import (
	"errors"
	"fmt"

	"github.com/retreat/backend/internal/domain/shared"
)

// Error codes of the ledger taxonomy
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeSourceUnavailable  = "SOURCE_UNAVAILABLE"
	CodeDuplicateSkipped   = "DUPLICATE_SKIPPED"
	CodeAlreadyDeleted     = "ALREADY_DELETED"
	CodePersistence        = "PERSISTENCE_ERROR"
	CodeOperationInFlight  = "OPERATION_IN_FLIGHT"
	CodeNoDiscountSnapshot = "NO_DISCOUNT_SNAPSHOT"
)

var (
	ErrValidation         = shared.NewDomainError(CodeValidation, "Validation failed")
	ErrSourceUnavailable  = shared.NewDomainError(CodeSourceUnavailable, "Allocation source unavailable")
	ErrDuplicateSkipped   = shared.NewDomainError(CodeDuplicateSkipped, "Record already imported")
	ErrAlreadyDeleted     = shared.NewDomainError(CodeAlreadyDeleted, "Record already deleted")
	ErrPersistence        = shared.NewDomainError(CodePersistence, "Ledger store rejected the mutation")
	ErrOperationInFlight  = shared.NewDomainError(CodeOperationInFlight, "Another ledger operation is in progress")
	ErrNoDiscountSnapshot = shared.NewDomainError(CodeNoDiscountSnapshot, "No discount snapshot captured")
)

// NewValidationError creates a validation error with a specific message
func NewValidationError(message string) *shared.DomainError {
	return shared.NewDomainError(CodeValidation, message)
}

// PersistenceError wraps a store failure so callers can match it with errors.Is(err, ErrPersistence)
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence.Message, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// NewPersistenceError wraps err unless it is already a domain error
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// SourceError reports that one allocation source could not be read
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSourceUnavailable.Message, e.Source, e.Err)
}

func (e *SourceError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}
