package shared

// DomainError represents a domain-level error with a stable machine-readable
// code. Presentation layers map codes to HTTP statuses without re-deriving
// business logic.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
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

// Error codes fall into four categories: invalid state (an action attempted
// in a status that does not allow it), insufficient stock, validation
// failures, and concurrency conflicts. Only concurrency conflicts are safe
// to retry automatically.
const (
	CodeInvalidState        = "INVALID_STATE"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeNotFound            = "NOT_FOUND"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeValidationFailed, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
)

// IsRetryable reports whether the error is a concurrency conflict that a
// caller may retry a bounded number of times. State and validation errors
// are never retried.
func IsRetryable(err error) bool {
	de, ok := err.(*DomainError)
	return ok && de.Code == CodeConcurrencyConflict
}
