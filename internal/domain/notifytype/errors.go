// internal/domain/notifytype/errors.go
package notifytype

// ErrorCode classifies a rejected creation payload.
type ErrorCode string

const (
	CodeShape       ErrorCode = "shape"
	CodeUnknownType ErrorCode = "unknown_type"
	CodeArity       ErrorCode = "arity"
	CodeArgument    ErrorCode = "argument"
	CodeSemantic    ErrorCode = "semantic"
)

// ValidationError carries the single human-readable message returned to the caller.
type ValidationError struct {
	Code    ErrorCode
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func newValidationError(code ErrorCode, msg string) *ValidationError {
	return &ValidationError{Code: code, Message: msg}
}
