package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
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

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the code of a wrapped AppError
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode attaches a code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// GetCode returns the code of the outermost AppError in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether any AppError in the chain carries code
func HasCode(err error, code string) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// Is and As are re-exported so callers need a single errors import
var (
	Is = stderrors.Is
	As = stderrors.As
)

// Predefined error codes
const (
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeDatabaseError = "DATABASE_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
	CodeStructural    = "STRUCTURAL_ERROR"
	CodeWriteFailure  = "WRITE_FAILURE"
	CodeLedgerFailure = "LEDGER_FAILURE"
)

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

// Structural reports a source problem that aborts the batch before any row is processed
func Structural(message string, cause error) *AppError {
	return &AppError{Code: CodeStructural, Message: message, Cause: cause}
}

// WriteFailure reports a document that could not be persisted
func WriteFailure(path string, cause error) *AppError {
	return &AppError{
		Code:    CodeWriteFailure,
		Message: fmt.Sprintf("failed to write %s", path),
		Cause:   cause,
	}
}

// LedgerFailure reports an idempotency ledger lookup or append that failed
func LedgerFailure(op, key string, cause error) *AppError {
	return &AppError{
		Code:    CodeLedgerFailure,
		Message: fmt.Sprintf("ledger %s failed for %q", op, key),
		Cause:   cause,
	}
}

func IsStructural(err error) bool    { return HasCode(err, CodeStructural) }
func IsWriteFailure(err error) bool  { return HasCode(err, CodeWriteFailure) }
func IsLedgerFailure(err error) bool { return HasCode(err, CodeLedgerFailure) }
