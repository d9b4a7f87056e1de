package errors

import (
	"context"
	stderrors "errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs/telemetry)
	Metadata map[string]string // Additional context, never secrets
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a domain error with metadata for log context.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
//
// Cancellation always wins over code: a cancelled caller sees CodeCanceled
// regardless of which step observed it.
func Wrap(code Code, message string, cause error) *Error {
	if IsCanceled(cause) {
		code = CodeCanceled
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf extracts the code of the first domain error in err's chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr.Code
	}
	if IsCanceled(err) {
		return CodeCanceled
	}
	return CodeUnknown
}

// IsCanceled reports whether err stems from caller cancellation, either as a
// context error or as a gRPC Canceled status.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, context.Canceled) || status.Code(err) == codes.Canceled
}

// HasCode reports whether err carries code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
