// Package errors provides the coded error taxonomy shared by the session and
// sync layers.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeConfigurationDisabled reports the offline short-circuit. It is an
	// expected outcome, not a failure.
	CodeConfigurationDisabled Code = "CONFIGURATION_DISABLED"

	// Connection lifecycle
	CodeConnectionFailed Code = "CONNECTION_FAILED"
	CodeCanceled         Code = "CANCELED"

	// Account and session
	CodeNoAccount  Code = "NO_ACCOUNT"
	CodeAuthFailed Code = "AUTH_FAILED"

	// Sync operations
	CodeRemoteCallFailed Code = "REMOTE_CALL_FAILED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeConfigurationDisabled:
		return codes.FailedPrecondition
	case CodeConnectionFailed:
		return codes.Unavailable
	case CodeCanceled:
		return codes.Canceled
	case CodeNoAccount, CodeAuthFailed:
		return codes.Unauthenticated
	case CodeRemoteCallFailed:
		return codes.Aborted
	default:
		return codes.Internal
	}
}
