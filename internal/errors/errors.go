package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Authentication & Authorization
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeNotAuthenticated ErrorCode = "NOT_AUTHENTICATED"
	ErrCodeInvalidToken     ErrorCode = "INVALID_TOKEN"

	// Validation
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeMissingRequired ErrorCode = "MISSING_REQUIRED"

	// Resource
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	ErrCodeConflict ErrorCode = "CONFLICT"

	// QR payload validation
	ErrCodeMalformedPayload   ErrorCode = "MALFORMED_PAYLOAD"
	ErrCodeUnsupportedType    ErrorCode = "UNSUPPORTED_TYPE"
	ErrCodeUnsupportedVersion ErrorCode = "UNSUPPORTED_VERSION"
	ErrCodeMissingToken       ErrorCode = "MISSING_TOKEN"

	// Pairing approval
	ErrCodePairingNotFound     ErrorCode = "PAIRING_NOT_FOUND"
	ErrCodePairingNotPending   ErrorCode = "PAIRING_NOT_PENDING"
	ErrCodeOwnershipMismatch   ErrorCode = "OWNERSHIP_MISMATCH"
	ErrCodeApprovalWriteFailed ErrorCode = "APPROVAL_WRITE_FAILED"
	ErrCodeScanInFlight        ErrorCode = "SCAN_IN_FLIGHT"

	// Voice & transcription
	ErrCodePermissionDenied      ErrorCode = "PERMISSION_DENIED"
	ErrCodeRecognizerUnavailable ErrorCode = "RECOGNIZER_UNAVAILABLE"
	ErrCodeTranscriptionFailed   ErrorCode = "TRANSCRIPTION_FAILED"
	ErrCodeTranscriptionTimeout  ErrorCode = "TRANSCRIPTION_TIMEOUT"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
	ErrCodeExternal ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// AppError is a structured error that can be returned to clients
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

func NotAuthenticated() *AppError {
	return New(ErrCodeNotAuthenticated, "You must be signed in to pair a device")
}

func InvalidToken(message string) *AppError {
	return New(ErrCodeInvalidToken, message)
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func InvalidInput(field string, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid %s: %s", field, reason))
}

func MissingRequired(field string) *AppError {
	return New(ErrCodeMissingRequired, fmt.Sprintf("%s is required", field))
}

func MalformedPayload(cause error) *AppError {
	return Wrap(ErrCodeMalformedPayload, "QR code is not a LinkVault pairing code", cause)
}

func UnsupportedType(got string) *AppError {
	return New(ErrCodeUnsupportedType, fmt.Sprintf("Unsupported payload type %q", got))
}

func UnsupportedVersion(got int) *AppError {
	return New(ErrCodeUnsupportedVersion, fmt.Sprintf("Unsupported payload version %d", got))
}

func MissingPairingToken() *AppError {
	return New(ErrCodeMissingToken, "Pairing payload has no token")
}

func PairingNotFound() *AppError {
	return New(ErrCodePairingNotFound, "No pairing request matches this code")
}

func PairingNotPending() *AppError {
	return New(ErrCodePairingNotPending, "This pairing code has already been used")
}

func OwnershipMismatch() *AppError {
	return New(ErrCodeOwnershipMismatch, "This pairing request belongs to a different account")
}

func ApprovalWriteFailed(cause error) *AppError {
	return Wrap(ErrCodeApprovalWriteFailed, "Could not approve the pairing request", cause)
}

func ScanInFlight() *AppError {
	return New(ErrCodeScanInFlight, "A scan is already being processed")
}

func PermissionDenied(resource string) *AppError {
	return New(ErrCodePermissionDenied, fmt.Sprintf("Permission denied for %s", resource))
}

func RecognizerUnavailable(cause error) *AppError {
	return Wrap(ErrCodeRecognizerUnavailable, "Speech recognizer is not available", cause)
}

func TranscriptionFailed(reason string) *AppError {
	return New(ErrCodeTranscriptionFailed, fmt.Sprintf("Transcription failed: %s", reason))
}

func TranscriptionTimeout(attempts int) *AppError {
	return New(ErrCodeTranscriptionTimeout, fmt.Sprintf("Transcription did not complete after %d polls", attempts))
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func Database(cause error) *AppError {
	return Wrap(ErrCodeDatabase, "Database error", cause)
}

func External(service string, cause error) *AppError {
	return Wrap(ErrCodeExternal, fmt.Sprintf("External service error: %s", service), cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
