// Package errors provides unified error handling across the promptlib system.
//
// SYSTEM ARCHITECTURE ROLE:
// This module is the error vocabulary shared by the storage adapters, the orchestrating service
// and the user-facing surfaces (CLI and terminal browser). Adapters return AppErrors so that the
// service can decide, from the code alone, whether a failure is fatal, a fallback trigger, or a
// notice for the user.
//
// KEY RESPONSIBILITIES:
// - Define error codes for the local store, the remote mirror, import validation and the AI collaborator
// - Provide structured error types (AppError) with severity, category and retry classification
// - Aggregate several failures of one operation (remote chunk upserts) into a single error
//
// INTEGRATION POINTS:
// - internal/storage: STORAGE_FAILURE and VERSION_CHANGED from the SQLite adapter
// - internal/remote: REMOTE_NOT_CONFIGURED, NETWORK_FAILURE, PARTIAL_FAILURE from the pgx adapter
// - internal/transfer: VALIDATION_ERROR / INVALID_FORMAT for rejected backups
// - internal/service: translates adapter errors into state transitions and notices
// - internal/cli: CLIErrorHandler formats AppErrors for terminal display
//
// USAGE PATTERNS:
// - Create errors: Use constructor functions like ValidationError(), StorageError()
// - Wrap errors: Use Wrap() to add context to existing errors
// - Check types: Use GetAppError() and HasCode(); both see through fmt.Errorf("%w") chains
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Validation errors
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField  ErrorCode = "MISSING_FIELD"
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"

	// Service errors
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrCodeNotReady           ErrorCode = "NOT_READY"

	// Resource errors
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"

	// Local storage errors
	ErrCodeStorageFailure ErrorCode = "STORAGE_FAILURE"
	ErrCodeVersionChanged ErrorCode = "VERSION_CHANGED"
	ErrCodeFileNotFound   ErrorCode = "FILE_NOT_FOUND"

	// Remote mirror errors
	ErrCodeRemoteNotConfigured ErrorCode = "REMOTE_NOT_CONFIGURED"
	ErrCodeNetworkFailure      ErrorCode = "NETWORK_FAILURE"
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodePartialFailure      ErrorCode = "PARTIAL_FAILURE"

	// AI collaborator errors
	ErrCodeEnrichFailure ErrorCode = "ENRICH_FAILURE"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityInfo     ErrorSeverity = "info"
	SeverityWarning  ErrorSeverity = "warning"
	SeverityError    ErrorSeverity = "error"
	SeverityCritical ErrorSeverity = "critical"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryService    ErrorCategory = "service"
	CategoryStorage    ErrorCategory = "storage"
	CategoryRemote     ErrorCategory = "remote"
	CategoryEnrich     ErrorCategory = "enrich"
	CategorySystem     ErrorCategory = "system"
)

// AppError represents a standardized application error
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Severity  ErrorSeverity          `json:"severity"`
	Category  ErrorCategory          `json:"category"`
	Cause     error                  `json:"-"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Retryable bool                   `json:"retryable"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Details != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Details)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether the error is retryable
func (e *AppError) IsRetryable() bool {
	return e.Retryable
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string) *AppError {
	category, severity := categorizeError(code)
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  severity,
		Category:  category,
		Timestamp: time.Now(),
		Retryable: isRetryable(code),
	}
}

// Wrap wraps an existing error with application error context
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := NewAppError(code, message)
	appErr.Cause = err
	return appErr
}

func categorizeError(code ErrorCode) (ErrorCategory, ErrorSeverity) {
	switch code {
	case ErrCodeValidation, ErrCodeInvalidInput, ErrCodeMissingField, ErrCodeInvalidFormat:
		return CategoryValidation, SeverityWarning

	case ErrCodeServiceUnavailable, ErrCodeNotReady:
		return CategoryService, SeverityError
	case ErrCodeInternalError:
		return CategoryService, SeverityCritical
	case ErrCodeNotFound:
		return CategoryService, SeverityInfo

	case ErrCodeStorageFailure, ErrCodeQuotaExceeded:
		return CategoryStorage, SeverityError
	case ErrCodeVersionChanged:
		return CategoryStorage, SeverityWarning
	case ErrCodeFileNotFound:
		return CategoryStorage, SeverityInfo

	case ErrCodeRemoteNotConfigured:
		return CategoryRemote, SeverityInfo
	case ErrCodeNetworkFailure, ErrCodePartialFailure:
		return CategoryRemote, SeverityError
	case ErrCodeUnauthorized:
		return CategoryRemote, SeverityWarning

	case ErrCodeEnrichFailure:
		return CategoryEnrich, SeverityWarning

	default:
		return CategorySystem, SeverityError
	}
}

func isRetryable(code ErrorCode) bool {
	switch code {
	case ErrCodeNetworkFailure, ErrCodeVersionChanged, ErrCodeStorageFailure, ErrCodeServiceUnavailable:
		return true
	default:
		return false
	}
}

// IsAppError reports whether err or anything it wraps is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError extracts an AppError from an error chain, or converts it to one
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, ErrCodeInternalError, "Internal error occurred")
}

// HasCode reports whether err carries an AppError with the given code
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

func ValidationError(message string) *AppError {
	return NewAppError(ErrCodeValidation, message)
}

func InvalidFormatError(message string, err error) *AppError {
	return Wrap(err, ErrCodeInvalidFormat, message)
}

func NotFoundError(resource string) *AppError {
	return NewAppError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return NewAppError(ErrCodeInternalError, message)
}

func StorageError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStorageFailure, fmt.Sprintf("Storage operation failed: %s", operation))
}

func VersionChangedError(have, want int64) *AppError {
	return NewAppError(ErrCodeVersionChanged, "Local database was upgraded by a newer process").
		WithDetails(fmt.Sprintf("schema version %d, this build knows %d", have, want))
}

func NetworkError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeNetworkFailure, fmt.Sprintf("Network operation failed: %s", operation))
}

func RemoteNotConfiguredError() *AppError {
	return NewAppError(ErrCodeRemoteNotConfigured, "Remote store is not configured")
}

// PartialFailureError aggregates the failed parts of a multi-part operation into one error.
// The individual failures stay reachable through errors.Is/As on the joined cause.
func PartialFailureError(operation string, failed []string, errs ...error) *AppError {
	return Wrap(stderrors.Join(errs...), ErrCodePartialFailure,
		fmt.Sprintf("%s partially failed", operation)).
		WithContext("failed", failed).
		WithDetails(fmt.Sprintf("%d record(s) rejected", len(failed)))
}

func EnrichError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeEnrichFailure, fmt.Sprintf("AI request failed: %s", operation))
}
