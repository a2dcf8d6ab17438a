package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sua-a1/cram-app-sub001/app/domain"
)

// ErrorCode represents specific error types
type ErrorCode string

const (
	// Authentication and authorization
	ErrCodeUnauthorized              ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden                 ErrorCode = "FORBIDDEN"
	ErrCodeInvalidCredentials        ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeChallengeExpiredOrMissing ErrorCode = "CHALLENGE_EXPIRED_OR_MISSING"
	ErrCodeSessionNotFound           ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeUnauthorizedRole          ErrorCode = "UNAUTHORIZED_ROLE"
	ErrCodeNotOrganizationAccount    ErrorCode = "NOT_ORGANIZATION_ACCOUNT"

	// Profiles and tenants
	ErrCodeDuplicateIdentity ErrorCode = "DUPLICATE_IDENTITY"
	ErrCodeProfileMissing    ErrorCode = "PROFILE_MISSING"
	ErrCodeTenantRequired    ErrorCode = "TENANT_REQUIRED"
	ErrCodeTenantNotFound    ErrorCode = "TENANT_NOT_FOUND"
	ErrCodeTenantInactive    ErrorCode = "TENANT_INACTIVE"
	ErrCodeAlreadyInTenant   ErrorCode = "ALREADY_IN_TENANT"
	ErrCodeDuplicateDomain   ErrorCode = "DUPLICATE_TENANT_DOMAIN"

	// Provisioning
	ErrCodeProvisionFailed         ErrorCode = "PROVISION_FAILED"
	ErrCodePartialProvisionFailure ErrorCode = "PARTIAL_PROVISION_FAILURE"

	// Validation
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"

	// System
	ErrCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError      ErrorCode = "DATABASE_ERROR"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeRateLimitExceeded  ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *AppError) Unwrap() error {
	return e.Cause
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

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getHTTPStatusCode(code),
	}
}

// Wrap wraps an existing error with AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getHTTPStatusCode(code),
		Cause:      cause,
	}
}

// AsAppError converts an error to AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// FromDomain maps a domain or driver error onto the caller-facing taxonomy.
// An existing AppError is returned unchanged.
func FromDomain(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}

	var partial *domain.PartialProvisionFailure
	switch {
	case errors.As(err, &partial):
		return Wrap(ErrCodePartialProvisionFailure, "account setup did not complete; support has been notified", err).
			WithContext("failure_id", partial.FailureID.String())
	case errors.Is(err, domain.ErrInvalidCredentials):
		return Wrap(ErrCodeInvalidCredentials, "invalid email or password", err)
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return Wrap(ErrCodeDuplicateIdentity, "an account with this email already exists", err)
	case domain.IsChallengeFailure(err):
		return Wrap(ErrCodeChallengeExpiredOrMissing, "sign-in attempt expired, please start again", err)
	case errors.Is(err, domain.ErrSessionInvalid):
		return Wrap(ErrCodeSessionNotFound, "session not found", err)
	case errors.Is(err, domain.ErrUpstreamTimeout), errors.Is(err, domain.ErrUpstreamUnavailable):
		return Wrap(ErrCodeServiceUnavailable, "please try again", err)
	case errors.Is(err, domain.ErrProfileMissing):
		return Wrap(ErrCodeProfileMissing, "profile setup required", err)
	case errors.Is(err, domain.ErrTenantRequired):
		return Wrap(ErrCodeTenantRequired, "organization membership required", err)
	case errors.Is(err, domain.ErrUnauthorizedRole), errors.Is(err, domain.ErrUnknownRole):
		return Wrap(ErrCodeUnauthorizedRole, "role not allowed", err)
	case errors.Is(err, domain.ErrNotOrganizationAccount):
		return Wrap(ErrCodeNotOrganizationAccount, "this account is not an organization account", err)
	case errors.Is(err, domain.ErrTenantNotFound):
		return Wrap(ErrCodeTenantNotFound, "organization not found", err)
	case errors.Is(err, domain.ErrTenantInactive):
		return Wrap(ErrCodeTenantInactive, "organization is not active", err)
	case errors.Is(err, domain.ErrAlreadyInTenant):
		return Wrap(ErrCodeAlreadyInTenant, "account already belongs to an organization", err)
	case errors.Is(err, domain.ErrDuplicateTenantDomain):
		return Wrap(ErrCodeDuplicateDomain, "organization domain already registered", err)
	case errors.Is(err, domain.ErrProfileNotFound):
		return Wrap(ErrCodeNotFound, "profile not found", err)
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrCustomerTenantConflict):
		return Wrap(ErrCodeInvalidInput, "invalid input", err)
	default:
		return Wrap(ErrCodeInternalError, "internal server error", err)
	}
}

// getHTTPStatusCode maps error codes to HTTP status codes
func getHTTPStatusCode(code ErrorCode) int {
	switch code {
	case ErrCodeUnauthorized, ErrCodeInvalidCredentials, ErrCodeSessionNotFound:
		return http.StatusUnauthorized
	case ErrCodeForbidden, ErrCodeUnauthorizedRole, ErrCodeNotOrganizationAccount,
		ErrCodeProfileMissing, ErrCodeTenantRequired, ErrCodeTenantInactive:
		return http.StatusForbidden
	case ErrCodeTenantNotFound, ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeDuplicateIdentity, ErrCodeAlreadyInTenant, ErrCodeDuplicateDomain:
		return http.StatusConflict
	case ErrCodeValidationFailed, ErrCodeInvalidInput, ErrCodeChallengeExpiredOrMissing:
		return http.StatusBadRequest
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError creates a validation error with details
func NewValidationError(details string) *AppError {
	return New(ErrCodeValidationFailed, "validation failed").WithDetails(details)
}

// NewUnauthorized creates an unauthorized error with context
func NewUnauthorized(details string) *AppError {
	return New(ErrCodeUnauthorized, "authentication required").WithDetails(details)
}
