package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Authentication, provisioning and authorization errors
var (
	// Credential exchange
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateIdentity  = errors.New("identity already exists")
	ErrChallengeExpired   = errors.New("challenge expired")
	ErrChallengeMissing   = errors.New("challenge missing")
	ErrChallengeMismatch  = errors.New("challenge does not match verifier")
	ErrGrantNotFound      = errors.New("authorization code not found")

	// Session
	ErrSessionInvalid = errors.New("session invalid or expired")

	// Upstream
	ErrUpstreamTimeout     = errors.New("upstream timeout")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// Profiles and tenants
	ErrProfileMissing         = errors.New("profile missing")
	ErrProfileNotFound        = errors.New("profile not found")
	ErrTenantNotFound         = errors.New("tenant not found")
	ErrTenantInactive         = errors.New("tenant inactive")
	ErrTenantRequired         = errors.New("tenant required")
	ErrAlreadyInTenant        = errors.New("profile already belongs to a tenant")
	ErrDuplicateTenantDomain  = errors.New("tenant domain already registered")
	ErrCustomerTenantConflict = errors.New("customer profiles cannot belong to a tenant")

	// Authorization
	ErrUnknownRole            = errors.New("unknown role")
	ErrUnauthorizedRole       = errors.New("role not allowed")
	ErrNotOrganizationAccount = errors.New("not an organization account")

	// Validation
	ErrInvalidInput = errors.New("invalid input")
)

// AuthError represents authentication-related errors with additional context
type AuthError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// NewAuthError creates a new authentication error
func NewAuthError(code, message string, cause error) *AuthError {
	return &AuthError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error codes surfaced to callers
const (
	ErrCodeInvalidCredentials      = "INVALID_CREDENTIALS"
	ErrCodeDuplicateIdentity       = "DUPLICATE_IDENTITY"
	ErrCodeChallengeExpiredMissing = "CHALLENGE_EXPIRED_OR_MISSING"
	ErrCodeProfileMissing          = "PROFILE_MISSING"
	ErrCodePartialProvision        = "PARTIAL_PROVISION_FAILURE"
	ErrCodeUpstreamTimeout         = "UPSTREAM_TIMEOUT"
	ErrCodeUnauthorizedRole        = "UNAUTHORIZED_ROLE"
	ErrCodeTenantRequired          = "TENANT_REQUIRED"
	ErrCodeNotOrganizationAccount  = "NOT_ORGANIZATION_ACCOUNT"
	ErrCodeInternal                = "INTERNAL_ERROR"
)

// ProvisionStep names a forward step of the provisioning saga.
type ProvisionStep string

const (
	StepCheckTenant    ProvisionStep = "check_tenant"
	StepCreateIdentity ProvisionStep = "create_identity"
	StepInsertTenant   ProvisionStep = "insert_tenant"
	StepInsertProfile  ProvisionStep = "insert_profile"
	StepLinkProfile    ProvisionStep = "link_profile"
)

// PartialProvisionFailure is returned when a provisioning step failed and at
// least one compensating action failed too. The records it names need manual
// reconciliation.
type PartialProvisionFailure struct {
	FailureID       uuid.UUID
	Flow            ProvisionFlow
	IdentityID      *uuid.UUID
	TenantID        *uuid.UUID
	Email           string
	Step            ProvisionStep
	Cause           error
	CompensationErr error
}

func (e *PartialProvisionFailure) Error() string {
	return fmt.Sprintf("partial provision failure (flow=%s step=%s): %v; compensation: %v",
		e.Flow, e.Step, e.Cause, e.CompensationErr)
}

func (e *PartialProvisionFailure) Unwrap() []error {
	errs := make([]error, 0, 2)
	for _, err := range []error{e.Cause, e.CompensationErr} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// IsChallengeFailure reports whether err means the verifier cookie is gone or stale.
func IsChallengeFailure(err error) bool {
	return errors.Is(err, ErrChallengeExpired) || errors.Is(err, ErrChallengeMissing) ||
		errors.Is(err, ErrChallengeMismatch) || errors.Is(err, ErrGrantNotFound)
}

// ErrorCode returns the caller-facing code for a domain error.
func ErrorCode(err error) string {
	var partial *PartialProvisionFailure
	var authErr *AuthError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &partial):
		return ErrCodePartialProvision
	case errors.Is(err, ErrInvalidCredentials):
		return ErrCodeInvalidCredentials
	case errors.Is(err, ErrDuplicateIdentity):
		return ErrCodeDuplicateIdentity
	case IsChallengeFailure(err):
		return ErrCodeChallengeExpiredMissing
	case errors.Is(err, ErrProfileMissing):
		return ErrCodeProfileMissing
	case errors.Is(err, ErrUpstreamTimeout):
		return ErrCodeUpstreamTimeout
	case errors.Is(err, ErrUnauthorizedRole):
		return ErrCodeUnauthorizedRole
	case errors.Is(err, ErrTenantRequired):
		return ErrCodeTenantRequired
	case errors.Is(err, ErrNotOrganizationAccount):
		return ErrCodeNotOrganizationAccount
	case errors.As(err, &authErr):
		return authErr.Code
	default:
		return ErrCodeInternal
	}
}

// Cookie errors
var (
	ErrCookieNotFound = errors.New("cookie not found")
	ErrCookieInvalid  = errors.New("cookie invalid")
)
