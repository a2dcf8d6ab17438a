package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Surface is one of the two sign-in surfaces.
type Surface string

const (
	SurfaceCustomer     Surface = "customer"
	SurfaceOrganization Surface = "organization"
)

// Well-known paths of both surfaces.
const (
	PathRoot         = "/"
	PathUnauthorized = "/unauthorized"
	PathError        = "/error"

	PathCustomerDashboard      = "/tickets"
	PathCustomerSignIn         = "/auth/signin"
	PathCustomerSignUp         = "/auth/signup"
	PathCustomerVerify         = "/auth/verify"
	PathCustomerCallback       = "/auth/callback"
	PathCustomerOnboarding     = "/auth/onboarding"
	PathCustomerResetPassword  = "/auth/reset-password"
	PathCustomerUpdatePassword = "/auth/update-password"

	PathOrgPrefix         = "/org"
	PathOrgAuthPrefix     = "/org/org-auth"
	PathOrgSignIn         = "/org/org-auth/signin"
	PathOrgSignUp         = "/org/org-auth/signup"
	PathOrgCallback       = "/org/org-auth/callback"
	PathOrgAccess         = "/org/org-auth/access"
	PathOrgRegister       = "/org/org-auth/register"
	PathOrgResetPassword  = "/org/org-auth/reset-password"
	PathOrgUpdatePassword = "/org/org-auth/update-password"
)

// SurfaceForPath picks the surface by path prefix.
func SurfaceForPath(path string) Surface {
	if path == PathOrgPrefix || strings.HasPrefix(path, PathOrgPrefix+"/") {
		return SurfaceOrganization
	}
	return SurfaceCustomer
}

// SignInPath returns the surface's sign-in page.
func (s Surface) SignInPath() string {
	if s == SurfaceOrganization {
		return PathOrgSignIn
	}
	return PathCustomerSignIn
}

// CallbackPath returns the surface's code-exchange endpoint.
func (s Surface) CallbackPath() string {
	if s == SurfaceOrganization {
		return PathOrgCallback
	}
	return PathCustomerCallback
}

// OnboardingPath returns where a principal without a profile is sent.
func (s Surface) OnboardingPath() string {
	if s == SurfaceOrganization {
		return PathOrgAccess
	}
	return PathCustomerOnboarding
}

// UpdatePasswordPath returns the surface's password update page.
func (s Surface) UpdatePasswordPath() string {
	if s == SurfaceOrganization {
		return PathOrgUpdatePassword
	}
	return PathCustomerUpdatePassword
}

// ProvisionFlow names the provisioning entry point.
type ProvisionFlow string

const (
	ProvisionFlowCustomer ProvisionFlow = "customer"
	ProvisionFlowOrgUser  ProvisionFlow = "org_user"
	ProvisionFlowTenant   ProvisionFlow = "tenant"
)

// Challenge is one PKCE pair for an in-flight sign-in attempt.
type Challenge struct {
	AttemptID string    `json:"aid"`
	Verifier  string    `json:"ver"`
	Challenge string    `json:"-"`
	Method    string    `json:"-"`
	CreatedAt time.Time `json:"cat"`
}

// AuthGrant is the one-time authorization code payload handed from the
// credential step to the callback.
type AuthGrant struct {
	Code      string  `json:"-"`
	Challenge string  `json:"challenge"`
	Surface   Surface `json:"surface"`
	Session   Session `json:"session"`
	// Identity travels with the grant; the session cookie does not carry it.
	Identity  *Identity `json:"identity,omitempty"`
	Email     string    `json:"email"`
	ReturnURL string    `json:"return_url,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
}

// ProvisionFailure is an operator-facing record of a saga whose compensation failed.
type ProvisionFailure struct {
	ID         uuid.UUID     `json:"id"`
	Flow       ProvisionFlow `json:"flow"`
	IdentityID *uuid.UUID    `json:"identity_id,omitempty"`
	TenantID   *uuid.UUID    `json:"tenant_id,omitempty"`
	Email      string        `json:"email"`
	Step       ProvisionStep `json:"step"`
	Error      string        `json:"error"`
	CreatedAt  time.Time     `json:"created_at"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
}

// Resolved reports whether an operator closed the record.
func (f *ProvisionFailure) Resolved() bool {
	return f.ResolvedAt != nil
}

// SafeReturnURL returns raw if it is a same-origin relative path, otherwise "".
func SafeReturnURL(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return ""
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return ""
	}
	if strings.ContainsAny(raw, "\r\n") {
		return ""
	}
	return raw
}
