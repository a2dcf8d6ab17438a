package port

//go:generate mockgen -source=auth_port.go -destination=../mocks/mock_auth_port.go

import (
	"context"

	"github.com/google/uuid"

	"github.com/sua-a1/cram-app-sub001/app/domain"
)

// KratosClient is the raw identity provider driver. Calls are single attempts;
// timeouts surface as domain.ErrUpstreamTimeout.
type KratosClient interface {
	VerifyPassword(ctx context.Context, email, password string) (*domain.Session, error)
	ToSession(ctx context.Context, sessionToken string) (*domain.Session, error)
	ExtendSession(ctx context.Context, sessionID string) (*domain.Session, error)
	RevokeSession(ctx context.Context, sessionToken string) error
	CreateIdentity(ctx context.Context, email, password string, meta domain.IdentityMetadata) (*domain.Identity, error)
	DeleteIdentity(ctx context.Context, identityID uuid.UUID) error
	SendRecovery(ctx context.Context, email, returnTo string) error
	UpdatePassword(ctx context.Context, sessionToken, newPassword string) error
	HealthCheck(ctx context.Context) error
}

// IdentityProvider is the boundary the usecases talk to. Implementations bound
// every call by a timeout and retry UpstreamTimeout once.
type IdentityProvider interface {
	VerifyCredentials(ctx context.Context, email, password string) (*domain.Session, error)
	CreateIdentity(ctx context.Context, email, password string, meta domain.IdentityMetadata) (*domain.Identity, error)
	// RefreshSession validates the token and extends it when it is close to expiry.
	RefreshSession(ctx context.Context, sessionToken string) (*domain.Session, error)
	DeleteIdentity(ctx context.Context, identityID uuid.UUID) error
	SendPasswordReset(ctx context.Context, email, redirectURL string) error
	RevokeSession(ctx context.Context, sessionToken string) error
	UpdatePassword(ctx context.Context, sessionToken, newPassword string) error
}

// AuthUsecase drives the credential exchange and the session lifecycle.
type AuthUsecase interface {
	// SignIn verifies credentials and returns the callback URL carrying a one-time code.
	SignIn(ctx context.Context, req domain.SignInRequest, challenge domain.Challenge) (string, error)
	// CompleteSignIn redeems the code against the verifier.
	CompleteSignIn(ctx context.Context, surface domain.Surface, code, verifier string) (*domain.CallbackResult, error)
	SignOut(ctx context.Context, session *domain.Session) error
	RequestPasswordReset(ctx context.Context, surface domain.Surface, email string) error
	UpdatePassword(ctx context.Context, session *domain.Session, newPassword string) error
}

// ProvisionUsecase is the account provisioning saga.
type ProvisionUsecase interface {
	ProvisionCustomer(ctx context.Context, req domain.CustomerSignup) (*domain.Principal, error)
	ProvisionOrgUser(ctx context.Context, req domain.OrgSignup) (*domain.Principal, error)
	RegisterTenant(ctx context.Context, req domain.TenantRegistration) (*domain.Tenant, error)
}

// MembershipUsecase completes onboarding for identities that are signed in.
type MembershipUsecase interface {
	JoinTenant(ctx context.Context, principal *domain.Principal, tenantID uuid.UUID) (*domain.Profile, error)
	CompleteCustomerProfile(ctx context.Context, principal *domain.Principal, displayName string) (*domain.Profile, error)
}
