package port

//go:generate mockgen -source=profile_port.go -destination=../mocks/mock_profile_port.go

import (
	"context"

	"github.com/google/uuid"

	"github.com/sua-a1/cram-app-sub001/app/domain"
)

// ProfileRepository defines profile data access. Missing rows surface as
// domain.ErrProfileNotFound.
type ProfileRepository interface {
	GetProfile(ctx context.Context, identityID uuid.UUID) (*domain.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*domain.Profile, error)
	InsertProfile(ctx context.Context, profile *domain.Profile) error
	UpdateProfile(ctx context.Context, identityID uuid.UUID, patch domain.ProfilePatch) (*domain.Profile, error)
}

// TenantRepository defines tenant data access
type TenantRepository interface {
	InsertTenant(ctx context.Context, tenant *domain.Tenant) error
	GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	DeleteTenant(ctx context.Context, id uuid.UUID) error
}

// ProvisionFailureRepository records sagas whose compensation failed.
type ProvisionFailureRepository interface {
	Record(ctx context.Context, failure *domain.ProvisionFailure) error
	List(ctx context.Context, unresolvedOnly bool, limit int) ([]*domain.ProvisionFailure, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.ProvisionFailure, error)
	MarkResolved(ctx context.Context, id uuid.UUID) error
}
