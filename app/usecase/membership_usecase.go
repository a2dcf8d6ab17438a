package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/port"
)

// MembershipUseCase implements port.MembershipUsecase
type MembershipUseCase struct {
	profiles port.ProfileRepository
	tenants  port.TenantRepository
	logger   *slog.Logger
}

// NewMembershipUseCase creates a new MembershipUseCase instance
func NewMembershipUseCase(profiles port.ProfileRepository, tenants port.TenantRepository, logger *slog.Logger) *MembershipUseCase {
	return &MembershipUseCase{
		profiles: profiles,
		tenants:  tenants,
		logger:   logger.With("component", "membership_usecase"),
	}
}

// JoinTenant links the principal to an active tenant as an employee.
func (uc *MembershipUseCase) JoinTenant(ctx context.Context, principal *domain.Principal, tenantID uuid.UUID) (*domain.Profile, error) {
	if principal == nil {
		return nil, domain.ErrSessionInvalid
	}

	tenant, err := uc.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive() {
		return nil, domain.ErrTenantInactive
	}

	employee := domain.RoleEmployee

	if principal.Profile == nil {
		profile, err := domain.NewProfile(principal.Identity.ID, principal.Identity.Email,
			displayNameFor(principal.Identity), employee, &tenant.ID)
		if err != nil {
			return nil, err
		}
		if err := uc.profiles.InsertProfile(ctx, profile); err != nil {
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
		uc.logger.Info("joined tenant", "identity_id", profile.IdentityID, "tenant_id", tenant.ID)
		return profile, nil
	}

	if principal.Profile.HasTenant() {
		return nil, domain.ErrAlreadyInTenant
	}

	profile, err := uc.profiles.UpdateProfile(ctx, principal.Identity.ID, domain.ProfilePatch{
		Role:     &employee,
		TenantID: &tenant.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to link profile: %w", err)
	}

	uc.logger.Info("joined tenant", "identity_id", profile.IdentityID, "tenant_id", tenant.ID)
	return profile, nil
}

// CompleteCustomerProfile creates the customer profile of an identity that
// has none. An existing profile is returned unchanged.
func (uc *MembershipUseCase) CompleteCustomerProfile(ctx context.Context, principal *domain.Principal, displayName string) (*domain.Profile, error) {
	if principal == nil {
		return nil, domain.ErrSessionInvalid
	}
	if principal.Profile != nil {
		return principal.Profile, nil
	}

	if strings.TrimSpace(displayName) == "" {
		displayName = displayNameFor(principal.Identity)
	}

	profile, err := domain.NewProfile(principal.Identity.ID, principal.Identity.Email, displayName, domain.RoleCustomer, nil)
	if err != nil {
		return nil, err
	}

	if err := uc.profiles.InsertProfile(ctx, profile); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			return uc.profiles.GetProfile(ctx, principal.Identity.ID)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	uc.logger.Info("customer profile completed", "identity_id", profile.IdentityID)
	return profile, nil
}

func displayNameFor(identity domain.Identity) string {
	if name := strings.TrimSpace(identity.DisplayName); name != "" {
		return name
	}
	return fallbackDisplayName(identity.Email)
}
