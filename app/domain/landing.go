package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// LandingPath maps a role and tenant linkage to the canonical post-login path.
// Role is authoritative; the tenant only picks the path inside the org branch.
func LandingPath(role Role, tenantID *uuid.UUID) (string, error) {
	switch role {
	case RoleCustomer:
		return PathCustomerDashboard, nil
	case RoleAdmin, RoleEmployee:
		if tenantID == nil || *tenantID == uuid.Nil {
			return PathOrgAccess, nil
		}
		return fmt.Sprintf("%s/%s/%s", PathOrgPrefix, tenantID.String(), role), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, string(role))
	}
}

// LandingPathForProfile is LandingPath for a possibly missing profile.
func LandingPathForProfile(p *Profile, surface Surface) (string, error) {
	if p == nil {
		return surface.OnboardingPath(), nil
	}
	return LandingPath(p.Role, p.TenantID)
}
