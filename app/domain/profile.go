package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of application roles attached to a profile.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleCustomer Role = "customer"
)

// ParseRole converts a stored or submitted value into a Role. Unrecognised
// values are rejected, never defaulted.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.TrimSpace(s)); r {
	case RoleAdmin, RoleEmployee, RoleCustomer:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// IsOrgMember reports whether r belongs to the organization population.
func (r Role) IsOrgMember() bool {
	return r == RoleAdmin || r == RoleEmployee
}

func (r Role) String() string {
	return string(r)
}

// Profile attaches a role and an optional tenant to an identity.
type Profile struct {
	IdentityID  uuid.UUID  `json:"identity_id"`
	Email       string     `json:"email"`
	Role        Role       `json:"role"`
	TenantID    *uuid.UUID `json:"tenant_id,omitempty"`
	DisplayName string     `json:"display_name"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewProfile creates a profile for a freshly created identity.
func NewProfile(identityID uuid.UUID, email, displayName string, role Role, tenantID *uuid.UUID) (*Profile, error) {
	if identityID == uuid.Nil {
		return nil, fmt.Errorf("%w: identity id is required", ErrInvalidInput)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}

	now := time.Now().UTC()
	p := &Profile{
		IdentityID:  identityID,
		Email:       strings.ToLower(strings.TrimSpace(email)),
		Role:        role,
		TenantID:    tenantID,
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Validate checks the role/tenant invariant.
func (p *Profile) Validate() error {
	if _, err := ParseRole(string(p.Role)); err != nil {
		return err
	}

	if p.Role == RoleCustomer && p.TenantID != nil {
		return ErrCustomerTenantConflict
	}

	return nil
}

// HasTenant reports whether the profile is linked to a tenant.
func (p *Profile) HasTenant() bool {
	return p.TenantID != nil && *p.TenantID != uuid.Nil
}

// ProfilePatch is a partial update of a profile. Nil fields are left alone.
// ClearTenant unlinks the tenant and wins over TenantID.
type ProfilePatch struct {
	Role        *Role
	TenantID    *uuid.UUID
	ClearTenant bool
	DisplayName *string
}

// Apply returns a copy of p with the patch applied, or an error if the result
// would break the role/tenant invariant.
func (p Profile) Apply(patch ProfilePatch) (*Profile, error) {
	next := p
	if patch.Role != nil {
		next.Role = *patch.Role
	}
	if patch.TenantID != nil {
		id := *patch.TenantID
		next.TenantID = &id
	}
	if patch.ClearTenant {
		next.TenantID = nil
	}
	if patch.DisplayName != nil {
		next.DisplayName = strings.TrimSpace(*patch.DisplayName)
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}

	next.UpdatedAt = time.Now().UTC()
	return &next, nil
}
