package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TenantStatus represents the status of a tenant
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

// Tenant is an organization that employees and admins belong to.
type Tenant struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Domain    *string      `json:"domain,omitempty"`
	Status    TenantStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewTenant creates a new active tenant with validation
func NewTenant(name string, domain *string) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	if len(name) > 100 {
		return nil, fmt.Errorf("%w: name must be 100 characters or less", ErrInvalidInput)
	}

	var normalized *string
	if domain != nil {
		d := strings.ToLower(strings.TrimSpace(*domain))
		if d != "" {
			normalized = &d
		}
	}

	now := time.Now().UTC()

	return &Tenant{
		ID:        uuid.New(),
		Name:      name,
		Domain:    normalized,
		Status:    TenantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsActive checks if the tenant accepts members
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}
