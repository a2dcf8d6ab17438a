package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the identity-provider record for one human.
type Identity struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	// RoleHint is the role requested at sign-up, kept in provider metadata.
	RoleHint  string    `json:"role_hint,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IdentityMetadata is written to the provider when an identity is created.
type IdentityMetadata struct {
	DisplayName string
	Role        Role
	TenantID    *uuid.UUID
}

// Session is a provider session as held in the session cookie.
type Session struct {
	ID         string    `json:"sid"`
	IdentityID uuid.UUID `json:"iid"`
	// Token is the provider session token. It doubles as the refresh token.
	Token     string    `json:"tok"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
	Identity  *Identity `json:"-"`
}

// Expired reports whether the session has passed its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// NeedsRefresh reports whether the remaining lifetime is below threshold.
func (s *Session) NeedsRefresh(now time.Time, threshold time.Duration) bool {
	return s.ExpiresAt.Sub(now) < threshold
}

// Principal is the result of a successful session resolution. Profile is nil
// when the identity exists but provisioning never completed.
type Principal struct {
	Identity Identity `json:"identity"`
	Session  Session  `json:"-"`
	Profile  *Profile `json:"profile,omitempty"`
}

// HasProfile reports whether the principal has a profile row.
func (p *Principal) HasProfile() bool {
	return p != nil && p.Profile != nil
}

// TenantID returns the profile's tenant, if any.
func (p *Principal) TenantID() *uuid.UUID {
	if !p.HasProfile() {
		return nil
	}
	return p.Profile.TenantID
}
