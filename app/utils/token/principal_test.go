package token

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sua-a1/cram-app-sub001/app/domain"
)

var testSecret = strings.Repeat("k", 32)

func TestPrincipalSigner_RoundTrip(t *testing.T) {
	tenantID := uuid.New()
	identityID := uuid.New()
	signer := NewPrincipalSigner(testSecret, time.Minute)

	raw, err := signer.Sign(&domain.Principal{
		Identity: domain.Identity{ID: identityID, Email: "lead@acme.io"},
		Profile: &domain.Profile{
			IdentityID: identityID,
			Email:      "lead@acme.io",
			Role:       domain.RoleAdmin,
			TenantID:   &tenantID,
		},
	})
	require.NoError(t, err)

	claims, err := signer.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, identityID.String(), claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, tenantID.String(), claims.TenantID)
	assert.Equal(t, "lead@acme.io", claims.Email)
}

func TestPrincipalSigner_NoProfile(t *testing.T) {
	signer := NewPrincipalSigner(testSecret, time.Minute)

	raw, err := signer.Sign(&domain.Principal{Identity: domain.Identity{ID: uuid.New(), Email: "a@b.io"}})
	require.NoError(t, err)

	claims, err := signer.Verify(raw)
	require.NoError(t, err)
	assert.Empty(t, claims.Role)
	assert.Empty(t, claims.TenantID)
}

func TestPrincipalSigner_Rejects(t *testing.T) {
	signer := NewPrincipalSigner(testSecret, time.Minute)
	raw, err := signer.Sign(&domain.Principal{Identity: domain.Identity{ID: uuid.New()}})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewPrincipalSigner(strings.Repeat("x", 32), time.Minute)
		_, err := other.Verify(raw)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewPrincipalSigner(testSecret, time.Minute)
		late.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		_, err := late.Verify(raw)
		assert.Error(t, err)
	})

	t.Run("nil principal", func(t *testing.T) {
		_, err := signer.Sign(nil)
		assert.Error(t, err)
	})
}
