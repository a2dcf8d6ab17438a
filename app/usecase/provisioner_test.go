package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	mock_port "github.com/sua-a1/cram-app-sub001/app/mocks"
	"github.com/sua-a1/cram-app-sub001/app/utils/logger"
	"github.com/sua-a1/cram-app-sub001/app/utils/metrics"
)

type provisionerMocks struct {
	idp      *mock_port.MockIdentityProvider
	profiles *mock_port.MockProfileRepository
	tenants  *mock_port.MockTenantRepository
	failures *mock_port.MockProvisionFailureRepository
}

func newTestProvisioner(t *testing.T) (*Provisioner, provisionerMocks, *metrics.Metrics) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := provisionerMocks{
		idp:      mock_port.NewMockIdentityProvider(ctrl),
		profiles: mock_port.NewMockProfileRepository(ctrl),
		tenants:  mock_port.NewMockTenantRepository(ctrl),
		failures: mock_port.NewMockProvisionFailureRepository(ctrl),
	}
	reg := metrics.New(prometheus.NewRegistry())
	return NewProvisioner(m.idp, m.profiles, m.tenants, m.failures, reg, logger.Discard()), m, reg
}

var customerSignup = domain.CustomerSignup{Email: "A@B.com", Password: "Str0ngPass!", DisplayName: "Ann"}

func TestProvisioner_ProvisionCustomer(t *testing.T) {
	identityID := uuid.New()
	identity := &domain.Identity{ID: identityID, Email: "a@b.com"}

	tests := []struct {
		name        string
		setupMocks  func(m provisionerMocks)
		wantErr     error
		wantPartial bool
		wantOutcome string
	}{
		{
			name: "identity and profile created",
			setupMocks: func(m provisionerMocks) {
				m.idp.EXPECT().CreateIdentity(gomock.Any(), "a@b.com", "Str0ngPass!", domain.IdentityMetadata{DisplayName: "Ann", Role: domain.RoleCustomer}).Return(identity, nil)
				m.profiles.EXPECT().InsertProfile(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p *domain.Profile) error {
					assert.Equal(t, identityID, p.IdentityID)
					assert.Equal(t, domain.RoleCustomer, p.Role)
					assert.Nil(t, p.TenantID)
					return nil
				})
			},
			wantOutcome: outcomeSuccess,
		},
		{
			name: "duplicate identity stops before any write",
			setupMocks: func(m provisionerMocks) {
				m.idp.EXPECT().CreateIdentity(gomock.Any(), "a@b.com", gomock.Any(), gomock.Any()).Return(nil, domain.ErrDuplicateIdentity)
			},
			wantErr:     domain.ErrDuplicateIdentity,
			wantOutcome: outcomeFailed,
		},
		{
			name: "profile failure deletes the identity",
			setupMocks: func(m provisionerMocks) {
				m.idp.EXPECT().CreateIdentity(gomock.Any(), "a@b.com", gomock.Any(), gomock.Any()).Return(identity, nil)
				m.profiles.EXPECT().InsertProfile(gomock.Any(), gomock.Any()).Return(domain.ErrDuplicateIdentity)
				m.idp.EXPECT().DeleteIdentity(gomock.Any(), identityID).Return(nil)
			},
			wantErr:     domain.ErrDuplicateIdentity,
			wantOutcome: outcomeFailed,
		},
		{
			name: "failed compensation is recorded",
			setupMocks: func(m provisionerMocks) {
				m.idp.EXPECT().CreateIdentity(gomock.Any(), "a@b.com", gomock.Any(), gomock.Any()).Return(identity, nil)
				m.profiles.EXPECT().InsertProfile(gomock.Any(), gomock.Any()).Return(assert.AnError)
				m.idp.EXPECT().DeleteIdentity(gomock.Any(), identityID).Return(domain.ErrUpstreamTimeout)
				m.failures.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, f *domain.ProvisionFailure) error {
					assert.Equal(t, domain.ProvisionFlowCustomer, f.Flow)
					assert.Equal(t, domain.StepInsertProfile, f.Step)
					require.NotNil(t, f.IdentityID)
					assert.Equal(t, identityID, *f.IdentityID)
					assert.Equal(t, "a@b.com", f.Email)
					assert.False(t, f.Resolved())
					return nil
				})
			},
			wantErr:     assert.AnError,
			wantPartial: true,
			wantOutcome: outcomePartial,
		},
		{
			name: "record failure still returns the partial failure",
			setupMocks: func(m provisionerMocks) {
				m.idp.EXPECT().CreateIdentity(gomock.Any(), "a@b.com", gomock.Any(), gomock.Any()).Return(identity, nil)
				m.profiles.EXPECT().InsertProfile(gomock.Any(), gomock.Any()).Return(assert.AnError)
				m.idp.EXPECT().DeleteIdentity(gomock.Any(), identityID).Return(domain.ErrUpstreamUnavailable)
				m.failures.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("database down"))
			},
			wantErr:     domain.ErrUpstreamUnavailable,
			wantPartial: true,
			wantOutcome: outcomePartial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, m, reg := newTestProvisioner(t)
			tt.setupMocks(m)

			principal, err := p.ProvisionCustomer(context.Background(), customerSignup)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, principal)
			} else {
				require.NoError(t, err)
				assert.Equal(t, identityID, principal.Identity.ID)
				require.NotNil(t, principal.Profile)
				assert.Equal(t, "a@b.com", principal.Profile.Email)
			}

			var partial *domain.PartialProvisionFailure
			assert.Equal(t, tt.wantPartial, errors.As(err, &partial))
			if tt.wantPartial {
				assert.Equal(t, domain.ErrCodePartialProvision, domain.ErrorCode(err))
				assert.NotEqual(t, uuid.Nil, partial.FailureID)
			}
			assert.Equal(t, 1.0, testutil.ToFloat64(reg.ProvisionOutcomes.WithLabelValues("customer", tt.wantOutcome)))
		})
	}
}

// Every failed sign-up leaves either nothing behind or a recorded failure.
func TestProvisioner_NoOrphanIdentity(t *testing.T) {
	idp := newMemoryIdentityProvider()
	profiles := newMemoryProfileRepository()
	ctrl := gomock.NewController(t)
	failures := mock_port.NewMockProvisionFailureRepository(ctrl)

	p := NewProvisioner(idp, profiles, mock_port.NewMockTenantRepository(ctrl), failures, nil, logger.Discard())

	// A profile with the same email but another identity makes the insert fail.
	require.NoError(t, profiles.InsertProfile(context.Background(), &domain.Profile{
		IdentityID: uuid.New(), Email: "a@b.com", Role: domain.RoleCustomer,
	}))

	_, err := p.ProvisionCustomer(context.Background(), customerSignup)
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)
	assert.Equal(t, 0, idp.count())
	assert.Equal(t, 1, profiles.countByEmail("a@b.com"))
}

func TestProvisioner_DuplicateCustomerSignup(t *testing.T) {
	idp := newMemoryIdentityProvider()
	profiles := newMemoryProfileRepository()
	ctrl := gomock.NewController(t)

	p := NewProvisioner(idp, profiles, mock_port.NewMockTenantRepository(ctrl), mock_port.NewMockProvisionFailureRepository(ctrl), nil, logger.Discard())

	first, err := p.ProvisionCustomer(context.Background(), customerSignup)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, first.Profile.Role)

	_, err = p.ProvisionCustomer(context.Background(), customerSignup)
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)
	assert.Equal(t, domain.ErrCodeDuplicateIdentity, domain.ErrorCode(err))

	assert.Equal(t, 1, profiles.countByEmail("a@b.com"))
	assert.Equal(t, 1, idp.count())
}

func TestProvisioner_ProvisionOrgUser(t *testing.T) {
	tenantID := uuid.New()
	identity := &domain.Identity{ID: uuid.New(), Email: "e@corp.com"}

	tests := []struct {
		name       string
		req        domain.OrgSignup
		setupMocks func(m provisionerMocks)
		wantErr    error
	}{
		{
			name: "employee joins an active tenant",
			req:  domain.OrgSignup{Email: "e@corp.com", Password: "Str0ngPass!", DisplayName: "Eve", Role: domain.RoleEmployee, TenantID: &tenantID},
			setupMocks: func(m provisionerMocks) {
				gomock.InOrder(
					m.tenants.EXPECT().GetTenant(gomock.Any(), tenantID).Return(&domain.Tenant{ID: tenantID, Status: domain.TenantStatusActive}, nil),
					m.idp.EXPECT().CreateIdentity(gomock.Any(), "e@corp.com", gomock.Any(), domain.IdentityMetadata{DisplayName: "Eve", Role: domain.RoleEmployee, TenantID: &tenantID}).Return(identity, nil),
					m.profiles.EXPECT().InsertProfile(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p *domain.Profile) error {
						require.NotNil(t, p.TenantID)
						assert.Equal(t, tenantID, *p.TenantID)
						return nil
					}),
				)
			},
		},
		{
			name: "admin without tenant",
			req:  domain.OrgSignup{Email: "e@corp.com", Password: "Str0ngPass!", DisplayName: "Eve", Role: domain.RoleAdmin},
			setupMocks: func(m provisionerMocks) {
				m.idp.EXPECT().CreateIdentity(gomock.Any(), "e@corp.com", gomock.Any(), gomock.Any()).Return(identity, nil)
				m.profiles.EXPECT().InsertProfile(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "suspended tenant is refused before the identity exists",
			req:  domain.OrgSignup{Email: "e@corp.com", Password: "Str0ngPass!", DisplayName: "Eve", Role: domain.RoleEmployee, TenantID: &tenantID},
			setupMocks: func(m provisionerMocks) {
				m.tenants.EXPECT().GetTenant(gomock.Any(), tenantID).Return(&domain.Tenant{ID: tenantID, Status: domain.TenantStatusSuspended}, nil)
			},
			wantErr: domain.ErrTenantInactive,
		},
		{
			name: "unknown tenant",
			req:  domain.OrgSignup{Email: "e@corp.com", Password: "Str0ngPass!", DisplayName: "Eve", Role: domain.RoleEmployee, TenantID: &tenantID},
			setupMocks: func(m provisionerMocks) {
				m.tenants.EXPECT().GetTenant(gomock.Any(), tenantID).Return(nil, domain.ErrTenantNotFound)
			},
			wantErr: domain.ErrTenantNotFound,
		},
		{
			name:       "customer role is refused",
			req:        domain.OrgSignup{Email: "e@corp.com", Password: "Str0ngPass!", DisplayName: "Eve", Role: domain.RoleCustomer},
			setupMocks: func(m provisionerMocks) {},
			wantErr:    domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, m, _ := newTestProvisioner(t)
			tt.setupMocks(m)

			principal, err := p.ProvisionOrgUser(context.Background(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.req.Role, principal.Profile.Role)
		})
	}
}

func TestProvisioner_RegisterTenant_NewAccount(t *testing.T) {
	identity := &domain.Identity{ID: uuid.New(), Email: "founder@corp.com"}
	founder := domain.Founder{NewAccount: &domain.NewAccount{Email: "founder@corp.com", Password: "Str0ngPass!", DisplayName: "Fay"}}

	t.Run("creates identity, tenant and admin profile", func(t *testing.T) {
		p, m, _ := newTestProvisioner(t)

		var tenantID uuid.UUID
		gomock.InOrder(
			m.idp.EXPECT().CreateIdentity(gomock.Any(), "founder@corp.com", gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, _, _ string, meta domain.IdentityMetadata) (*domain.Identity, error) {
					assert.Equal(t, domain.RoleAdmin, meta.Role)
					require.NotNil(t, meta.TenantID)
					tenantID = *meta.TenantID
					return identity, nil
				}),
			m.tenants.EXPECT().InsertTenant(gomock.Any(), gomock.Any()).Return(nil),
			m.profiles.EXPECT().InsertProfile(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p *domain.Profile) error {
				assert.Equal(t, domain.RoleAdmin, p.Role)
				assert.Equal(t, tenantID, *p.TenantID)
				return nil
			}),
		)

		domainName := "Corp.com"
		tenant, err := p.RegisterTenant(context.Background(), domain.TenantRegistration{Name: "Corp", Domain: &domainName, Founder: founder})
		require.NoError(t, err)
		assert.Equal(t, tenantID, tenant.ID)
		assert.Equal(t, "corp.com", *tenant.Domain)
	})

	t.Run("profile failure compensates in reverse order", func(t *testing.T) {
		p, m, _ := newTestProvisioner(t)

		gomock.InOrder(
			m.idp.EXPECT().CreateIdentity(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(identity, nil),
			m.tenants.EXPECT().InsertTenant(gomock.Any(), gomock.Any()).Return(nil),
			m.profiles.EXPECT().InsertProfile(gomock.Any(), gomock.Any()).Return(domain.ErrDuplicateIdentity),
			m.tenants.EXPECT().DeleteTenant(gomock.Any(), gomock.Any()).Return(nil),
			m.idp.EXPECT().DeleteIdentity(gomock.Any(), identity.ID).Return(nil),
		)

		_, err := p.RegisterTenant(context.Background(), domain.TenantRegistration{Name: "Corp", Founder: founder})
		assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)
	})

	t.Run("duplicate domain only removes the identity", func(t *testing.T) {
		p, m, _ := newTestProvisioner(t)

		gomock.InOrder(
			m.idp.EXPECT().CreateIdentity(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(identity, nil),
			m.tenants.EXPECT().InsertTenant(gomock.Any(), gomock.Any()).Return(domain.ErrDuplicateTenantDomain),
			m.idp.EXPECT().DeleteIdentity(gomock.Any(), identity.ID).Return(nil),
		)

		_, err := p.RegisterTenant(context.Background(), domain.TenantRegistration{Name: "Corp", Founder: founder})
		assert.ErrorIs(t, err, domain.ErrDuplicateTenantDomain)
	})

	t.Run("partial failure names the tenant", func(t *testing.T) {
		p, m, _ := newTestProvisioner(t)

		m.idp.EXPECT().CreateIdentity(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(identity, nil)
		m.tenants.EXPECT().InsertTenant(gomock.Any(), gomock.Any()).Return(nil)
		m.profiles.EXPECT().InsertProfile(gomock.Any(), gomock.Any()).Return(assert.AnError)
		m.tenants.EXPECT().DeleteTenant(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
		m.idp.EXPECT().DeleteIdentity(gomock.Any(), identity.ID).Return(nil)
		m.failures.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, f *domain.ProvisionFailure) error {
			assert.Equal(t, domain.ProvisionFlowTenant, f.Flow)
			assert.NotNil(t, f.TenantID)
			assert.NotNil(t, f.IdentityID)
			return nil
		})

		_, err := p.RegisterTenant(context.Background(), domain.TenantRegistration{Name: "Corp", Founder: founder})
		var partial *domain.PartialProvisionFailure
		require.ErrorAs(t, err, &partial)
		assert.Equal(t, domain.StepInsertProfile, partial.Step)
	})
}

func TestProvisioner_RegisterTenant_ExistingIdentity(t *testing.T) {
	identityID := uuid.New()
	customer := &domain.Profile{IdentityID: identityID, Email: "c@corp.com", Role: domain.RoleCustomer}
	founder := domain.Founder{IdentityID: &identityID}

	t.Run("links the profile as admin", func(t *testing.T) {
		p, m, _ := newTestProvisioner(t)

		m.profiles.EXPECT().GetProfile(gomock.Any(), identityID).Return(customer, nil)
		m.tenants.EXPECT().InsertTenant(gomock.Any(), gomock.Any()).Return(nil)
		m.profiles.EXPECT().UpdateProfile(gomock.Any(), identityID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, patch domain.ProfilePatch) (*domain.Profile, error) {
				assert.Equal(t, domain.RoleAdmin, *patch.Role)
				return customer.Apply(patch)
			})

		tenant, err := p.RegisterTenant(context.Background(), domain.TenantRegistration{Name: "Corp", Founder: founder})
		require.NoError(t, err)
		assert.True(t, tenant.IsActive())
	})

	t.Run("link failure deletes the tenant and never the identity", func(t *testing.T) {
		p, m, _ := newTestProvisioner(t)

		m.profiles.EXPECT().GetProfile(gomock.Any(), identityID).Return(customer, nil)
		m.tenants.EXPECT().InsertTenant(gomock.Any(), gomock.Any()).Return(nil)
		m.profiles.EXPECT().UpdateProfile(gomock.Any(), identityID, gomock.Any()).Return(nil, assert.AnError)
		m.tenants.EXPECT().DeleteTenant(gomock.Any(), gomock.Any()).Return(nil)

		_, err := p.RegisterTenant(context.Background(), domain.TenantRegistration{Name: "Corp", Founder: founder})
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("profile already in a tenant", func(t *testing.T) {
		p, m, _ := newTestProvisioner(t)
		tenantID := uuid.New()

		m.profiles.EXPECT().GetProfile(gomock.Any(), identityID).Return(&domain.Profile{IdentityID: identityID, Role: domain.RoleEmployee, TenantID: &tenantID}, nil)

		_, err := p.RegisterTenant(context.Background(), domain.TenantRegistration{Name: "Corp", Founder: founder})
		assert.ErrorIs(t, err, domain.ErrAlreadyInTenant)
	})

	t.Run("identity without profile", func(t *testing.T) {
		p, m, _ := newTestProvisioner(t)

		m.profiles.EXPECT().GetProfile(gomock.Any(), identityID).Return(nil, domain.ErrProfileNotFound)

		_, err := p.RegisterTenant(context.Background(), domain.TenantRegistration{Name: "Corp", Founder: founder})
		assert.ErrorIs(t, err, domain.ErrProfileMissing)
	})
}

func TestProvisioner_RegisterTenant_Validation(t *testing.T) {
	p, _, _ := newTestProvisioner(t)

	_, err := p.RegisterTenant(context.Background(), domain.TenantRegistration{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = p.RegisterTenant(context.Background(), domain.TenantRegistration{Name: "Corp"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
