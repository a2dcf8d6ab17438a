package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	mock_port "github.com/sua-a1/cram-app-sub001/app/mocks"
	"github.com/sua-a1/cram-app-sub001/app/utils/logger"
)

type reconcilerMocks struct {
	idp      *mock_port.MockIdentityProvider
	tenants  *mock_port.MockTenantRepository
	failures *mock_port.MockProvisionFailureRepository
}

func newTestReconciler(t *testing.T) (*Reconciler, reconcilerMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := reconcilerMocks{
		idp:      mock_port.NewMockIdentityProvider(ctrl),
		tenants:  mock_port.NewMockTenantRepository(ctrl),
		failures: mock_port.NewMockProvisionFailureRepository(ctrl),
	}
	return NewReconciler(m.idp, m.tenants, m.failures, logger.Discard()), m
}

func TestReconciler_Retry(t *testing.T) {
	id := uuid.New()
	identityID := uuid.New()
	tenantID := uuid.New()
	resolvedAt := time.Now().UTC()

	open := &domain.ProvisionFailure{ID: id, Flow: domain.ProvisionFlowTenant, IdentityID: &identityID, TenantID: &tenantID, Step: domain.StepInsertProfile}
	closed := *open
	closed.ResolvedAt = &resolvedAt

	tests := []struct {
		name         string
		setupMocks   func(m reconcilerMocks)
		wantErr      error
		wantResolved bool
	}{
		{
			name: "deletes both records and resolves",
			setupMocks: func(m reconcilerMocks) {
				gomock.InOrder(
					m.failures.EXPECT().Get(gomock.Any(), id).Return(open, nil),
					m.idp.EXPECT().DeleteIdentity(gomock.Any(), identityID).Return(nil),
					m.tenants.EXPECT().DeleteTenant(gomock.Any(), tenantID).Return(nil),
					m.failures.EXPECT().MarkResolved(gomock.Any(), id).Return(nil),
					m.failures.EXPECT().Get(gomock.Any(), id).Return(&closed, nil),
				)
			},
			wantResolved: true,
		},
		{
			name: "identity delete fails and the record stays open",
			setupMocks: func(m reconcilerMocks) {
				m.failures.EXPECT().Get(gomock.Any(), id).Return(open, nil)
				m.idp.EXPECT().DeleteIdentity(gomock.Any(), identityID).Return(domain.ErrUpstreamUnavailable)
				m.tenants.EXPECT().DeleteTenant(gomock.Any(), tenantID).Return(nil)
			},
			wantErr: domain.ErrUpstreamUnavailable,
		},
		{
			name: "already resolved",
			setupMocks: func(m reconcilerMocks) {
				m.failures.EXPECT().Get(gomock.Any(), id).Return(&closed, nil)
			},
			wantResolved: true,
		},
		{
			name: "unknown failure",
			setupMocks: func(m reconcilerMocks) {
				m.failures.EXPECT().Get(gomock.Any(), id).Return(nil, assert.AnError)
			},
			wantErr: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, m := newTestReconciler(t)
			tt.setupMocks(m)

			failure, err := r.Retry(context.Background(), id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantResolved, failure.Resolved())
		})
	}
}

func TestReconciler_Retry_CustomerFailure(t *testing.T) {
	r, m := newTestReconciler(t)
	id := uuid.New()
	identityID := uuid.New()

	failure := &domain.ProvisionFailure{ID: id, Flow: domain.ProvisionFlowCustomer, IdentityID: &identityID}
	m.failures.EXPECT().Get(gomock.Any(), id).Return(failure, nil).Times(2)
	m.idp.EXPECT().DeleteIdentity(gomock.Any(), identityID).Return(nil)
	m.failures.EXPECT().MarkResolved(gomock.Any(), id).Return(nil)

	_, err := r.Retry(context.Background(), id)
	require.NoError(t, err)
}

func TestReconciler_ListShowResolve(t *testing.T) {
	r, m := newTestReconciler(t)
	id := uuid.New()
	rows := []*domain.ProvisionFailure{{ID: id}}

	m.failures.EXPECT().List(gomock.Any(), true, 20).Return(rows, nil)
	m.failures.EXPECT().Get(gomock.Any(), id).Return(rows[0], nil)
	m.failures.EXPECT().MarkResolved(gomock.Any(), id).Return(nil)

	got, err := r.List(context.Background(), true, 20)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	one, err := r.Show(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, one.ID)

	require.NoError(t, r.Resolve(context.Background(), id))
}
