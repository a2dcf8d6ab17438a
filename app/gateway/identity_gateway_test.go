package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

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

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestGateway(t *testing.T) (*IdentityGateway, *mock_port.MockKratosClient, *metrics.Metrics) {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mock_port.NewMockKratosClient(ctrl)
	m := metrics.New(prometheus.NewRegistry())

	g := NewIdentityGateway(client, IdentityGatewayConfig{
		Timeout:          time.Second,
		RetryBackoff:     time.Millisecond,
		RefreshThreshold: 72 * time.Hour,
	}, m, logger.Discard())
	g.now = func() time.Time { return fixedNow }
	return g, client, m
}

func sessionExpiringIn(d time.Duration) *domain.Session {
	id := uuid.New()
	return &domain.Session{
		ID:         "sess-1",
		IdentityID: id,
		Token:      "tok-1",
		IssuedAt:   fixedNow.Add(-time.Hour),
		ExpiresAt:  fixedNow.Add(d),
		Identity:   &domain.Identity{ID: id, Email: "ada@example.com"},
	}
}

func TestIdentityGateway_VerifyCredentials(t *testing.T) {
	timeout := errors.Join(domain.ErrUpstreamTimeout, context.DeadlineExceeded)

	tests := []struct {
		name        string
		setupMocks  func(*mock_port.MockKratosClient)
		wantErr     error
		wantRetries float64
	}{
		{
			name: "success on first attempt",
			setupMocks: func(c *mock_port.MockKratosClient) {
				c.EXPECT().VerifyPassword(gomock.Any(), "ada@example.com", "pw").Return(sessionExpiringIn(time.Hour), nil)
			},
		},
		{
			name: "timeout then success retries once",
			setupMocks: func(c *mock_port.MockKratosClient) {
				gomock.InOrder(
					c.EXPECT().VerifyPassword(gomock.Any(), "ada@example.com", "pw").Return(nil, timeout),
					c.EXPECT().VerifyPassword(gomock.Any(), "ada@example.com", "pw").Return(sessionExpiringIn(time.Hour), nil),
				)
			},
			wantRetries: 1,
		},
		{
			name: "persistent timeout gives up after two attempts",
			setupMocks: func(c *mock_port.MockKratosClient) {
				c.EXPECT().VerifyPassword(gomock.Any(), "ada@example.com", "pw").Return(nil, timeout).Times(2)
			},
			wantErr:     domain.ErrUpstreamTimeout,
			wantRetries: 1,
		},
		{
			name: "invalid credentials are never retried",
			setupMocks: func(c *mock_port.MockKratosClient) {
				c.EXPECT().VerifyPassword(gomock.Any(), "ada@example.com", "pw").Return(nil, domain.ErrInvalidCredentials).Times(1)
			},
			wantErr: domain.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, client, m := newTestGateway(t)
			tt.setupMocks(client)

			session, err := g.VerifyCredentials(context.Background(), "ada@example.com", "pw")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, session)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "sess-1", session.ID)
			}
			assert.Equal(t, tt.wantRetries, testutil.ToFloat64(m.IdPRetries.WithLabelValues("verify_credentials")))
		})
	}
}

func TestIdentityGateway_CreateIdentityIsNotRetried(t *testing.T) {
	g, client, _ := newTestGateway(t)
	client.EXPECT().CreateIdentity(gomock.Any(), "ada@example.com", "pw", gomock.Any()).
		Return(nil, domain.ErrUpstreamTimeout).Times(1)

	_, err := g.CreateIdentity(context.Background(), "ada@example.com", "pw", domain.IdentityMetadata{Role: domain.RoleCustomer})
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
}

func TestIdentityGateway_DuplicateIdentity(t *testing.T) {
	g, client, _ := newTestGateway(t)
	client.EXPECT().CreateIdentity(gomock.Any(), "ada@example.com", "pw", gomock.Any()).
		Return(nil, domain.ErrDuplicateIdentity)

	_, err := g.CreateIdentity(context.Background(), "ada@example.com", "pw", domain.IdentityMetadata{Role: domain.RoleCustomer})
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)
}

func TestIdentityGateway_RefreshSession(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*mock_port.MockKratosClient)
		wantErr    error
		wantExpiry time.Time
	}{
		{
			name: "fresh session is not extended",
			setupMocks: func(c *mock_port.MockKratosClient) {
				c.EXPECT().ToSession(gomock.Any(), "tok-1").Return(sessionExpiringIn(100*time.Hour), nil)
			},
			wantExpiry: fixedNow.Add(100 * time.Hour),
		},
		{
			name: "session below threshold is extended",
			setupMocks: func(c *mock_port.MockKratosClient) {
				extended := sessionExpiringIn(168 * time.Hour)
				extended.Token = ""
				c.EXPECT().ToSession(gomock.Any(), "tok-1").Return(sessionExpiringIn(time.Hour), nil)
				c.EXPECT().ExtendSession(gomock.Any(), "sess-1").Return(extended, nil)
			},
			wantExpiry: fixedNow.Add(168 * time.Hour),
		},
		{
			name: "empty extend response re-reads the session",
			setupMocks: func(c *mock_port.MockKratosClient) {
				gomock.InOrder(
					c.EXPECT().ToSession(gomock.Any(), "tok-1").Return(sessionExpiringIn(time.Hour), nil),
					c.EXPECT().ExtendSession(gomock.Any(), "sess-1").Return(nil, nil),
					c.EXPECT().ToSession(gomock.Any(), "tok-1").Return(sessionExpiringIn(168*time.Hour), nil),
				)
			},
			wantExpiry: fixedNow.Add(168 * time.Hour),
		},
		{
			name: "failed extension keeps the valid session",
			setupMocks: func(c *mock_port.MockKratosClient) {
				c.EXPECT().ToSession(gomock.Any(), "tok-1").Return(sessionExpiringIn(time.Hour), nil)
				c.EXPECT().ExtendSession(gomock.Any(), "sess-1").Return(nil, domain.ErrUpstreamUnavailable)
			},
			wantExpiry: fixedNow.Add(time.Hour),
		},
		{
			name: "expired session is invalid",
			setupMocks: func(c *mock_port.MockKratosClient) {
				c.EXPECT().ToSession(gomock.Any(), "tok-1").Return(sessionExpiringIn(-time.Minute), nil)
			},
			wantErr: domain.ErrSessionInvalid,
		},
		{
			name: "invalid token",
			setupMocks: func(c *mock_port.MockKratosClient) {
				c.EXPECT().ToSession(gomock.Any(), "tok-1").Return(nil, domain.ErrSessionInvalid)
			},
			wantErr: domain.ErrSessionInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, client, _ := newTestGateway(t)
			tt.setupMocks(client)

			session, err := g.RefreshSession(context.Background(), "tok-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "tok-1", session.Token)
			assert.True(t, session.ExpiresAt.Equal(tt.wantExpiry), "expires_at = %v", session.ExpiresAt)
			assert.NotEqual(t, uuid.Nil, session.IdentityID)
		})
	}
}

func TestIdentityGateway_AttemptTimeoutBecomesUpstreamTimeout(t *testing.T) {
	g, client, _ := newTestGateway(t)
	g.cfg.Timeout = 10 * time.Millisecond

	client.EXPECT().RevokeSession(gomock.Any(), "tok-1").DoAndReturn(func(ctx context.Context, _ string) error {
		<-ctx.Done()
		return ctx.Err()
	}).Times(2)

	err := g.RevokeSession(context.Background(), "tok-1")
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
}

func TestIdentityGateway_PassThrough(t *testing.T) {
	g, client, _ := newTestGateway(t)
	id := uuid.New()

	client.EXPECT().DeleteIdentity(gomock.Any(), id).Return(nil)
	client.EXPECT().SendRecovery(gomock.Any(), "ada@example.com", "https://cram.test/auth/update-password").Return(nil)
	client.EXPECT().UpdatePassword(gomock.Any(), "tok-1", "NewSecret123").Return(nil)
	client.EXPECT().HealthCheck(gomock.Any()).Return(nil)

	assert.NoError(t, g.DeleteIdentity(context.Background(), id))
	assert.NoError(t, g.SendPasswordReset(context.Background(), "ada@example.com", "https://cram.test/auth/update-password"))
	assert.NoError(t, g.UpdatePassword(context.Background(), "tok-1", "NewSecret123"))
	assert.NoError(t, g.HealthCheck(context.Background()))
}
