package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/port"
	"github.com/sua-a1/cram-app-sub001/app/utils/metrics"
	apptrace "github.com/sua-a1/cram-app-sub001/app/utils/otel"
)

// IdentityGatewayConfig bounds the calls made through the gateway.
type IdentityGatewayConfig struct {
	// Timeout applies to every single attempt.
	Timeout time.Duration
	// RetryBackoff is the wait before the one retry after a timeout.
	RetryBackoff time.Duration
	// RefreshThreshold is the remaining lifetime below which sessions are extended.
	RefreshThreshold time.Duration
}

// IdentityGateway implements port.IdentityProvider on top of the raw Kratos
// driver. It acts as an anti-corruption layer between the usecases and Kratos.
type IdentityGateway struct {
	client  port.KratosClient
	cfg     IdentityGatewayConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewIdentityGateway creates a new IdentityGateway instance
func NewIdentityGateway(client port.KratosClient, cfg IdentityGatewayConfig, m *metrics.Metrics, logger *slog.Logger) *IdentityGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 200 * time.Millisecond
	}
	return &IdentityGateway{
		client:  client,
		cfg:     cfg,
		metrics: m,
		logger:  logger.With("component", "identity_gateway"),
		now:     time.Now,
	}
}

// VerifyCredentials exchanges an email and password for a session.
func (g *IdentityGateway) VerifyCredentials(ctx context.Context, email, password string) (*domain.Session, error) {
	session, err := retryOnTimeout(ctx, g, "verify_credentials", func(ctx context.Context) (*domain.Session, error) {
		return g.client.VerifyPassword(ctx, email, password)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify credentials: %w", err)
	}
	return session, nil
}

// CreateIdentity is not retried: a create that timed out may have landed, and
// a second attempt would report it as a duplicate.
func (g *IdentityGateway) CreateIdentity(ctx context.Context, email, password string, meta domain.IdentityMetadata) (*domain.Identity, error) {
	identity, err := once(ctx, g, "create_identity", func(ctx context.Context) (*domain.Identity, error) {
		return g.client.CreateIdentity(ctx, email, password, meta)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}
	return identity, nil
}

// RefreshSession validates the token and extends the session when less than
// the refresh threshold is left.
func (g *IdentityGateway) RefreshSession(ctx context.Context, sessionToken string) (*domain.Session, error) {
	session, err := retryOnTimeout(ctx, g, "to_session", func(ctx context.Context) (*domain.Session, error) {
		return g.client.ToSession(ctx, sessionToken)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}

	now := g.now()
	if session.Expired(now) {
		return nil, domain.ErrSessionInvalid
	}
	if g.cfg.RefreshThreshold <= 0 || !session.NeedsRefresh(now, g.cfg.RefreshThreshold) {
		return session, nil
	}

	extended, err := retryOnTimeout(ctx, g, "extend_session", func(ctx context.Context) (*domain.Session, error) {
		return g.client.ExtendSession(ctx, session.ID)
	})
	if err != nil {
		// The session is still valid; the next request tries again.
		g.logger.Warn("session extension failed", "session_id", session.ID, "identity_id", session.IdentityID, "error", err)
		return session, nil
	}

	if extended == nil {
		extended, err = retryOnTimeout(ctx, g, "to_session", func(ctx context.Context) (*domain.Session, error) {
			return g.client.ToSession(ctx, sessionToken)
		})
		if err != nil {
			g.logger.Warn("session re-read after extension failed", "session_id", session.ID, "error", err)
			return session, nil
		}
	}

	extended.Token = sessionToken
	if extended.Identity == nil {
		extended.Identity = session.Identity
		extended.IdentityID = session.IdentityID
	}

	g.logger.Debug("session extended", "session_id", session.ID, "expires_at", extended.ExpiresAt)
	return extended, nil
}

// DeleteIdentity removes an identity; used by saga compensation.
func (g *IdentityGateway) DeleteIdentity(ctx context.Context, identityID uuid.UUID) error {
	_, err := retryOnTimeout(ctx, g, "delete_identity", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.client.DeleteIdentity(ctx, identityID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete identity %s: %w", identityID, err)
	}
	return nil
}

// SendPasswordReset is not retried so a slow courier never mails twice.
func (g *IdentityGateway) SendPasswordReset(ctx context.Context, email, redirectURL string) error {
	_, err := once(ctx, g, "send_recovery", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.client.SendRecovery(ctx, email, redirectURL)
	})
	if err != nil {
		return fmt.Errorf("failed to send password reset: %w", err)
	}
	return nil
}

// RevokeSession ends a session.
func (g *IdentityGateway) RevokeSession(ctx context.Context, sessionToken string) error {
	_, err := retryOnTimeout(ctx, g, "revoke_session", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.client.RevokeSession(ctx, sessionToken)
	})
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// UpdatePassword sets a new password for the session's identity.
func (g *IdentityGateway) UpdatePassword(ctx context.Context, sessionToken, newPassword string) error {
	_, err := retryOnTimeout(ctx, g, "update_password", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.client.UpdatePassword(ctx, sessionToken, newPassword)
	})
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// HealthCheck checks Kratos connectivity within one call timeout.
func (g *IdentityGateway) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()
	return g.client.HealthCheck(ctx)
}

// attempt runs fn under its own timeout and records the call.
func attempt[T any](ctx context.Context, g *IdentityGateway, operation string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := apptrace.Tracer().Start(ctx, "kratos."+operation)
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := time.Now()
	result, err := fn(callCtx)
	g.metrics.ObserveIdP(operation, time.Since(start).Seconds())

	if err != nil {
		// The caller's own deadline is not an upstream timeout.
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, operation+" failed")
		span.SetAttributes(attribute.Bool("kratos.timeout", errors.Is(err, domain.ErrUpstreamTimeout)))
	}
	return result, err
}

func once[T any](ctx context.Context, g *IdentityGateway, operation string, fn func(context.Context) (T, error)) (T, error) {
	return attempt(ctx, g, operation, fn)
}

// retryOnTimeout runs fn at most twice. Only domain.ErrUpstreamTimeout is
// retried; every other error is returned as is.
func retryOnTimeout[T any](ctx context.Context, g *IdentityGateway, operation string, fn func(context.Context) (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.cfg.RetryBackoff
	bo.MaxInterval = 4 * g.cfg.RetryBackoff

	tries := 0
	op := func() (T, error) {
		tries++
		if tries > 1 {
			g.metrics.IdPRetry(operation)
			g.logger.Warn("retrying identity provider call after timeout", "operation", operation)
		}

		result, err := attempt(ctx, g, operation, fn)
		if err != nil && !errors.Is(err, domain.ErrUpstreamTimeout) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	return backoff.Retry(ctx, op, backoff.WithBackOff(bo), backoff.WithMaxTries(2))
}
