package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/port"
)

// Reconciler lets operators inspect and repair partial provision failures.
type Reconciler struct {
	idp      port.IdentityProvider
	tenants  port.TenantRepository
	failures port.ProvisionFailureRepository
	logger   *slog.Logger
}

// NewReconciler creates a new reconciler
func NewReconciler(idp port.IdentityProvider, tenants port.TenantRepository, failures port.ProvisionFailureRepository, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		idp:      idp,
		tenants:  tenants,
		failures: failures,
		logger:   logger.With("component", "reconciler"),
	}
}

// List returns recorded failures, newest first.
func (r *Reconciler) List(ctx context.Context, unresolvedOnly bool, limit int) ([]*domain.ProvisionFailure, error) {
	return r.failures.List(ctx, unresolvedOnly, limit)
}

// Show returns one failure.
func (r *Reconciler) Show(ctx context.Context, id uuid.UUID) (*domain.ProvisionFailure, error) {
	return r.failures.Get(ctx, id)
}

// Retry re-runs the compensation of a failure: the identity and the tenant it
// names are deleted. Both deletes are idempotent. The record is resolved only
// when every delete succeeded.
func (r *Reconciler) Retry(ctx context.Context, id uuid.UUID) (*domain.ProvisionFailure, error) {
	failure, err := r.failures.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if failure.Resolved() {
		return failure, nil
	}

	var errs []error
	if failure.IdentityID != nil {
		if err := r.idp.DeleteIdentity(ctx, *failure.IdentityID); err != nil {
			errs = append(errs, fmt.Errorf("delete identity %s: %w", *failure.IdentityID, err))
		}
	}
	if failure.TenantID != nil {
		if err := r.tenants.DeleteTenant(ctx, *failure.TenantID); err != nil {
			errs = append(errs, fmt.Errorf("delete tenant %s: %w", *failure.TenantID, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		r.logger.Error("compensation retry failed", "failure_id", id, "error", err)
		return failure, err
	}

	if err := r.failures.MarkResolved(ctx, id); err != nil {
		return failure, err
	}

	r.logger.Info("compensation retried", "failure_id", id, "identity_id", failure.IdentityID, "tenant_id", failure.TenantID)
	return r.failures.Get(ctx, id)
}

// Resolve closes a failure without touching the named records.
func (r *Reconciler) Resolve(ctx context.Context, id uuid.UUID) error {
	if err := r.failures.MarkResolved(ctx, id); err != nil {
		return err
	}
	r.logger.Info("provision failure resolved by operator", "failure_id", id)
	return nil
}
