package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/port"
)

// TenantRepository handles tenant operations in PostgreSQL
type TenantRepository struct {
	db     DatabaseIface
	logger *slog.Logger
}

// NewTenantRepository creates a new PostgreSQL tenant repository
func NewTenantRepository(db DatabaseIface, logger *slog.Logger) port.TenantRepository {
	return &TenantRepository{
		db:     db,
		logger: logger.With("component", "tenant_repository"),
	}
}

// InsertTenant creates a new tenant in the database
func (r *TenantRepository) InsertTenant(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, domain, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.Domain,
		string(tenant.Status),
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", domain.ErrDuplicateTenantDomain, err)
		}
		r.logger.Error("Failed to create tenant", "tenant_id", tenant.ID, "error", err)
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	r.logger.Info("Tenant created", "tenant_id", tenant.ID, "name", tenant.Name)
	return nil
}

// GetTenant returns domain.ErrTenantNotFound when no row matches.
func (r *TenantRepository) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	query := `SELECT id, name, domain, status, created_at, updated_at FROM tenants WHERE id = $1`

	var (
		t      domain.Tenant
		status string
	)
	err := r.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.Domain, &status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	t.Status = domain.TenantStatus(status)
	return &t, nil
}

// DeleteTenant removes a tenant. Deleting a missing tenant is not an error so
// compensation can be retried.
func (r *TenantRepository) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete tenant", "tenant_id", id, "error", err)
		return fmt.Errorf("failed to delete tenant: %w", err)
	}

	r.logger.Info("Tenant deleted", "tenant_id", id, "rows", tag.RowsAffected())
	return nil
}
