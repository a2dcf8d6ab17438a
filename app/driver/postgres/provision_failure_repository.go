package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/port"
)

// ErrFailureNotFound is returned when no provision failure matches an id.
var ErrFailureNotFound = errors.New("provision failure not found")

const failureColumns = `id, flow, identity_id, tenant_id, email, step, error, created_at, resolved_at`

// ProvisionFailureRepository stores sagas whose compensation failed.
type ProvisionFailureRepository struct {
	db     DatabaseIface
	logger *slog.Logger
}

func NewProvisionFailureRepository(db DatabaseIface, logger *slog.Logger) port.ProvisionFailureRepository {
	return &ProvisionFailureRepository{
		db:     db,
		logger: logger.With("component", "provision_failure_repository"),
	}
}

func (r *ProvisionFailureRepository) Record(ctx context.Context, f *domain.ProvisionFailure) error {
	query := `
		INSERT INTO provision_failures (id, flow, identity_id, tenant_id, email, step, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		f.ID,
		string(f.Flow),
		f.IdentityID,
		f.TenantID,
		f.Email,
		string(f.Step),
		f.Error,
		f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record provision failure: %w", err)
	}
	return nil
}

// List returns the newest failures first.
func (r *ProvisionFailureRepository) List(ctx context.Context, unresolvedOnly bool, limit int) ([]*domain.ProvisionFailure, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + failureColumns + ` FROM provision_failures`
	if unresolvedOnly {
		query += ` WHERE resolved_at IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list provision failures: %w", err)
	}
	defer rows.Close()

	var failures []*domain.ProvisionFailure
	for rows.Next() {
		f, err := scanFailure(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provision failure: %w", err)
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provision failures: %w", err)
	}
	return failures, nil
}

func (r *ProvisionFailureRepository) Get(ctx context.Context, id uuid.UUID) (*domain.ProvisionFailure, error) {
	f, err := scanFailure(r.db.QueryRow(ctx, `SELECT `+failureColumns+` FROM provision_failures WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFailureNotFound
		}
		return nil, fmt.Errorf("failed to get provision failure: %w", err)
	}
	return f, nil
}

func (r *ProvisionFailureRepository) MarkResolved(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE provision_failures SET resolved_at = $2 WHERE id = $1 AND resolved_at IS NULL`,
		id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to resolve provision failure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFailureNotFound
	}

	r.logger.Info("Provision failure resolved", "failure_id", id)
	return nil
}

func scanFailure(row pgx.Row) (*domain.ProvisionFailure, error) {
	var (
		f          domain.ProvisionFailure
		flow, step string
		identityID uuid.NullUUID
		tenantID   uuid.NullUUID
		resolvedAt *time.Time
	)
	if err := row.Scan(&f.ID, &flow, &identityID, &tenantID, &f.Email, &step, &f.Error, &f.CreatedAt, &resolvedAt); err != nil {
		return nil, err
	}

	f.Flow = domain.ProvisionFlow(flow)
	f.Step = domain.ProvisionStep(step)
	if identityID.Valid {
		id := identityID.UUID
		f.IdentityID = &id
	}
	if tenantID.Valid {
		id := tenantID.UUID
		f.TenantID = &id
	}
	if resolvedAt != nil {
		t := resolvedAt.UTC()
		f.ResolvedAt = &t
	}
	return &f, nil
}
