package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/port"
)

const profileColumns = `identity_id, email, role, tenant_id, display_name, created_at, updated_at`

// ProfileRepository implements port.ProfileRepository for PostgreSQL
type ProfileRepository struct {
	db     DatabaseIface
	logger *slog.Logger
}

// NewProfileRepository creates a new PostgreSQL profile repository
func NewProfileRepository(db DatabaseIface, logger *slog.Logger) port.ProfileRepository {
	return &ProfileRepository{
		db:     db,
		logger: logger.With("component", "profile_repository"),
	}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, identityID uuid.UUID) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE identity_id = $1`
	return r.getOne(ctx, query, identityID)
}

func (r *ProfileRepository) GetProfileByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE LOWER(email) = $1`
	return r.getOne(ctx, query, strings.ToLower(strings.TrimSpace(email)))
}

func (r *ProfileRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.Profile, error) {
	profile, err := scanProfile(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// InsertProfile stores a new profile. A duplicate identity or email maps to
// domain.ErrDuplicateIdentity.
func (r *ProfileRepository) InsertProfile(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		profile.IdentityID,
		profile.Email,
		string(profile.Role),
		profile.TenantID,
		profile.DisplayName,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		mapped := mapProfileWriteError(err)
		r.logger.Warn("Failed to insert profile", "identity_id", profile.IdentityID, "error", mapped)
		return mapped
	}

	r.logger.Info("Profile created", "identity_id", profile.IdentityID, "role", profile.Role)
	return nil
}

// UpdateProfile applies patch to the stored row and returns the result.
func (r *ProfileRepository) UpdateProfile(ctx context.Context, identityID uuid.UUID, patch domain.ProfilePatch) (*domain.Profile, error) {
	current, err := r.GetProfile(ctx, identityID)
	if err != nil {
		return nil, err
	}

	next, err := current.Apply(patch)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE profiles
		SET role = $2, tenant_id = $3, display_name = $4, updated_at = $5
		WHERE identity_id = $1
		RETURNING ` + profileColumns

	updated, err := scanProfile(r.db.QueryRow(ctx, query,
		identityID,
		string(next.Role),
		next.TenantID,
		next.DisplayName,
		next.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, mapProfileWriteError(err)
	}

	r.logger.Info("Profile updated", "identity_id", identityID, "role", updated.Role)
	return updated, nil
}

func mapProfileWriteError(err error) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", domain.ErrDuplicateIdentity, err)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: %v", domain.ErrTenantNotFound, err)
	case isCheckViolation(err):
		return fmt.Errorf("%w: %v", domain.ErrCustomerTenantConflict, err)
	default:
		return fmt.Errorf("failed to write profile: %w", err)
	}
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var (
		p        domain.Profile
		role     string
		tenantID uuid.NullUUID
	)
	if err := row.Scan(&p.IdentityID, &p.Email, &role, &tenantID, &p.DisplayName, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("stored profile %s: %w", p.IdentityID, err)
	}
	p.Role = parsed
	if tenantID.Valid {
		id := tenantID.UUID
		p.TenantID = &id
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}
