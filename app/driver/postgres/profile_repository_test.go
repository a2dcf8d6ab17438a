package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/utils/logger"
)

var profileCols = []string{"identity_id", "email", "role", "tenant_id", "display_name", "created_at", "updated_at"}

func createTestProfileRepository(t *testing.T) (*ProfileRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockDB.Close)

	repo := NewProfileRepository(mockDB, logger.Discard()).(*ProfileRepository)
	return repo, mockDB
}

func createTestProfile(t *testing.T, role domain.Role, tenantID *uuid.UUID) *domain.Profile {
	t.Helper()

	p, err := domain.NewProfile(uuid.New(), "Member@Acme.io", "Member", role, tenantID)
	require.NoError(t, err)
	return p
}

func TestProfileRepository_GetProfile(t *testing.T) {
	tenantID := uuid.New()
	identityID := uuid.New()
	now := time.Now().UTC()

	tests := []struct {
		name    string
		setupDB func(pgxmock.PgxPoolIface)
		check   func(*testing.T, *domain.Profile)
		wantErr error
	}{
		{
			name: "employee with tenant",
			setupDB: func(mockDB pgxmock.PgxPoolIface) {
				mockDB.ExpectQuery("SELECT (.+) FROM profiles WHERE identity_id").
					WithArgs(identityID).
					WillReturnRows(pgxmock.NewRows(profileCols).
						AddRow(identityID.String(), "e@acme.io", "employee", tenantID.String(), "Emp", now, now))
			},
			check: func(t *testing.T, p *domain.Profile) {
				assert.Equal(t, identityID, p.IdentityID)
				assert.Equal(t, domain.RoleEmployee, p.Role)
				require.NotNil(t, p.TenantID)
				assert.Equal(t, tenantID, *p.TenantID)
			},
		},
		{
			name: "customer without tenant",
			setupDB: func(mockDB pgxmock.PgxPoolIface) {
				mockDB.ExpectQuery("SELECT (.+) FROM profiles WHERE identity_id").
					WithArgs(identityID).
					WillReturnRows(pgxmock.NewRows(profileCols).
						AddRow(identityID.String(), "c@mail.io", "customer", nil, "Cust", now, now))
			},
			check: func(t *testing.T, p *domain.Profile) {
				assert.Equal(t, domain.RoleCustomer, p.Role)
				assert.Nil(t, p.TenantID)
			},
		},
		{
			name: "not found",
			setupDB: func(mockDB pgxmock.PgxPoolIface) {
				mockDB.ExpectQuery("SELECT (.+) FROM profiles WHERE identity_id").
					WithArgs(identityID).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: domain.ErrProfileNotFound,
		},
		{
			name: "unknown stored role",
			setupDB: func(mockDB pgxmock.PgxPoolIface) {
				mockDB.ExpectQuery("SELECT (.+) FROM profiles WHERE identity_id").
					WithArgs(identityID).
					WillReturnRows(pgxmock.NewRows(profileCols).
						AddRow(identityID.String(), "x@acme.io", "owner", nil, "X", now, now))
			},
			wantErr: domain.ErrUnknownRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mockDB := createTestProfileRepository(t)
			tt.setupDB(mockDB)

			p, err := repo.GetProfile(context.Background(), identityID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
			} else {
				require.NoError(t, err)
				tt.check(t, p)
			}
			assert.NoError(t, mockDB.ExpectationsWereMet())
		})
	}
}

func TestProfileRepository_GetProfileByEmail_Normalizes(t *testing.T) {
	repo, mockDB := createTestProfileRepository(t)
	id := uuid.New()
	now := time.Now().UTC()

	mockDB.ExpectQuery("SELECT (.+) FROM profiles WHERE LOWER").
		WithArgs("ana@example.com").
		WillReturnRows(pgxmock.NewRows(profileCols).
			AddRow(id.String(), "ana@example.com", "customer", nil, "Ana", now, now))

	p, err := repo.GetProfileByEmail(context.Background(), "  Ana@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, id, p.IdentityID)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestProfileRepository_InsertProfile(t *testing.T) {
	tenantID := uuid.New()

	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{name: "success"},
		{
			name:    "duplicate email",
			dbErr:   &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "idx_profiles_email"},
			wantErr: domain.ErrDuplicateIdentity,
		},
		{
			name:    "unknown tenant",
			dbErr:   &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation},
			wantErr: domain.ErrTenantNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mockDB := createTestProfileRepository(t)
			profile := createTestProfile(t, domain.RoleEmployee, &tenantID)

			exp := mockDB.ExpectExec("INSERT INTO profiles").
				WithArgs(profile.IdentityID, "member@acme.io", "employee", profile.TenantID,
					profile.DisplayName, profile.CreatedAt, profile.UpdatedAt)
			if tt.dbErr != nil {
				exp.WillReturnError(tt.dbErr)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			err := repo.InsertProfile(context.Background(), profile)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mockDB.ExpectationsWereMet())
		})
	}
}

func TestProfileRepository_UpdateProfile(t *testing.T) {
	id := uuid.New()
	tenantID := uuid.New()
	now := time.Now().UTC()

	t.Run("links tenant as admin", func(t *testing.T) {
		repo, mockDB := createTestProfileRepository(t)

		mockDB.ExpectQuery("SELECT (.+) FROM profiles WHERE identity_id").
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows(profileCols).
				AddRow(id.String(), "f@acme.io", "employee", nil, "Founder", now, now))
		mockDB.ExpectQuery("UPDATE profiles").
			WithArgs(id, "admin", &tenantID, "Founder", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows(profileCols).
				AddRow(id.String(), "f@acme.io", "admin", tenantID.String(), "Founder", now, now))

		role := domain.RoleAdmin
		p, err := repo.UpdateProfile(context.Background(), id, domain.ProfilePatch{Role: &role, TenantID: &tenantID})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, p.Role)
		assert.Equal(t, tenantID, *p.TenantID)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("rejects customer with tenant before writing", func(t *testing.T) {
		repo, mockDB := createTestProfileRepository(t)

		mockDB.ExpectQuery("SELECT (.+) FROM profiles WHERE identity_id").
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows(profileCols).
				AddRow(id.String(), "c@mail.io", "customer", nil, "Cust", now, now))

		_, err := repo.UpdateProfile(context.Background(), id, domain.ProfilePatch{TenantID: &tenantID})
		assert.ErrorIs(t, err, domain.ErrCustomerTenantConflict)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("missing profile", func(t *testing.T) {
		repo, mockDB := createTestProfileRepository(t)

		mockDB.ExpectQuery("SELECT (.+) FROM profiles WHERE identity_id").
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.UpdateProfile(context.Background(), id, domain.ProfilePatch{})
		assert.True(t, errors.Is(err, domain.ErrProfileNotFound))
	})
}
