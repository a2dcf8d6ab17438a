package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/sua-a1/cram-app-sub001/app/utils/logger"
)

func TestDB_Pool(t *testing.T) {
	db := &DB{pool: nil}
	assert.Equal(t, db.pool, db.Pool())
}

func TestDB_Close(t *testing.T) {
	db := &DB{logger: logger.Discard(), pool: nil}

	// Should not panic even with nil pool
	assert.NotPanics(t, func() {
		db.Close()
	})
}

func TestDB_HealthCheck(t *testing.T) {
	db := &DB{logger: logger.Discard(), pool: nil}

	err := db.HealthCheck(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database connection is not initialized")
}

func TestPgErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "idx_profiles_email"})
	fk := &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}
	check := &pgconn.PgError{Code: pgerrcode.CheckViolation}

	assert.True(t, isUniqueViolation(unique))
	assert.False(t, isUniqueViolation(fk))
	assert.True(t, isForeignKeyViolation(fk))
	assert.True(t, isCheckViolation(check))
	assert.False(t, isUniqueViolation(errors.New("plain")))

	code, constraint := pgErrorCode(unique)
	assert.Equal(t, pgerrcode.UniqueViolation, code)
	assert.Equal(t, "idx_profiles_email", constraint)
}
