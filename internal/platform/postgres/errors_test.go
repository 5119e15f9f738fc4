package postgres_test

import (
	"errors"
	"fmt"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/philly/school-finance/backend/internal/platform/postgres"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "staff_email_key"}
	wrapped := fmt.Errorf("StaffRepository.Create: %w", dup)

	assert.True(t, postgres.IsUniqueViolation(wrapped, ""))
	assert.True(t, postgres.IsUniqueViolation(wrapped, "staff_email_key"))
	assert.False(t, postgres.IsUniqueViolation(wrapped, "payslips_staff_period_key"))
	assert.False(t, postgres.IsUniqueViolation(errors.New("boom"), ""))
	assert.False(t, postgres.IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, postgres.IsForeignKeyViolation(fmt.Errorf("x: %w", &pgconn.PgError{Code: "23503"})))
	assert.False(t, postgres.IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
}

func TestPage(t *testing.T) {
	sb := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	query, _, err := postgres.Page(sb.Select("id").From("staff"), 20, 40).ToSql()
	assert.NoError(t, err)
	assert.Equal(t, "SELECT id FROM staff LIMIT 20 OFFSET 40", query)

	query, _, err = postgres.Page(sb.Select("id").From("staff"), 0, -1).ToSql()
	assert.NoError(t, err)
	assert.Equal(t, "SELECT id FROM staff", query)
}
