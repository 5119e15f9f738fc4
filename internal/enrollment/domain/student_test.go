package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philly/school-finance/backend/internal/enrollment/domain"
)

func TestNewStudent(t *testing.T) {
	tests := []struct {
		name        string
		first, last string
		email       string
		scholarship int
		want        error
	}{
		{"ok", "Lea", "Santos", "Parent@Mail.com", 25, nil},
		{"missing last name", "Lea", " ", "parent@mail.com", 0, domain.ErrEmptyName},
		{"bad email", "Lea", "Santos", "parent", 0, domain.ErrInvalidGuardianEmail},
		{"scholarship over 100", "Lea", "Santos", "parent@mail.com", 101, domain.ErrInvalidScholarship},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := domain.NewStudent(tt.first, tt.last, tt.email, tt.scholarship)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "parent@mail.com", s.GuardianEmail)
			assert.Equal(t, "Lea Santos", s.FullName())
		})
	}
}

func TestEnrollmentLifecycle(t *testing.T) {
	_, err := domain.NewEnrollment(uuid.New(), 2025, 13)
	assert.ErrorIs(t, err, domain.ErrInvalidGradeLevel)
	_, err = domain.NewEnrollment(uuid.New(), 1999, 3)
	assert.ErrorIs(t, err, domain.ErrInvalidSchoolYear)

	e, err := domain.NewEnrollment(uuid.New(), 2025, 3)
	require.NoError(t, err)
	require.NoError(t, e.MarkCleared())
	assert.ErrorIs(t, e.MarkCleared(), domain.ErrAlreadyCleared)

	require.NoError(t, e.Withdraw())
	assert.ErrorIs(t, e.Withdraw(), domain.ErrEnrollmentNotActive)
	assert.NotNil(t, e.WithdrawnAt)
}
