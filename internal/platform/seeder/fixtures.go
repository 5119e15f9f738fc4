package seeder

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFixturesPath is where the seed command looks for fixtures.
const DefaultFixturesPath = "seed/fixtures.yaml"

// Fixtures is the seed data file: initial staff accounts and tuition fees.
type Fixtures struct {
	Staff        []StaffFixture `yaml:"staff"`
	FeeSchedules []FeeFixture   `yaml:"fee_schedules"`
}

type StaffFixture struct {
	Email         string `yaml:"email"`
	FullName      string `yaml:"full_name"`
	Role          string `yaml:"role"`
	MonthlySalary int64  `yaml:"monthly_salary"` // cents
	Password      string `yaml:"password"`
}

type FeeFixture struct {
	GradeLevel int   `yaml:"grade_level"`
	SchoolYear int   `yaml:"school_year"`
	Tuition    int64 `yaml:"tuition"` // cents
}

var validRoles = map[string]bool{"admin": true, "bursar": true, "registrar": true, "teacher": true}

// LoadFixtures reads and validates a fixtures file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures %s: %w", path, err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes fixtures and reports every invalid entry at once.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixtures: %w", err)
	}

	var problems []string
	seen := make(map[string]bool, len(f.Staff))
	for i, s := range f.Staff {
		s.Email = strings.ToLower(strings.TrimSpace(s.Email))
		f.Staff[i].Email = s.Email
		switch {
		case s.Email == "" || !strings.Contains(s.Email, "@"):
			problems = append(problems, fmt.Sprintf("staff[%d]: invalid email %q", i, s.Email))
		case seen[s.Email]:
			problems = append(problems, fmt.Sprintf("staff[%d]: duplicate email %q", i, s.Email))
		}
		seen[s.Email] = true
		if strings.TrimSpace(s.FullName) == "" {
			problems = append(problems, fmt.Sprintf("staff[%d]: full_name is required", i))
		}
		if !validRoles[s.Role] {
			problems = append(problems, fmt.Sprintf("staff[%d]: unknown role %q", i, s.Role))
		}
		if s.MonthlySalary < 0 {
			problems = append(problems, fmt.Sprintf("staff[%d]: monthly_salary must not be negative", i))
		}
		if len(s.Password) < 8 {
			problems = append(problems, fmt.Sprintf("staff[%d]: password must be at least 8 characters", i))
		}
	}
	for i, fee := range f.FeeSchedules {
		if fee.GradeLevel < 0 || fee.GradeLevel > 12 {
			problems = append(problems, fmt.Sprintf("fee_schedules[%d]: grade_level must be 0-12", i))
		}
		if fee.SchoolYear < 2000 || fee.SchoolYear > 2100 {
			problems = append(problems, fmt.Sprintf("fee_schedules[%d]: school_year out of range", i))
		}
		if fee.Tuition < 0 {
			problems = append(problems, fmt.Sprintf("fee_schedules[%d]: tuition must not be negative", i))
		}
	}

	if len(problems) > 0 {
		return nil, errors.New("invalid fixtures:\n  " + strings.Join(problems, "\n  "))
	}
	return &f, nil
}
