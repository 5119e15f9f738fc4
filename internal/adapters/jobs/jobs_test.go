package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philly/school-finance/backend/internal/adapters/jobs"
	payrollApp "github.com/philly/school-finance/backend/internal/payroll/application"
	"github.com/philly/school-finance/backend/internal/platform/apperror"
)

type mockLogger struct {
	errors []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any) { m.errors = append(m.errors, msg) }

type fakePayroll struct {
	periods []string
	err     error
}

func (f *fakePayroll) RunMonthlyPayroll(ctx context.Context, period string) (*payrollApp.RunResult, error) {
	f.periods = append(f.periods, period)
	if f.err != nil {
		return nil, f.err
	}
	return &payrollApp.RunResult{Period: period, Created: 2}, nil
}

func TestPayrollRunWorkerDefaultsToCurrentPeriod(t *testing.T) {
	payroll := &fakePayroll{}
	worker := jobs.NewPayrollRunWorker(payroll, &mockLogger{})
	worker.Now = func() time.Time { return time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC) }

	err := worker.Work(context.Background(), &river.Job[jobs.PayrollRunArgs]{Args: jobs.PayrollRunArgs{}})
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03"}, payroll.periods)
}

func TestPayrollRunWorkerUsesExplicitPeriod(t *testing.T) {
	payroll := &fakePayroll{}
	worker := jobs.NewPayrollRunWorker(payroll, &mockLogger{})

	err := worker.Work(context.Background(), &river.Job[jobs.PayrollRunArgs]{Args: jobs.PayrollRunArgs{Period: "2024-12"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-12"}, payroll.periods)
}

func TestPayrollRunWorkerErrors(t *testing.T) {
	t.Run("client error cancels the job", func(t *testing.T) {
		log := &mockLogger{}
		worker := jobs.NewPayrollRunWorker(&fakePayroll{err: payrollApp.ErrInvalidPayslipData}, log)

		err := worker.Work(context.Background(), &river.Job[jobs.PayrollRunArgs]{Args: jobs.PayrollRunArgs{Period: "2024-13"}})
		require.Error(t, err)
		var cancel *rivertype.JobCancelError
		assert.True(t, errors.As(err, &cancel))
		assert.Equal(t, []string{"payroll run rejected"}, log.errors)
	})

	t.Run("server error is retried", func(t *testing.T) {
		boom := apperror.Internal("bus unavailable")
		worker := jobs.NewPayrollRunWorker(&fakePayroll{err: boom}, &mockLogger{})

		err := worker.Work(context.Background(), &river.Job[jobs.PayrollRunArgs]{Args: jobs.PayrollRunArgs{}})
		require.Error(t, err)
		var cancel *rivertype.JobCancelError
		assert.False(t, errors.As(err, &cancel))
		assert.ErrorIs(t, err, boom)
	})
}

func TestRetryPolicy(t *testing.T) {
	policy := jobs.NewRetryPolicy()
	attemptedAt := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		kind    string
		attempt int
		want    time.Duration
	}{
		{"payroll first retry", jobs.JobKindPayrollRun, 1, 5 * time.Minute},
		{"payroll backoff doubles", jobs.JobKindPayrollRun, 3, 20 * time.Minute},
		{"payroll capped", jobs.JobKindPayrollRun, 10, time.Hour},
		{"unknown kind uses default", "other", 2, time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := policy.NextRetry(&rivertype.JobRow{Kind: tt.kind, Attempt: tt.attempt, AttemptedAt: &attemptedAt})
			assert.Equal(t, attemptedAt.Add(tt.want), next)
		})
	}
}

func TestNewClientConfig(t *testing.T) {
	workers := jobs.NewWorkers(&fakePayroll{}, &mockLogger{})
	config := jobs.NewClientConfig(workers, nil, jobs.NewPeriodicJobs())

	assert.Same(t, workers, config.Workers)
	assert.Equal(t, jobs.DefaultMaxAttempts, config.MaxAttempts)
	assert.Len(t, config.PeriodicJobs, 1)
	assert.Equal(t, jobs.PayrollRunMaxAttempts, jobs.InsertOptsForKind(jobs.JobKindPayrollRun).MaxAttempts)
}
