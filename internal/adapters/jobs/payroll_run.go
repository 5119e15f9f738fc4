package jobs

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/riverqueue/river"

	payrollApp "github.com/philly/school-finance/backend/internal/payroll/application"
	"github.com/philly/school-finance/backend/internal/platform/apperror"
	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/platform/period"
)

// PayrollRunArgs triggers a payroll run. An empty Period means the month the
// job runs in.
type PayrollRunArgs struct {
	Period string `json:"period,omitempty"`
}

func (PayrollRunArgs) Kind() string { return JobKindPayrollRun }

type PayrollRunner interface {
	RunMonthlyPayroll(ctx context.Context, period string) (*payrollApp.RunResult, error)
}

type PayrollRunWorker struct {
	river.WorkerDefaults[PayrollRunArgs]
	Payroll PayrollRunner
	Logger  logger.Logger
	Now     func() time.Time
}

func NewPayrollRunWorker(payroll PayrollRunner, logger logger.Logger) *PayrollRunWorker {
	return &PayrollRunWorker{Payroll: payroll, Logger: logger, Now: time.Now}
}

func (w *PayrollRunWorker) Work(ctx context.Context, job *river.Job[PayrollRunArgs]) error {
	p := job.Args.Period
	if p == "" {
		p = period.Of(w.Now())
	}

	result, err := w.Payroll.RunMonthlyPayroll(ctx, p)
	if err != nil {
		// Client errors will not succeed on retry.
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus < http.StatusInternalServerError {
			w.Logger.Error(ctx, "payroll run rejected", "error", err, "period", p, "jobID", job.ID)
			return river.JobCancel(err)
		}
		w.Logger.Warn(ctx, "payroll run failed, will retry", "error", err, "period", p, "attempt", job.Attempt)
		return err
	}

	w.Logger.Info(ctx, "payroll job finished", "period", result.Period, "created", result.Created, "skipped", result.Skipped)
	return nil
}

// NewWorkers registers every worker the process runs.
func NewWorkers(payroll PayrollRunner, logger logger.Logger) *river.Workers {
	workers := river.NewWorkers()
	river.AddWorker[PayrollRunArgs](workers, NewPayrollRunWorker(payroll, logger))
	return workers
}
