package application

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/payroll/ports"
	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/platform/ownership"
)

// PayslipOwnershipChecker lets staff read their own payslips.
// It depends directly on the repository, not the service.
type PayslipOwnershipChecker struct {
	repo   ports.PayslipRepository
	logger logger.Logger
}

func NewPayslipOwnershipChecker(repo ports.PayslipRepository, logger logger.Logger) *PayslipOwnershipChecker {
	return &PayslipOwnershipChecker{repo: repo, logger: logger}
}

// CheckOwnership implements ownership.Checker
func (c *PayslipOwnershipChecker) CheckOwnership(ctx context.Context, staffID uuid.UUID, resourceID uuid.UUID) (bool, error) {
	payslip, err := c.repo.FindByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, ports.ErrPayslipNotFound) {
			return false, nil
		}
		c.logger.Error(ctx, "failed to load payslip for ownership check", "error", err, "payslipID", resourceID)
		return false, err
	}
	return payslip.StaffID == staffID, nil
}

// RegisterPayrollOwnership registers the payslip checker under "payroll".
func RegisterPayrollOwnership(registry ownership.Registry, repo ports.PayslipRepository, logger logger.Logger) {
	registry.RegisterChecker("payroll", NewPayslipOwnershipChecker(repo, logger))
}
