package application

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/funds/ports"
	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/platform/ownership"
)

// FundsOwnershipChecker checks that a staff member submitted a fund request.
type FundsOwnershipChecker struct {
	repo   ports.FundRequestRepository
	logger logger.Logger
}

func NewFundsOwnershipChecker(repo ports.FundRequestRepository, logger logger.Logger) *FundsOwnershipChecker {
	return &FundsOwnershipChecker{repo: repo, logger: logger}
}

// CheckOwnership implements ownership.Checker
func (c *FundsOwnershipChecker) CheckOwnership(ctx context.Context, staffID uuid.UUID, resourceID uuid.UUID) (bool, error) {
	requesterID, err := c.repo.GetRequester(ctx, resourceID)
	if err != nil {
		if errors.Is(err, ports.ErrFundRequestNotFound) {
			return false, nil
		}
		c.logger.Error(ctx, "failed to get fund requester", "error", err, "requestID", resourceID)
		return false, err
	}
	return requesterID == staffID, nil
}

// RegisterFundsOwnership registers the checker under "funds".
func RegisterFundsOwnership(registry ownership.Registry, repo ports.FundRequestRepository, logger logger.Logger) {
	registry.RegisterChecker("funds", NewFundsOwnershipChecker(repo, logger))
}
