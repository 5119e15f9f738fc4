package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/funds/domain"
	"github.com/philly/school-finance/backend/internal/funds/ports"
	"github.com/philly/school-finance/backend/internal/platform/apperror"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/platform/period"
	"github.com/philly/school-finance/backend/internal/platform/validator"
)

// Error definitions for service operations
var (
	ErrFundRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		apperror.BusinessCodeFundRequestNotFound,
		"fund request not found",
		http.StatusNotFound,
	)

	ErrInvalidFundRequestData = apperror.New(
		apperror.CodeValidationFailed,
		apperror.BusinessCodeInvalidFormat,
		"invalid fund request data",
		http.StatusBadRequest,
	)

	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeConflict,
		apperror.BusinessCodeInvalidStatusTransition,
		"invalid status transition",
		http.StatusConflict,
	)

	ErrFundsExceeded = apperror.New(
		apperror.CodeConflict,
		apperror.BusinessCodeFundsExceeded,
		"usage exceeds the approved amount",
		http.StatusConflict,
	)

	ErrSelfReview = apperror.New(
		apperror.CodeForbidden,
		apperror.BusinessCodePermissionDenied,
		"requesters cannot review their own fund requests",
		http.StatusForbidden,
	)

	ErrStaffInactive = apperror.New(
		apperror.CodeConflict,
		apperror.BusinessCodeStaffInactive,
		"staff member is inactive",
		http.StatusConflict,
	)
)

// FundsService manages fund requests and the spending recorded against them.
type FundsService struct {
	requests    ports.FundRequestRepository
	usage       ports.FundUsageRepository
	authorizer  ports.Authorizer
	coordinator *eventbus.Coordinator
	eventBus    *eventbus.Bus
	logger      logger.Logger
}

func NewFundsService(
	requests ports.FundRequestRepository,
	usage ports.FundUsageRepository,
	authorizer ports.Authorizer,
	coordinator *eventbus.Coordinator,
	logger logger.Logger,
) *FundsService {
	return &FundsService{
		requests:    requests,
		usage:       usage,
		authorizer:  authorizer,
		coordinator: coordinator,
		eventBus:    coordinator.Bus(),
		logger:      logger,
	}
}

// FundRequestParams contains the editable fields of a fund request
type FundRequestParams struct {
	Title   string
	Purpose string
	Amount  int64
}

// CreateFundRequest submits a pending request on behalf of an active staff member.
func (s *FundsService) CreateFundRequest(ctx context.Context, actorID uuid.UUID, params FundRequestParams) (*domain.FundRequest, error) {
	member, err := eventbus.Request[events.StaffMember](ctx, s.coordinator, eventbus.Call{
		Exchange: events.StaffMemberExchange,
		Payload:  events.StaffMemberRequest{StaffID: actorID},
	})
	if err != nil {
		return nil, err
	}
	if !member.Active {
		return nil, ErrStaffInactive
	}

	req, err := domain.NewFundRequest(actorID,
		validator.SanitizeText(params.Title),
		validator.SanitizeText(params.Purpose),
		params.Amount,
	)
	if err != nil {
		return nil, ErrInvalidFundRequestData.WithDetails(err.Error())
	}

	if err := s.requests.Create(ctx, req); err != nil {
		s.logger.Error(ctx, "failed to create fund request", "error", err, "actorID", actorID)
		return nil, apperror.Internal("failed to create fund request")
	}
	return req, nil
}

// UpdateFundRequest edits a pending request; requires funds:update on it.
func (s *FundsService) UpdateFundRequest(ctx context.Context, actorID, id uuid.UUID, params FundRequestParams) (*domain.FundRequest, error) {
	if err := s.authorize(ctx, actorID, "update", id); err != nil {
		return nil, err
	}

	req, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := req.Update(validator.SanitizeText(params.Title), validator.SanitizeText(params.Purpose), params.Amount); err != nil {
		if errors.Is(err, domain.ErrNotPending) {
			return nil, ErrInvalidStatusTransition.WithDetails(err.Error())
		}
		return nil, ErrInvalidFundRequestData.WithDetails(err.Error())
	}

	if err := s.requests.Update(ctx, req); err != nil {
		s.logger.Error(ctx, "failed to update fund request", "error", err, "requestID", id)
		return nil, apperror.Internal("failed to update fund request")
	}
	return req, nil
}

// ApproveFundRequest approves a pending request and announces it.
func (s *FundsService) ApproveFundRequest(ctx context.Context, actorID, id uuid.UUID, note string) (*domain.FundRequest, error) {
	return s.review(ctx, actorID, id, note, true)
}

// RejectFundRequest rejects a pending request; a note is required.
func (s *FundsService) RejectFundRequest(ctx context.Context, actorID, id uuid.UUID, note string) (*domain.FundRequest, error) {
	return s.review(ctx, actorID, id, note, false)
}

func (s *FundsService) review(ctx context.Context, actorID, id uuid.UUID, note string, approve bool) (*domain.FundRequest, error) {
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.RequesterID == actorID {
		return nil, ErrSelfReview
	}

	note = validator.SanitizeText(note)
	topic := events.FundRequestApprovedTopic
	if approve {
		err = req.Approve(actorID, note)
	} else {
		topic = events.FundRequestRejectedTopic
		err = req.Reject(actorID, note)
	}
	if err != nil {
		if errors.Is(err, domain.ErrReviewNoteMissing) {
			return nil, ErrInvalidFundRequestData.WithDetails(err.Error())
		}
		return nil, ErrInvalidStatusTransition.WithDetails(err.Error())
	}

	if err := s.requests.Update(ctx, req); err != nil {
		s.logger.Error(ctx, "failed to review fund request", "error", err, "requestID", id)
		return nil, apperror.Internal("failed to review fund request")
	}

	s.eventBus.Publish(ctx, topic, events.FundRequestReviewedEvent{
		RequestID:   req.ID,
		RequesterID: req.RequesterID,
		ReviewerID:  actorID,
		Amount:      req.Amount,
		Note:        req.ReviewNote,
		OccurredAt:  time.Now(),
	})
	return req, nil
}

// RecordUsageParams describes spending against an approved request
type RecordUsageParams struct {
	Amount      int64
	Description string
	SpentOn     time.Time
}

// RecordUsage records spending; total usage never exceeds the approved amount.
func (s *FundsService) RecordUsage(ctx context.Context, actorID, id uuid.UUID, params RecordUsageParams) (*domain.FundUsage, error) {
	if err := s.authorize(ctx, actorID, "usage", id); err != nil {
		return nil, err
	}

	req, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	usage, err := domain.NewFundUsage(id, actorID, params.Amount, validator.SanitizeText(params.Description), params.SpentOn)
	if err != nil {
		return nil, ErrInvalidFundRequestData.WithDetails(err.Error())
	}

	used, err := s.usage.TotalForRequest(ctx, id)
	if err != nil {
		s.logger.Error(ctx, "failed to total fund usage", "error", err, "requestID", id)
		return nil, apperror.Internal("failed to record usage")
	}
	if err := req.CheckSpend(used, usage.Amount); err != nil {
		if errors.Is(err, domain.ErrExceedsApproved) {
			return nil, ErrFundsExceeded.WithDetails(fmt.Sprintf("approved %d, used %d", req.Amount, used))
		}
		return nil, ErrInvalidStatusTransition.WithDetails(err.Error())
	}

	if err := s.usage.RecordUsage(ctx, usage, req.Amount); err != nil {
		if errors.Is(err, ports.ErrUsageLimitExceeded) {
			return nil, ErrFundsExceeded
		}
		s.logger.Error(ctx, "failed to record fund usage", "error", err, "requestID", id)
		return nil, apperror.Internal("failed to record usage")
	}

	s.eventBus.Publish(ctx, events.FundUsageRecordedTopic, events.FundUsageRecordedEvent{
		UsageID:    usage.ID,
		RequestID:  id,
		Amount:     usage.Amount,
		Period:     period.Of(usage.SpentOn),
		OccurredAt: time.Now(),
	})
	return usage, nil
}

// FundRequestDetails is a request with its spending so far
type FundRequestDetails struct {
	Request   *domain.FundRequest
	Used      int64
	Remaining int64
}

// GetFundRequest returns a request the actor may read, with its usage total.
func (s *FundsService) GetFundRequest(ctx context.Context, actorID, id uuid.UUID) (*FundRequestDetails, error) {
	if err := s.authorize(ctx, actorID, "read", id); err != nil {
		return nil, err
	}
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	used, err := s.usage.TotalForRequest(ctx, id)
	if err != nil {
		s.logger.Error(ctx, "failed to total fund usage", "error", err, "requestID", id)
		return nil, apperror.Internal("failed to get fund request")
	}
	details := &FundRequestDetails{Request: req, Used: used}
	if req.Status == domain.StatusApproved {
		details.Remaining = req.Amount - used
	}
	return details, nil
}

// ListFundRequests lists requests; staff without funds:read:any only see their own.
func (s *FundsService) ListFundRequests(ctx context.Context, actorID uuid.UUID, filter ports.ListFilter) ([]*domain.FundRequest, error) {
	canReadAny, err := s.authorizer.Can(ctx, actorID, "funds", "read", nil)
	if err != nil {
		s.logger.Error(ctx, "failed to check authorization", "error", err, "actorID", actorID)
		return nil, apperror.Internal("authorization check failed")
	}
	if !canReadAny {
		filter.RequesterID = &actorID
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	reqs, err := s.requests.List(ctx, filter)
	if err != nil {
		s.logger.Error(ctx, "failed to list fund requests", "error", err)
		return nil, apperror.Internal("failed to list fund requests")
	}
	return reqs, nil
}

// ListUsage lists the spending recorded against a request.
func (s *FundsService) ListUsage(ctx context.Context, actorID, id uuid.UUID) ([]*domain.FundUsage, error) {
	if err := s.authorize(ctx, actorID, "read", id); err != nil {
		return nil, err
	}
	if _, err := s.getRequest(ctx, id); err != nil {
		return nil, err
	}
	usage, err := s.usage.ListByRequest(ctx, id)
	if err != nil {
		s.logger.Error(ctx, "failed to list fund usage", "error", err, "requestID", id)
		return nil, apperror.Internal("failed to list usage")
	}
	return usage, nil
}

// MonthlyUsage returns usage per period, zero-filled.
func (s *FundsService) MonthlyUsage(ctx context.Context, periods []string) (map[string]int64, error) {
	sums, err := s.usage.TotalsByPeriod(ctx, periods)
	if err != nil {
		s.logger.Error(ctx, "failed to sum fund usage", "error", err)
		return nil, apperror.Internal("failed to sum fund usage")
	}
	totals := make(map[string]int64, len(periods))
	for _, p := range periods {
		totals[p] = sums[p]
	}
	return totals, nil
}

func (s *FundsService) authorize(ctx context.Context, actorID uuid.UUID, action string, id uuid.UUID) error {
	ok, err := s.authorizer.Can(ctx, actorID, "funds", action, &id)
	if err != nil {
		s.logger.Error(ctx, "failed to check authorization", "error", err, "actorID", actorID, "requestID", id)
		return apperror.Internal("authorization check failed")
	}
	if !ok {
		return apperror.New(
			apperror.CodeForbidden,
			apperror.BusinessCodePermissionDenied,
			fmt.Sprintf("not authorized to %s this fund request", action),
			http.StatusForbidden,
		)
	}
	return nil
}

func (s *FundsService) getRequest(ctx context.Context, id uuid.UUID) (*domain.FundRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrFundRequestNotFound) {
			return nil, ErrFundRequestNotFound
		}
		s.logger.Error(ctx, "failed to get fund request", "error", err, "requestID", id)
		return nil, apperror.Internal("failed to get fund request")
	}
	return req, nil
}
