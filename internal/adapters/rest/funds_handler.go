package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/funds/application"
	"github.com/philly/school-finance/backend/internal/funds/domain"
	"github.com/philly/school-finance/backend/internal/funds/ports"
)

// FundsHandler serves fund requests. The funds service authorizes per
// request, since ownership depends on the loaded request.
type FundsHandler struct {
	*BaseHandler
	service *application.FundsService
}

func NewFundsHandler(base *BaseHandler, service *application.FundsService) *FundsHandler {
	return &FundsHandler{
		BaseHandler: base,
		service:     service,
	}
}

type FundRequestRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Purpose string `json:"purpose" validate:"required,max=2000"`
	Amount  int64  `json:"amount" validate:"gt=0"`
}

type ReviewRequest struct {
	Note string `json:"note" validate:"max=1000"`
}

type RecordUsageRequest struct {
	Amount      int64  `json:"amount" validate:"gt=0"`
	Description string `json:"description" validate:"required,max=500"`
	SpentOn     string `json:"spentOn" validate:"required,datetime=2006-01-02"`
}

type FundRequestResponse struct {
	ID          uuid.UUID  `json:"id"`
	RequesterID uuid.UUID  `json:"requesterId"`
	Title       string     `json:"title"`
	Purpose     string     `json:"purpose"`
	Amount      int64      `json:"amount"`
	Status      string     `json:"status"`
	ReviewedBy  *uuid.UUID `json:"reviewedBy,omitempty"`
	ReviewNote  string     `json:"reviewNote,omitempty"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty"`
	Used        *int64     `json:"used,omitempty"`
	Remaining   *int64     `json:"remaining,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type FundUsageResponse struct {
	ID          uuid.UUID `json:"id"`
	RequestID   uuid.UUID `json:"requestId"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	SpentOn     string    `json:"spentOn"`
	RecordedBy  uuid.UUID `json:"recordedBy"`
}

func toFundRequestResponse(req *domain.FundRequest) FundRequestResponse {
	return FundRequestResponse{
		ID:          req.ID,
		RequesterID: req.RequesterID,
		Title:       req.Title,
		Purpose:     req.Purpose,
		Amount:      req.Amount,
		Status:      string(req.Status),
		ReviewedBy:  req.ReviewedBy,
		ReviewNote:  req.ReviewNote,
		ReviewedAt:  req.ReviewedAt,
		CreatedAt:   req.CreatedAt,
	}
}

func toFundUsageResponse(u *domain.FundUsage) FundUsageResponse {
	return FundUsageResponse{
		ID:          u.ID,
		RequestID:   u.RequestID,
		Amount:      u.Amount,
		Description: u.Description,
		SpentOn:     u.SpentOn.Format(time.DateOnly),
		RecordedBy:  u.RecordedBy,
	}
}

func (h *FundsHandler) CreateFundRequest(w http.ResponseWriter, r *http.Request) {
	var req FundRequestRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.service.CreateFundRequest(r.Context(), h.GetUserIDFromContext(r), application.FundRequestParams{
		Title:   req.Title,
		Purpose: req.Purpose,
		Amount:  req.Amount,
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toFundRequestResponse(created), http.StatusCreated)
}

func (h *FundsHandler) UpdateFundRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req FundRequestRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateFundRequest(r.Context(), h.GetUserIDFromContext(r), id, application.FundRequestParams{
		Title:   req.Title,
		Purpose: req.Purpose,
		Amount:  req.Amount,
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toFundRequestResponse(updated), http.StatusOK)
}

func (h *FundsHandler) ApproveFundRequest(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.ApproveFundRequest)
}

func (h *FundsHandler) RejectFundRequest(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.RejectFundRequest)
}

func (h *FundsHandler) review(w http.ResponseWriter, r *http.Request, decide func(ctx context.Context, actorID, id uuid.UUID, note string) (*domain.FundRequest, error)) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req ReviewRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	reviewed, err := decide(r.Context(), h.GetUserIDFromContext(r), id, req.Note)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toFundRequestResponse(reviewed), http.StatusOK)
}

func (h *FundsHandler) GetFundRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}

	details, err := h.service.GetFundRequest(r.Context(), h.GetUserIDFromContext(r), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	resp := toFundRequestResponse(details.Request)
	resp.Used = &details.Used
	resp.Remaining = &details.Remaining
	h.WriteJSONResponse(w, r, resp, http.StatusOK)
}

// ListFundRequests lists every request for reviewers and only the caller's own otherwise
func (h *FundsHandler) ListFundRequests(w http.ResponseWriter, r *http.Request) {
	filter := ports.ListFilter{Status: domain.Status(r.URL.Query().Get("status"))}
	if !h.QueryInt(w, r, "limit", false, &filter.Limit) || !h.QueryInt(w, r, "offset", false, &filter.Offset) {
		return
	}

	reqs, err := h.service.ListFundRequests(r.Context(), h.GetUserIDFromContext(r), filter)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	out := make([]FundRequestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, toFundRequestResponse(req))
	}
	h.WriteJSONResponse(w, r, out, http.StatusOK)
}

func (h *FundsHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req RecordUsageRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	// validated as a date above
	spentOn, _ := time.Parse(time.DateOnly, req.SpentOn)

	usage, err := h.service.RecordUsage(r.Context(), h.GetUserIDFromContext(r), id, application.RecordUsageParams{
		Amount:      req.Amount,
		Description: req.Description,
		SpentOn:     spentOn,
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toFundUsageResponse(usage), http.StatusCreated)
}

func (h *FundsHandler) ListUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}

	usage, err := h.service.ListUsage(r.Context(), h.GetUserIDFromContext(r), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	out := make([]FundUsageResponse, 0, len(usage))
	for _, u := range usage {
		out = append(out, toFundUsageResponse(u))
	}
	h.WriteJSONResponse(w, r, out, http.StatusOK)
}
