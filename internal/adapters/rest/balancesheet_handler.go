package rest

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/balancesheet/application"
	"github.com/philly/school-finance/backend/internal/balancesheet/domain"
)

type BalanceSheetHandler struct {
	*BaseHandler
	service *application.BalanceSheetService
}

func NewBalanceSheetHandler(base *BaseHandler, service *application.BalanceSheetService) *BalanceSheetHandler {
	return &BalanceSheetHandler{
		BaseHandler: base,
		service:     service,
	}
}

type CloseYearRequest struct {
	Year int `json:"year" validate:"required,gte=2000,lte=2100"`
}

type SnapshotResponse struct {
	Year     int          `json:"year"`
	Sheet    domain.Sheet `json:"sheet"`
	ClosedBy uuid.UUID    `json:"closedBy"`
	ClosedAt time.Time    `json:"closedAt"`
}

func toSnapshotResponse(s *domain.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		Year:     s.Year,
		Sheet:    s.Sheet,
		ClosedBy: s.ClosedBy,
		ClosedAt: s.ClosedAt,
	}
}

// Generate returns the balance sheet for ?year=, served from cache when warm.
func (h *BalanceSheetHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var year int
	if !h.QueryInt(w, r, "year", true, &year) {
		return
	}

	sheet, err := h.service.Generate(r.Context(), year)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, sheet, http.StatusOK)
}

func (h *BalanceSheetHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req CloseYearRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	snapshot, err := h.service.Close(r.Context(), h.GetUserIDFromContext(r), req.Year)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toSnapshotResponse(snapshot), http.StatusCreated)
}

func (h *BalanceSheetHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	var year int
	if !h.PathInt(w, r, "year", &year) {
		return
	}

	snapshot, err := h.service.GetSnapshot(r.Context(), year)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toSnapshotResponse(snapshot), http.StatusOK)
}

func (h *BalanceSheetHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.service.ListSnapshots(r.Context())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	out := make([]SnapshotResponse, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, toSnapshotResponse(s))
	}
	h.WriteJSONResponse(w, r, out, http.StatusOK)
}
