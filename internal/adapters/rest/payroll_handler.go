package rest

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/payroll/application"
	"github.com/philly/school-finance/backend/internal/payroll/domain"
	"github.com/philly/school-finance/backend/internal/payroll/ports"
)

type PayrollHandler struct {
	*BaseHandler
	service *application.PayrollService
}

func NewPayrollHandler(base *BaseHandler, service *application.PayrollService) *PayrollHandler {
	return &PayrollHandler{
		BaseHandler: base,
		service:     service,
	}
}

type DeductionRequest struct {
	Label  string `json:"label" validate:"required,max=80"`
	Amount int64  `json:"amount" validate:"gt=0"`
}

type GeneratePayslipRequest struct {
	StaffID    uuid.UUID          `json:"staffId" validate:"required"`
	Period     string             `json:"period" validate:"required,period"`
	Deductions []DeductionRequest `json:"deductions" validate:"omitempty,max=20,dive"`
}

type PayrollRunRequest struct {
	Period string `json:"period" validate:"required,period"`
}

type PayrollRunResponse struct {
	Period  string `json:"period"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
}

type PayslipResponse struct {
	ID         uuid.UUID          `json:"id"`
	StaffID    uuid.UUID          `json:"staffId"`
	Period     string             `json:"period"`
	Gross      int64              `json:"gross"`
	Deductions []domain.Deduction `json:"deductions"`
	Net        int64              `json:"net"`
	Status     string             `json:"status"`
	ApprovedBy *uuid.UUID         `json:"approvedBy,omitempty"`
	ApprovedAt *time.Time         `json:"approvedAt,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
}

func toPayslipResponse(p *domain.Payslip) PayslipResponse {
	deductions := p.Deductions
	if deductions == nil {
		deductions = []domain.Deduction{}
	}
	return PayslipResponse{
		ID:         p.ID,
		StaffID:    p.StaffID,
		Period:     p.Period,
		Gross:      p.Gross,
		Deductions: deductions,
		Net:        p.Net,
		Status:     string(p.Status),
		ApprovedBy: p.ApprovedBy,
		ApprovedAt: p.ApprovedAt,
		CreatedAt:  p.CreatedAt,
	}
}

func (h *PayrollHandler) GeneratePayslip(w http.ResponseWriter, r *http.Request) {
	var req GeneratePayslipRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	deductions := make([]domain.Deduction, 0, len(req.Deductions))
	for _, d := range req.Deductions {
		deductions = append(deductions, domain.Deduction{Label: d.Label, Amount: d.Amount})
	}

	payslip, err := h.service.GeneratePayslip(r.Context(), application.GeneratePayslipParams{
		StaffID:    req.StaffID,
		Period:     req.Period,
		Deductions: deductions,
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toPayslipResponse(payslip), http.StatusCreated)
}

// RunPayroll runs the monthly payroll on demand; the scheduled job does the same.
func (h *PayrollHandler) RunPayroll(w http.ResponseWriter, r *http.Request) {
	var req PayrollRunRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.RunMonthlyPayroll(r.Context(), req.Period)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, PayrollRunResponse{
		Period:  result.Period,
		Created: result.Created,
		Skipped: result.Skipped,
	}, http.StatusOK)
}

func (h *PayrollHandler) ListPayslips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ports.ListFilter{
		Period: q.Get("period"),
		Status: domain.Status(q.Get("status")),
	}
	if raw := q.Get("staffId"); raw != "" {
		staffID, ok := h.ParseUUID(w, r, raw, "staffId")
		if !ok {
			return
		}
		filter.StaffID = &staffID
	}

	payslips, err := h.service.ListPayslips(r.Context(), filter)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	out := make([]PayslipResponse, 0, len(payslips))
	for _, p := range payslips {
		out = append(out, toPayslipResponse(p))
	}
	h.WriteJSONResponse(w, r, out, http.StatusOK)
}

// GetPayslip is guarded by payroll:read with ownership, so staff see their own.
// ListMyPayslips lists the caller's own payslips, optionally for one period.
func (h *PayrollHandler) ListMyPayslips(w http.ResponseWriter, r *http.Request) {
	staffID := h.GetUserIDFromContext(r)
	payslips, err := h.service.ListPayslips(r.Context(), ports.ListFilter{
		Period:  r.URL.Query().Get("period"),
		StaffID: &staffID,
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	out := make([]PayslipResponse, 0, len(payslips))
	for _, p := range payslips {
		out = append(out, toPayslipResponse(p))
	}
	h.WriteJSONResponse(w, r, out, http.StatusOK)
}

func (h *PayrollHandler) GetPayslip(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}

	payslip, err := h.service.GetPayslip(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toPayslipResponse(payslip), http.StatusOK)
}

func (h *PayrollHandler) ApprovePayslip(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}

	payslip, err := h.service.ApprovePayslip(r.Context(), h.GetUserIDFromContext(r), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toPayslipResponse(payslip), http.StatusOK)
}
