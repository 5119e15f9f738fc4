package rest

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/billing/application"
	"github.com/philly/school-finance/backend/internal/billing/domain"
)

type BillingHandler struct {
	*BaseHandler
	service *application.BillingService
}

func NewBillingHandler(base *BaseHandler, service *application.BillingService) *BillingHandler {
	return &BillingHandler{
		BaseHandler: base,
		service:     service,
	}
}

type FeeScheduleRequest struct {
	GradeLevel int   `json:"gradeLevel" validate:"gte=0,lte=12"`
	SchoolYear int   `json:"schoolYear" validate:"required,gte=2000,lte=2100"`
	Tuition    int64 `json:"tuition" validate:"gt=0"`
}

type CreateBillRequest struct {
	StudentID   uuid.UUID `json:"studentId" validate:"required"`
	SchoolYear  int       `json:"schoolYear" validate:"required,gte=2000,lte=2100"`
	Description string    `json:"description" validate:"required,max=200"`
	Amount      int64     `json:"amount" validate:"gt=0"`
}

type RecordPaymentRequest struct {
	Amount    int64     `json:"amount" validate:"gt=0"`
	Method    string    `json:"method" validate:"required,oneof=cash bank_transfer card check"`
	Reference string    `json:"reference" validate:"max=100"`
	PaidAt    time.Time `json:"paidAt" validate:"required"`
}

type FeeScheduleResponse struct {
	GradeLevel int   `json:"gradeLevel"`
	SchoolYear int   `json:"schoolYear"`
	Tuition    int64 `json:"tuition"`
}

type BillResponse struct {
	ID          uuid.UUID         `json:"id"`
	StudentID   uuid.UUID         `json:"studentId"`
	SchoolYear  int               `json:"schoolYear"`
	Description string            `json:"description"`
	Amount      int64             `json:"amount"`
	Discount    int64             `json:"discount"`
	AmountPaid  int64             `json:"amountPaid"`
	Outstanding int64             `json:"outstanding"`
	Status      string            `json:"status"`
	Payments    []PaymentResponse `json:"payments,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

type PaymentResponse struct {
	ID         uuid.UUID  `json:"id"`
	BillID     uuid.UUID  `json:"billId"`
	Amount     int64      `json:"amount"`
	Method     string     `json:"method"`
	Reference  string     `json:"reference,omitempty"`
	Status     string     `json:"status"`
	RecordedBy uuid.UUID  `json:"recordedBy"`
	ApprovedBy *uuid.UUID `json:"approvedBy,omitempty"`
	PaidAt     time.Time  `json:"paidAt"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
}

type CollectionsResponse struct {
	Year   int              `json:"year"`
	Totals map[string]int64 `json:"totals"`
}

func toBillResponse(b *domain.Bill) BillResponse {
	return BillResponse{
		ID:          b.ID,
		StudentID:   b.StudentID,
		SchoolYear:  b.SchoolYear,
		Description: b.Description,
		Amount:      b.Amount,
		Discount:    b.Discount,
		AmountPaid:  b.AmountPaid,
		Outstanding: b.Outstanding(),
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
	}
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:         p.ID,
		BillID:     p.BillID,
		Amount:     p.Amount,
		Method:     string(p.Method),
		Reference:  p.Reference,
		Status:     string(p.Status),
		RecordedBy: p.RecordedBy,
		ApprovedBy: p.ApprovedBy,
		PaidAt:     p.PaidAt,
		ApprovedAt: p.ApprovedAt,
	}
}

func (h *BillingHandler) SetFeeSchedule(w http.ResponseWriter, r *http.Request) {
	var req FeeScheduleRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	fee, err := h.service.SetFeeSchedule(r.Context(), req.GradeLevel, req.SchoolYear, req.Tuition)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, FeeScheduleResponse{
		GradeLevel: fee.GradeLevel,
		SchoolYear: fee.SchoolYear,
		Tuition:    fee.Tuition,
	}, http.StatusOK)
}

func (h *BillingHandler) ListFeeSchedules(w http.ResponseWriter, r *http.Request) {
	var year int
	if !h.QueryInt(w, r, "schoolYear", true, &year) {
		return
	}

	fees, err := h.service.ListFeeSchedules(r.Context(), year)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	out := make([]FeeScheduleResponse, 0, len(fees))
	for _, f := range fees {
		out = append(out, FeeScheduleResponse{GradeLevel: f.GradeLevel, SchoolYear: f.SchoolYear, Tuition: f.Tuition})
	}
	h.WriteJSONResponse(w, r, out, http.StatusOK)
}

func (h *BillingHandler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var req CreateBillRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	bill, err := h.service.CreateBill(r.Context(), application.CreateBillParams{
		StudentID:   req.StudentID,
		SchoolYear:  req.SchoolYear,
		Description: req.Description,
		Amount:      req.Amount,
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toBillResponse(bill), http.StatusCreated)
}

func (h *BillingHandler) GetBill(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}

	details, err := h.service.GetBill(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	resp := toBillResponse(details.Bill)
	resp.Payments = make([]PaymentResponse, 0, len(details.Payments))
	for _, p := range details.Payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	h.WriteJSONResponse(w, r, resp, http.StatusOK)
}

func (h *BillingHandler) ListStudentBills(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}

	bills, err := h.service.ListStudentBills(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	out := make([]BillResponse, 0, len(bills))
	for _, b := range bills {
		out = append(out, toBillResponse(b))
	}
	h.WriteJSONResponse(w, r, out, http.StatusOK)
}

func (h *BillingHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	billID, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req RecordPaymentRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), h.GetUserIDFromContext(r), billID, application.RecordPaymentParams{
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		PaidAt:    req.PaidAt,
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toPaymentResponse(payment), http.StatusCreated)
}

func (h *BillingHandler) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}

	payment, err := h.service.ApprovePayment(r.Context(), h.GetUserIDFromContext(r), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toPaymentResponse(payment), http.StatusOK)
}

// MonthlyCollections reports approved payments per month of a calendar year
func (h *BillingHandler) MonthlyCollections(w http.ResponseWriter, r *http.Request) {
	var year int
	if !h.QueryInt(w, r, "year", true, &year) {
		return
	}

	totals, err := h.service.MonthlyCollections(r.Context(), year)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, CollectionsResponse{Year: year, Totals: totals.Totals}, http.StatusOK)
}
