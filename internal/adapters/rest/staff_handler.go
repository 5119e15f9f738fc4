package rest

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/staff/application"
	"github.com/philly/school-finance/backend/internal/staff/domain"
	"github.com/philly/school-finance/backend/internal/staff/ports"
)

type StaffHandler struct {
	*BaseHandler
	service *application.StaffService
}

func NewStaffHandler(base *BaseHandler, service *application.StaffService) *StaffHandler {
	return &StaffHandler{
		BaseHandler: base,
		service:     service,
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Staff     StaffResponse `json:"staff"`
}

type CreateStaffRequest struct {
	Email         string `json:"email" validate:"required,email"`
	FullName      string `json:"fullName" validate:"required,max=120"`
	Role          string `json:"role" validate:"required,oneof=admin bursar registrar teacher"`
	MonthlySalary int64  `json:"monthlySalary" validate:"gte=0"`
	Password      string `json:"password" validate:"required,min=8,max=72"`
}

type UpdateStaffRequest struct {
	FullName      string `json:"fullName" validate:"omitempty,max=120"`
	Role          string `json:"role" validate:"omitempty,oneof=admin bursar registrar teacher"`
	MonthlySalary *int64 `json:"monthlySalary" validate:"omitempty,gte=0"`
}

type StaffResponse struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	Role          string    `json:"role"`
	MonthlySalary int64     `json:"monthlySalary"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toStaffResponse(s *domain.Staff) StaffResponse {
	return StaffResponse{
		ID:            s.ID,
		Email:         s.Email,
		FullName:      s.FullName,
		Role:          string(s.Role),
		MonthlySalary: s.MonthlySalary,
		Active:        s.Active,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// Login exchanges credentials for an access token. Public, but rate limited
// on the login tier.
func (h *StaffHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSONResponse(w, r, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Staff:     toStaffResponse(result.Staff),
	}, http.StatusOK)
}

// GetCurrentStaff returns the authenticated staff member
func (h *StaffHandler) GetCurrentStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.service.GetStaff(r.Context(), h.GetUserIDFromContext(r))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toStaffResponse(staff), http.StatusOK)
}

func (h *StaffHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req CreateStaffRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	staff, err := h.service.CreateStaff(r.Context(), application.CreateStaffParams{
		Email:         req.Email,
		FullName:      req.FullName,
		Role:          req.Role,
		MonthlySalary: req.MonthlySalary,
		Password:      req.Password,
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toStaffResponse(staff), http.StatusCreated)
}

func (h *StaffHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	filter := ports.ListFilter{
		ActiveOnly: r.URL.Query().Get("active") == "true",
		Role:       domain.Role(r.URL.Query().Get("role")),
	}
	if !h.QueryInt(w, r, "limit", false, &filter.Limit) || !h.QueryInt(w, r, "offset", false, &filter.Offset) {
		return
	}

	staff, err := h.service.ListStaff(r.Context(), filter)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	out := make([]StaffResponse, 0, len(staff))
	for _, s := range staff {
		out = append(out, toStaffResponse(s))
	}
	h.WriteJSONResponse(w, r, out, http.StatusOK)
}

func (h *StaffHandler) GetStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}

	staff, err := h.service.GetStaff(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toStaffResponse(staff), http.StatusOK)
}

func (h *StaffHandler) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateStaffRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	staff, err := h.service.UpdateStaff(r.Context(), id, application.UpdateStaffParams{
		FullName:      req.FullName,
		Role:          req.Role,
		MonthlySalary: req.MonthlySalary,
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toStaffResponse(staff), http.StatusOK)
}

func (h *StaffHandler) DeactivateStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}

	staff, err := h.service.DeactivateStaff(r.Context(), h.GetUserIDFromContext(r), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toStaffResponse(staff), http.StatusOK)
}

