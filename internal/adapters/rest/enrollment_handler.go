package rest

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/philly/school-finance/backend/internal/enrollment/application"
	"github.com/philly/school-finance/backend/internal/enrollment/domain"
	"github.com/philly/school-finance/backend/internal/enrollment/ports"
)

type EnrollmentHandler struct {
	*BaseHandler
	service *application.EnrollmentService
}

func NewEnrollmentHandler(base *BaseHandler, service *application.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler: base,
		service:     service,
	}
}

type StudentRequest struct {
	FirstName          string `json:"firstName" validate:"required,max=80"`
	LastName           string `json:"lastName" validate:"required,max=80"`
	GuardianEmail      string `json:"guardianEmail" validate:"omitempty,email"`
	ScholarshipPercent int    `json:"scholarshipPercent" validate:"gte=0,lte=100"`
}

type EnrollRequest struct {
	SchoolYear int `json:"schoolYear" validate:"required,gte=2000,lte=2100"`
	GradeLevel int `json:"gradeLevel" validate:"gte=0,lte=12"`
}

type WithdrawRequest struct {
	SchoolYear int `json:"schoolYear" validate:"required,gte=2000,lte=2100"`
}

type StudentResponse struct {
	ID                 uuid.UUID            `json:"id"`
	FirstName          string               `json:"firstName"`
	LastName           string               `json:"lastName"`
	GuardianEmail      string               `json:"guardianEmail,omitempty"`
	ScholarshipPercent int                  `json:"scholarshipPercent"`
	Enrollments        []EnrollmentResponse `json:"enrollments,omitempty"`
	CreatedAt          time.Time            `json:"createdAt"`
}

type EnrollmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	StudentID   uuid.UUID  `json:"studentId"`
	SchoolYear  int        `json:"schoolYear"`
	GradeLevel  int        `json:"gradeLevel"`
	Status      string     `json:"status"`
	Cleared     bool       `json:"cleared"`
	EnrolledAt  time.Time  `json:"enrolledAt"`
	WithdrawnAt *time.Time `json:"withdrawnAt,omitempty"`
}

func toStudentResponse(s *domain.Student) StudentResponse {
	return StudentResponse{
		ID:                 s.ID,
		FirstName:          s.FirstName,
		LastName:           s.LastName,
		GuardianEmail:      s.GuardianEmail,
		ScholarshipPercent: s.ScholarshipPercent,
		CreatedAt:          s.CreatedAt,
	}
}

func toEnrollmentResponse(e *domain.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:          e.ID,
		StudentID:   e.StudentID,
		SchoolYear:  e.SchoolYear,
		GradeLevel:  e.GradeLevel,
		Status:      string(e.Status),
		Cleared:     e.Cleared,
		EnrolledAt:  e.EnrolledAt,
		WithdrawnAt: e.WithdrawnAt,
	}
}

func (h *EnrollmentHandler) params(req StudentRequest) application.StudentParams {
	return application.StudentParams{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		GuardianEmail:      req.GuardianEmail,
		ScholarshipPercent: req.ScholarshipPercent,
	}
}

func (h *EnrollmentHandler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req StudentRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	student, err := h.service.RegisterStudent(r.Context(), h.params(req))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toStudentResponse(student), http.StatusCreated)
}

func (h *EnrollmentHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req StudentRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	student, err := h.service.UpdateStudent(r.Context(), id, h.params(req))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toStudentResponse(student), http.StatusOK)
}

func (h *EnrollmentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}

	details, err := h.service.GetStudent(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	resp := toStudentResponse(details.Student)
	resp.Enrollments = make([]EnrollmentResponse, 0, len(details.Enrollments))
	for _, e := range details.Enrollments {
		resp.Enrollments = append(resp.Enrollments, toEnrollmentResponse(e))
	}
	h.WriteJSONResponse(w, r, resp, http.StatusOK)
}

func (h *EnrollmentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	filter := ports.StudentFilter{Search: r.URL.Query().Get("q")}
	if !h.QueryInt(w, r, "limit", false, &filter.Limit) || !h.QueryInt(w, r, "offset", false, &filter.Offset) {
		return
	}

	students, err := h.service.ListStudents(r.Context(), filter)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	out := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, toStudentResponse(s))
	}
	h.WriteJSONResponse(w, r, out, http.StatusOK)
}

func (h *EnrollmentHandler) EnrollStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req EnrollRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	enrollment, err := h.service.EnrollStudent(r.Context(), id, application.EnrollParams{
		SchoolYear: req.SchoolYear,
		GradeLevel: req.GradeLevel,
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toEnrollmentResponse(enrollment), http.StatusCreated)
}

func (h *EnrollmentHandler) WithdrawStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req WithdrawRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	enrollment, err := h.service.WithdrawStudent(r.Context(), id, req.SchoolYear)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, toEnrollmentResponse(enrollment), http.StatusOK)
}
