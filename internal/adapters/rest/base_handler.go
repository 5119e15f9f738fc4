package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/philly/school-finance/backend/internal/adapters/rest/middleware"
	"github.com/philly/school-finance/backend/internal/platform/apperror"
	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/platform/validator"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the JSON body of every error response
type ErrorResponse struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	BusinessCode string `json:"business_code,omitempty"`
	Context      any    `json:"context,omitempty"`
}

// BaseHandler contains common dependencies and helper methods for all handlers
type BaseHandler struct {
	logger    logger.Logger
	validator *validator.Validator
}

// NewBaseHandler creates a new base handler with common dependencies
func NewBaseHandler(logger logger.Logger) *BaseHandler {
	return &BaseHandler{
		logger:    logger,
		validator: validator.New(),
	}
}

// WriteJSONError writes a JSON error response
func (h *BaseHandler) WriteJSONError(w http.ResponseWriter, r *http.Request, code string, message string, statusCode int) {
	h.writeError(w, r, ErrorResponse{Error: code, Message: message}, statusCode)
}

func (h *BaseHandler) writeError(w http.ResponseWriter, r *http.Request, body ErrorResponse, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error(r.Context(), "failed to encode error response",
			"error", err,
			"error_code", body.Error,
			"status_code", statusCode,
		)
	}
}

// WriteJSONResponse writes a successful JSON response
func (h *BaseHandler) WriteJSONResponse(w http.ResponseWriter, r *http.Request, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error(r.Context(), "failed to encode response",
			"error", err,
			"status_code", statusCode,
		)
	}
}

// HandleError maps service errors to HTTP responses. AppErrors carry their own
// status and codes; anything else is an unexpected 500.
func (h *BaseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		h.logger.Error(r.Context(), "unhandled error",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
		h.writeError(w, r, ErrorResponse{
			Error:   "INTERNAL_SERVER_ERROR",
			Message: "An unexpected error occurred",
		}, http.StatusInternalServerError)
		return
	}

	status := apperror.StatusOf(appErr)
	errorCode := string(appErr.Code)
	if status == http.StatusInternalServerError {
		errorCode = "INTERNAL_SERVER_ERROR"
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed",
			"error", appErr,
			"inner", appErr.Inner,
			"method", r.Method,
			"path", r.URL.Path,
		)
	}

	h.writeError(w, r, ErrorResponse{
		Error:        errorCode,
		Message:      appErr.Message,
		BusinessCode: string(appErr.BusinessCode),
		Context:      appErr.Details,
	}, status)
}

// ParseUUID binds value as a UUID path parameter and writes a 400 when it
// does not parse.
func (h *BaseHandler) ParseUUID(w http.ResponseWriter, r *http.Request, value string, paramName string) (uuid.UUID, bool) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", paramName, value, &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil || id == uuid.Nil {
		h.WriteJSONError(w, r, "invalid_request", "Invalid "+paramName, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// PathUUID reads and parses a chi URL parameter.
func (h *BaseHandler) PathUUID(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, bool) {
	return h.ParseUUID(w, r, chi.URLParam(r, paramName), paramName)
}

// PathInt binds an integer chi URL parameter.
func (h *BaseHandler) PathInt(w http.ResponseWriter, r *http.Request, paramName string, dst *int) bool {
	err := runtime.BindStyledParameterWithOptions("simple", paramName, chi.URLParam(r, paramName), dst, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		h.WriteJSONError(w, r, "invalid_request", "Invalid "+paramName, http.StatusBadRequest)
		return false
	}
	return true
}

// QueryInt binds an integer query parameter. Missing optional parameters
// leave dst untouched.
func (h *BaseHandler) QueryInt(w http.ResponseWriter, r *http.Request, name string, required bool, dst *int) bool {
	if err := runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dst); err != nil {
		h.WriteJSONError(w, r, "invalid_request", "Invalid "+name, http.StatusBadRequest)
		return false
	}
	return true
}

// DecodeAndValidate decodes the JSON body into dst and runs its validate tags.
func (h *BaseHandler) DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.WriteJSONError(w, r, "validation_error", "Invalid request body", http.StatusBadRequest)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		h.HandleError(w, r, err)
		return false
	}
	return true
}

// GetUserIDFromContext returns the authenticated staff ID. Routes using it
// sit behind the auth middleware, so a missing ID is a wiring bug and panics.
func (h *BaseHandler) GetUserIDFromContext(r *http.Request) uuid.UUID {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		panic("user ID missing from request context; route is not behind the auth middleware")
	}
	return userID
}
