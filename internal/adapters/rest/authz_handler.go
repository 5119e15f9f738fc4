package rest

import (
	"net/http"
	"sort"

	"github.com/philly/school-finance/backend/internal/authz/application"
	"github.com/philly/school-finance/backend/internal/authz/permission"
)

// AuthzHandler exposes the role grants and the caller's own permissions
type AuthzHandler struct {
	*BaseHandler
	service *application.AuthzService
}

// NewAuthzHandler creates a new authorization handler
func NewAuthzHandler(base *BaseHandler, service *application.AuthzService) *AuthzHandler {
	return &AuthzHandler{
		BaseHandler: base,
		service:     service,
	}
}

type PermissionResponse struct {
	ID          string `json:"id"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Scope       string `json:"scope,omitempty"`
	Description string `json:"description"`
}

type RoleResponse struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// ListPermissions returns every permission the system knows about
func (h *AuthzHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	all := permission.All()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	out := make([]PermissionResponse, len(all))
	for i, p := range all {
		out[i] = toPermissionResponse(p)
	}
	h.WriteJSONResponse(w, r, out, http.StatusOK)
}

// ListRoles returns the fixed roles with their grants
func (h *AuthzHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	grants := h.service.RoleGrants()

	names := make([]string, 0, len(grants))
	for name := range grants {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]RoleResponse, len(names))
	for i, name := range names {
		out[i] = RoleResponse{Name: name, Permissions: grants[name]}
	}
	h.WriteJSONResponse(w, r, out, http.StatusOK)
}

// GetMyPermissions returns the permissions held by the authenticated staff member
func (h *AuthzHandler) GetMyPermissions(w http.ResponseWriter, r *http.Request) {
	staffID := h.GetUserIDFromContext(r)

	perms, err := h.service.GetStaffPermissions(r.Context(), staffID)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSONResponse(w, r, map[string][]string{"permissions": perms}, http.StatusOK)
}

func toPermissionResponse(p *permission.Permission) PermissionResponse {
	return PermissionResponse{
		ID:          p.ID,
		Resource:    p.Resource,
		Action:      p.Action,
		Scope:       p.Scope,
		Description: p.Description,
	}
}
