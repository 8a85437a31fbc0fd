package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "poscore/internal/errors"
	"poscore/internal/services"
	"poscore/pkg/contracts/domain"
)

// AdminRoleHeader is set by the collaborator's session layer after it has
// authenticated the caller. Session enforcement itself is outside this core.
const AdminRoleHeader = "X-POS-Role"

// AccountsHandler serves registration and admin-managed user management.
type AccountsHandler struct {
	service services.AccountsService
	logger  *slog.Logger
}

// NewAccountsHandler creates the handler.
func NewAccountsHandler(service services.AccountsService, logger *slog.Logger) *AccountsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountsHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "accounts")),
	}
}

// Routes mounts the public registration endpoints.
func (h *AccountsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/bootstrap", h.BootstrapStatus)
	r.Post("/register", h.Register)
	return r
}

// AdminRoutes mounts the admin-managed user CRUD, guarded by the admin role
// header supplied by the authenticated session upstream.
func (h *AccountsHandler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(requireAdminRole)
	r.Get("/users", h.ListUsers)
	r.Post("/users", h.AddUser)
	r.Put("/users/{id}", h.UpdateUser)
	r.Delete("/users/{id}", h.DeleteUser)
	return r
}

func requireAdminRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(AdminRoleHeader) != "admin" {
			render.Render(w, r, apierrors.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BootstrapStatus handles GET /api/accounts/bootstrap. The answer is
// recomputed per request; clients must not reuse it across renders.
func (h *AccountsHandler) BootstrapStatus(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.service.BootstrapStatus(r.Context()))
}

// Register handles POST /api/accounts/register.
func (h *AccountsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.InvalidRequest(err))
		return
	}
	if err := validate.Struct(req); err != nil {
		render.Render(w, r, apierrors.InvalidRequest(err))
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		render.Render(w, r, mapDomainError(err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

// ListUsers handles GET /api/admin/users.
func (h *AccountsHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.ListUsers(r.Context())
	if err != nil {
		render.Render(w, r, mapDomainError(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// AddUser handles POST /api/admin/users.
func (h *AccountsHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UserRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.InvalidRequest(err))
		return
	}
	if err := validate.Struct(req); err != nil {
		render.Render(w, r, apierrors.InvalidRequest(err))
		return
	}

	resp, err := h.service.AddUser(r.Context(), req)
	if err != nil {
		render.Render(w, r, mapDomainError(err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

// UpdateUser handles PUT /api/admin/users/{id}.
func (h *AccountsHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UserRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.InvalidRequest(err))
		return
	}
	if err := validate.Struct(req); err != nil {
		render.Render(w, r, apierrors.InvalidRequest(err))
		return
	}

	resp, err := h.service.UpdateUser(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		render.Render(w, r, mapDomainError(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// DeleteUser handles DELETE /api/admin/users/{id}.
func (h *AccountsHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		render.Render(w, r, mapDomainError(err))
		return
	}
	render.NoContent(w, r)
}
