package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	apierrors "poscore/internal/errors"
	"poscore/internal/services"
	"poscore/pkg/contracts/domain"
)

var validate = validator.New()

// EntitlementHandler serves the entitlement endpoints consumed by the POS
// UI layer.
type EntitlementHandler struct {
	service services.EntitlementService
	logger  *slog.Logger
	limiter *rate.Limiter
}

// NewEntitlementHandler creates the handler. limiter bounds activation
// attempts; pass nil to disable limiting (tests).
func NewEntitlementHandler(service services.EntitlementService, logger *slog.Logger, limiter *rate.Limiter) *EntitlementHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntitlementHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "entitlement")),
		limiter: limiter,
	}
}

// Routes mounts the entitlement endpoints.
func (h *EntitlementHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Status)
	r.Post("/trial", h.StartTrial)
	r.Post("/activate", h.Activate)
	return r
}

// Status handles GET /api/entitlement.
func (h *EntitlementHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := h.service.Status(r.Context())
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// StartTrial handles POST /api/entitlement/trial.
func (h *EntitlementHandler) StartTrial(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.StartTrial(r.Context())
	if err != nil {
		render.Render(w, r, mapDomainError(err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

// Activate handles POST /api/entitlement/activate.
func (h *EntitlementHandler) Activate(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.Allow() {
		render.Render(w, r, apierrors.ErrRateLimited)
		return
	}

	var req domain.LicenseActivationRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.InvalidRequest(err))
		return
	}
	if err := validate.Struct(req); err != nil {
		render.Render(w, r, apierrors.InvalidRequest(err))
		return
	}

	resp, err := h.service.Activate(r.Context(), req)
	if err != nil {
		render.Render(w, r, mapDomainError(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}
