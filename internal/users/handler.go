package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-auth/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-auth/internal/rbac"
	"github.com/odyssey-erp/odyssey-auth/internal/shared"
)

// Handler manages principal management endpoints. Routes expect an actor in
// the request context, placed there by the bearer authentication middleware.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers principal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.create)
	r.Get("/profile", h.profile)
	r.Route("/users", func(r chi.Router) {
		r.With(h.rbac.RequireRole(rbac.RoleAdmin, rbac.RoleManager)).Get("/", h.list)
		r.Post("/create", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type principalView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      rbac.Role `json:"role"`
}

func viewOf(p Principal) principalView {
	return principalView{
		ID:        p.ID,
		Username:  p.Username,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Role:      p.Role,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor := rbac.ActorFromContext(r.Context())
	// Denied callers get 403 whatever the body holds.
	if err := rbac.Authorize(actor, rbac.ActionCreate, 0); err != nil {
		h.fail(w, r, err)
		return
	}
	var in RegisterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, shared.NewValidationError("body", "invalid JSON payload"))
		return
	}
	created, err := h.service.Register(r.Context(), actor, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, viewOf(created))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principals, err := h.service.List(r.Context(), rbac.ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]principalView, 0, len(principals))
	for _, p := range principals {
		out = append(out, viewOf(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.principalID(w, r)
	if !ok {
		return
	}
	p, err := h.service.Get(r.Context(), rbac.ActorFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(p))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.principalID(w, r)
	if !ok {
		return
	}
	actor := rbac.ActorFromContext(r.Context())
	if err := rbac.Authorize(actor, rbac.ActionUpdate, id); err != nil {
		h.fail(w, r, err)
		return
	}
	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, shared.NewValidationError("body", "invalid JSON payload"))
		return
	}
	p, err := h.service.Update(r.Context(), actor, id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(p))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.principalID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), rbac.ActorFromContext(r.Context()), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.NoContent(w, http.StatusNoContent)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Profile(r.Context(), rbac.ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(p))
}

// principalID parses the {id} path segment. Non-numeric ids cannot match a
// principal and are reported as not found.
func (h *Handler) principalID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.ErrNotFound)
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status := httpx.StatusFor(err); status >= http.StatusInternalServerError {
		h.logger.Error("principal request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	httpx.RespondError(w, err)
}
