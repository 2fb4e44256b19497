package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"empresaflow/internal/authz"
	"empresaflow/internal/platform/middleware"
	"empresaflow/internal/wizard/models"
	"empresaflow/internal/wizard/service"
	dErrors "empresaflow/pkg/domain-errors"
	"empresaflow/pkg/platform/httputil"
	"empresaflow/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// maxSectionBytes bounds one section patch.
const maxSectionBytes = 1 << 20

// Service defines the wizard operations the handler exposes.
type Service interface {
	State(ctx context.Context, owner string) service.Session
	UpdateSection(ctx context.Context, owner string, topic models.Topic, partial models.Section) (service.Session, error)
	Navigate(ctx context.Context, owner string, nav service.Navigation) (service.Session, error)
	Discard(ctx context.Context, owner string) error
	Submit(ctx context.Context, owner string) (service.Result, error)
}

// Handler serves the company registration wizard.
type Handler struct {
	wizard Service
	logger *slog.Logger
}

func New(wizard Service, logger *slog.Logger) *Handler {
	return &Handler{wizard: wizard, logger: logger}
}

// Register mounts the wizard routes. Callers must have installed
// middleware.RequireAuth on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/wizard/empresa", func(r chi.Router) {
		r.Use(middleware.RequirePermission(authz.PermCreateCompany, h.logger))
		r.Get("/", h.handleGetState)
		r.Delete("/", h.handleDiscard)
		r.Patch("/sections/{topic}", h.handleUpdateSection)
		r.Post("/navigation", h.handleNavigate)
		r.Post("/submit", h.handleSubmit)
	})
}

func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.wizard.State(r.Context(), owner))
}

func (h *Handler) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	topic, err := models.ParseTopic(chi.URLParam(r, "topic"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxSectionBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	partial, err := models.ParsePartial(topic, raw)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid section patch",
			"topic", string(topic),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	sess, err := h.wizard.UpdateSection(ctx, owner, topic, partial)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleNavigate(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var nav service.Navigation
	if err := json.NewDecoder(r.Body).Decode(&nav); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	sess, err := h.wizard.Navigate(r.Context(), owner, nav)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := h.wizard.Discard(r.Context(), owner); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	res, err := h.wizard.Submit(r.Context(), owner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

// owner is the authenticated user whose draft slot the request works on.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return "", false
	}
	return userID, true
}
