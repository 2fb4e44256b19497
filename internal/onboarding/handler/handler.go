package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"empresaflow/internal/audit"
	"empresaflow/internal/authz"
	"empresaflow/internal/empresa/models"
	"empresaflow/internal/onboarding/service"
	"empresaflow/internal/platform/middleware"
	dErrors "empresaflow/pkg/domain-errors"
	"empresaflow/pkg/platform/httputil"
	platformstrings "empresaflow/pkg/platform/strings"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// Service defines the onboarding operations the handler exposes.
type Service interface {
	Company(ctx context.Context, empKey int64) (models.CompanyDetail, error)
	Queue(ctx context.Context, q service.QueueQuery) ([]models.QueueEntry, error)
	Transition(ctx context.Context, empKey int64, next models.OnboardingStatus) (models.Onboarding, error)
	History(ctx context.Context, empKey int64) ([]audit.Event, error)
}

type Handler struct {
	onboarding Service
	logger     *slog.Logger
}

func New(onboarding Service, logger *slog.Logger) *Handler {
	return &Handler{onboarding: onboarding, logger: logger}
}

// Register mounts the company and onboarding routes. Callers must have
// installed middleware.RequireAuth on r.
func (h *Handler) Register(r chi.Router) {
	r.With(middleware.RequirePermission(authz.PermViewCompany, h.logger)).
		Get("/empresas/{empkey}", h.handleCompany)
	r.With(middleware.RequirePermission(authz.PermViewHistory, h.logger)).
		Get("/empresas/{empkey}/history", h.handleHistory)
	r.With(middleware.RequirePermission(authz.PermViewOnboarding, h.logger)).
		Get("/onboarding", h.handleQueue)
	r.With(middleware.RequirePermission(authz.PermConfigureOnboarding, h.logger)).
		Post("/onboarding/{empkey}/status", h.handleTransition)
}

type transitionRequest struct {
	Status string `json:"estado"`
}

type queueResponse struct {
	Items []models.QueueEntry `json:"items"`
}

type historyResponse struct {
	Items []audit.Event `json:"items"`
}

func (h *Handler) handleCompany(w http.ResponseWriter, r *http.Request) {
	empKey, err := parseEmpKey(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	detail, err := h.onboarding.Company(r.Context(), empKey)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	empKey, err := parseEmpKey(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.onboarding.History(r.Context(), empKey)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, historyResponse{Items: events})
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	q, err := parseQueueQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.onboarding.Queue(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []models.QueueEntry{}
	}
	httputil.WriteJSON(w, http.StatusOK, queueResponse{Items: entries})
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	empKey, err := parseEmpKey(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	next, err := models.ParseOnboardingStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	o, err := h.onboarding.Transition(r.Context(), empKey, next)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

func parseEmpKey(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "empkey")
	key, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || key <= 0 {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "invalid empkey %q", raw)
	}
	return key, nil
}

// parseQueueQuery reads ?status=a,b (repeatable), ?q= and ?limit=.
func parseQueueQuery(r *http.Request) (service.QueueQuery, error) {
	values := r.URL.Query()
	q := service.QueueQuery{Search: values.Get("q")}
	for _, part := range platformstrings.SplitList(values["status"]) {
		st, err := models.ParseOnboardingStatus(part)
		if err != nil {
			return service.QueueQuery{}, err
		}
		q.Statuses = append(q.Statuses, st)
	}
	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return service.QueueQuery{}, dErrors.Newf(dErrors.CodeBadRequest, "invalid limit %q", raw)
		}
		q.Limit = limit
	}
	return q, nil
}
