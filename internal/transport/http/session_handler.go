package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mindgap-tutor/internal/app"
	"mindgap-tutor/internal/domain"
	"mindgap-tutor/internal/logger"
)

// StatsSource provides the progress dashboard; nil when no backend is configured.
type StatsSource interface {
	Stats(ctx context.Context) (domain.Stats, error)
}

// SessionHandler exposes quiz sessions over a JSON REST API.
type SessionHandler struct {
	service *app.TutorService
	stats   StatsSource
	log     *logger.Logger
}

func NewSessionHandler(service *app.TutorService, stats StatsSource, log *logger.Logger) *SessionHandler {
	return &SessionHandler{service: service, stats: stats, log: log.With("handler", "sessions")}
}

type startRequest struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}

type selectRequest struct {
	Option string `json:"option"`
}

type apiError struct {
	Error string `json:"error"`
}

// POST /api/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errBadJSON)
		return
	}
	started, err := h.service.Start(r.Context(), req.Topic, req.Difficulty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, started)
}

// GET /api/sessions/{id}
func (h *SessionHandler) State(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.State(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GET /api/sessions/{id}/review
func (h *SessionHandler) Review(w http.ResponseWriter, r *http.Request) {
	answers, err := h.service.Review(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

// POST /api/sessions/{id}/select
func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errBadJSON)
		return
	}
	st, err := h.service.Select(r.Context(), chi.URLParam(r, "id"), req.Option)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// POST /api/sessions/{id}/advance
func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Advance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// DELETE /api/sessions/{id}
func (h *SessionHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	h.service.Abandon(r.Context(), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/stats
func (h *SessionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		writeJSON(w, http.StatusServiceUnavailable, apiError{Error: "no backend configured"})
		return
	}
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		h.log.Warn("stats unavailable", "error", err)
		writeJSON(w, http.StatusBadGateway, apiError{Error: "stats unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

var errBadJSON = errors.New("invalid json body")

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrOptionNotFound),
		errors.Is(err, domain.ErrTopicRequired),
		errors.Is(err, domain.ErrInvalidDifficulty),
		errors.Is(err, errBadJSON):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDataContractViolation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *SessionHandler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, apiError{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
