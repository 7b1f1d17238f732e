package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/focusnest/goal-service/internal/achievement"
	"github.com/focusnest/goal-service/internal/goal"
	"github.com/focusnest/goal-service/internal/habit"
	"github.com/focusnest/goal-service/pkg/apierror"
)

const (
	serviceTimeout  = 10 * time.Second
	maxPayloadBytes = 1 << 20 // 1MB
)

// Services bundles the domain services exposed over HTTP.
type Services struct {
	Goals        *goal.Service
	Habits       *habit.Service
	Achievements *achievement.Service
}

type handler struct {
	goals        *goal.Service
	habits       *habit.Service
	achievements *achievement.Service
	loc          *time.Location
	logger       *slog.Logger
}

// RegisterRoutes mounts the authenticated /v1 API. loc is the zone in which
// date-only deadlines are interpreted.
func RegisterRoutes(r chi.Router, svc Services, loc *time.Location, logger *slog.Logger) {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{
		goals:        svc.Goals,
		habits:       svc.Habits,
		achievements: svc.Achievements,
		loc:          loc,
		logger:       logger,
	}

	r.Route("/v1/habits", func(r chi.Router) {
		r.Get("/", h.listHabits)
		r.Post("/", h.createHabit)
		r.Get("/{id}", h.getHabit)
		r.Patch("/{id}", h.updateHabit)
		r.Delete("/{id}", h.deleteHabit)
	})

	r.Route("/v1/goals", func(r chi.Router) {
		r.Get("/", h.listGoals)
		r.Post("/", h.createGoal)
		r.Get("/{id}", h.getGoal)
		r.Patch("/{id}", h.updateGoal)
		r.Delete("/{id}", h.deleteGoal)
		r.Get("/{id}/status", h.goalStatus)
		r.Put("/{id}/progress/{date}", h.logProgress)
		r.Delete("/{id}/progress/{date}", h.rollbackProgress)
		r.Post("/{id}/recompute", h.recomputeProgress)
	})

	r.Route("/v1/achievements", func(r chi.Router) {
		r.Get("/", h.getAchievements)
		r.Delete("/history/{entryId}", h.removeCompletion)
	})
}

// respondServiceError maps domain errors onto the API error envelope. Anything
// unrecognised is logged and reported as a 500.
func (h *handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, userID, action string) {
	switch {
	case errors.Is(err, goal.ErrUnauthenticated),
		errors.Is(err, habit.ErrUnauthenticated),
		errors.Is(err, achievement.ErrUnauthenticated):
		writeError(w, r, http.StatusUnauthorized, "missing user ID")
	case errors.Is(err, goal.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "goal not found")
	case errors.Is(err, habit.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "habit not found")
	case errors.Is(err, goal.ErrConflict):
		writeError(w, r, http.StatusConflict, "goal already exists")
	case errors.Is(err, habit.ErrConflict):
		writeError(w, r, http.StatusConflict, "habit already exists")
	case errors.Is(err, goal.ErrInvalidInput), errors.Is(err, habit.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, context.DeadlineExceeded):
		logRequestError(r.Context(), h.logger, action, err, userID)
		writeError(w, r, http.StatusGatewayTimeout, "request timed out")
	default:
		logRequestError(r.Context(), h.logger, action, err, userID)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// validationMessage drops the "invalid input:" prefix from a validation error.
func validationMessage(err error) string {
	msg := strings.TrimSpace(err.Error())
	if i := strings.Index(msg, ":"); i >= 0 {
		msg = strings.TrimSpace(msg[i+1:])
	}
	return msg
}

func headerUserID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-ID"))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

// writeJSON encodes payload before committing the status, so a payload that
// cannot be encoded turns into a logged 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logRequestError(r.Context(), logger, "failed to encode response", err, headerUserID(r))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	writeBody(w, status, body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	body, _ := json.Marshal(apierror.ErrorResponse{
		Code:      errorCode(status),
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
	writeBody(w, status, body)
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return apierror.CodeBadRequest
	case http.StatusUnauthorized:
		return apierror.CodeUnauthorized
	case http.StatusForbidden:
		return apierror.CodeForbidden
	case http.StatusNotFound:
		return apierror.CodeNotFound
	case http.StatusConflict:
		return apierror.CodeConflict
	default:
		return apierror.CodeInternal
	}
}

func logRequestError(ctx context.Context, logger *slog.Logger, message string, err error, userID string) {
	if logger == nil || err == nil {
		return
	}
	attrs := []any{
		slog.String("userId", userID),
		slog.Any("error", err),
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		attrs = append(attrs, slog.String("requestId", reqID))
	}
	logger.ErrorContext(ctx, message, attrs...)
}
