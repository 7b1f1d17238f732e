package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/focusnest/goal-service/internal/daykey"
	"github.com/focusnest/goal-service/internal/goal"
)

type createGoalRequest struct {
	HabitID     string  `json:"habit_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Target      float64 `json:"target"`
	DailyTarget float64 `json:"daily_target"`
	Deadline    string  `json:"deadline"`
}

type updateGoalRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Target      *float64 `json:"target"`
	DailyTarget *float64 `json:"daily_target"`
	Deadline    *string  `json:"deadline"`
}

type logProgressRequest struct {
	Value *float64 `json:"value"`
}

func (h *handler) listGoals(w http.ResponseWriter, r *http.Request) {
	userID := headerUserID(r)
	if userID == "" {
		writeError(w, r, http.StatusUnauthorized, "missing user ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	goals, err := h.goals.List(ctx, userID, goal.ListFilter{HabitID: strings.TrimSpace(r.URL.Query().Get("habit_id"))})
	if err != nil {
		h.respondServiceError(w, r, err, userID, "failed to list goals")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, map[string]any{"items": goals})
}

func (h *handler) createGoal(w http.ResponseWriter, r *http.Request) {
	userID := headerUserID(r)
	if userID == "" {
		writeError(w, r, http.StatusUnauthorized, "missing user ID")
		return
	}

	var req createGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var deadline time.Time
	if strings.TrimSpace(req.Deadline) != "" {
		parsed, err := h.parseDeadline(req.Deadline)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		deadline = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if habitID := strings.TrimSpace(req.HabitID); habitID != "" {
		if _, err := h.habits.Get(ctx, userID, habitID); err != nil {
			h.respondServiceError(w, r, err, userID, "failed to load habit")
			return
		}
	}

	created, err := h.goals.Create(ctx, goal.CreateInput{
		UserID:      userID,
		HabitID:     req.HabitID,
		Name:        req.Name,
		Description: req.Description,
		Target:      req.Target,
		DailyTarget: req.DailyTarget,
		Deadline:    deadline,
	})
	if err != nil {
		h.respondServiceError(w, r, err, userID, "failed to create goal")
		return
	}
	writeJSON(w, r, h.logger, http.StatusCreated, created)
}

func (h *handler) getGoal(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	g, err := h.goals.Get(ctx, userID, id)
	if err != nil {
		h.respondServiceError(w, r, err, userID, "failed to get goal")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, g)
}

func (h *handler) updateGoal(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r, "id")
	if !ok {
		return
	}

	var req updateGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	input := goal.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Target:      req.Target,
		DailyTarget: req.DailyTarget,
	}
	if req.Deadline != nil {
		deadline, err := h.parseDeadline(*req.Deadline)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		input.Deadline = &deadline
	}
	if input.Empty() {
		writeError(w, r, http.StatusBadRequest, "no fields to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	updated, err := h.goals.Update(ctx, userID, id, input)
	if err != nil {
		h.respondServiceError(w, r, err, userID, "failed to update goal")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, updated)
}

func (h *handler) deleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if err := h.goals.Delete(ctx, userID, id); err != nil {
		h.respondServiceError(w, r, err, userID, "failed to delete goal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) goalStatus(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	st, err := h.goals.Status(ctx, userID, id)
	if err != nil {
		h.respondServiceError(w, r, err, userID, "failed to load goal status")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, st)
}

func (h *handler) logProgress(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r, "id")
	if !ok {
		return
	}
	day, ok := h.requireDay(w, r)
	if !ok {
		return
	}

	var req logProgressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Value == nil {
		writeError(w, r, http.StatusBadRequest, "value is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	result, err := h.goals.LogProgress(ctx, userID, id, day, *req.Value)
	if err != nil {
		h.respondServiceError(w, r, err, userID, "failed to log progress")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, result)
}

func (h *handler) rollbackProgress(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r, "id")
	if !ok {
		return
	}
	day, ok := h.requireDay(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	g, err := h.goals.RollbackProgress(ctx, userID, id, day)
	if err != nil {
		h.respondServiceError(w, r, err, userID, "failed to roll back progress")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, g)
}

func (h *handler) recomputeProgress(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	g, changed, err := h.goals.RecomputeProgress(ctx, userID, id)
	if err != nil {
		h.respondServiceError(w, r, err, userID, "failed to recompute progress")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, map[string]any{"goal": g, "changed": changed})
}

func (h *handler) requireDay(w http.ResponseWriter, r *http.Request) (string, bool) {
	day := chi.URLParam(r, "date")
	if _, err := daykey.Parse(day, h.loc); err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be a YYYY-MM-DD day key")
		return "", false
	}
	return day, true
}

// parseDeadline accepts a day key or an RFC 3339 timestamp.
func (h *handler) parseDeadline(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := daykey.Parse(value, h.loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New("deadline must be YYYY-MM-DD or RFC 3339")
}

func requireUserAndID(w http.ResponseWriter, r *http.Request, param string) (string, string, bool) {
	userID := headerUserID(r)
	if userID == "" {
		writeError(w, r, http.StatusUnauthorized, "missing user ID")
		return "", "", false
	}
	id := strings.TrimSpace(chi.URLParam(r, param))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, param+" required")
		return "", "", false
	}
	return userID, id, true
}
