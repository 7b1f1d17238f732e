package httpapi

import (
	"context"
	"net/http"

	"github.com/focusnest/goal-service/internal/habit"
)

type createHabitRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateHabitRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *handler) listHabits(w http.ResponseWriter, r *http.Request) {
	userID := headerUserID(r)
	if userID == "" {
		writeError(w, r, http.StatusUnauthorized, "missing user ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	habits, err := h.habits.List(ctx, userID)
	if err != nil {
		h.respondServiceError(w, r, err, userID, "failed to list habits")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, map[string]any{"items": habits})
}

func (h *handler) createHabit(w http.ResponseWriter, r *http.Request) {
	userID := headerUserID(r)
	if userID == "" {
		writeError(w, r, http.StatusUnauthorized, "missing user ID")
		return
	}

	var req createHabitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	created, err := h.habits.Create(ctx, habit.CreateInput{UserID: userID, Name: req.Name, Description: req.Description})
	if err != nil {
		h.respondServiceError(w, r, err, userID, "failed to create habit")
		return
	}
	writeJSON(w, r, h.logger, http.StatusCreated, created)
}

func (h *handler) getHabit(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	found, err := h.habits.Get(ctx, userID, id)
	if err != nil {
		h.respondServiceError(w, r, err, userID, "failed to get habit")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, found)
}

func (h *handler) updateHabit(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r, "id")
	if !ok {
		return
	}

	var req updateHabitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == nil && req.Description == nil {
		writeError(w, r, http.StatusBadRequest, "no fields to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	updated, err := h.habits.Update(ctx, userID, id, habit.UpdateInput{Name: req.Name, Description: req.Description})
	if err != nil {
		h.respondServiceError(w, r, err, userID, "failed to update habit")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, updated)
}

func (h *handler) deleteHabit(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requireUserAndID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if err := h.habits.Delete(ctx, userID, id); err != nil {
		h.respondServiceError(w, r, err, userID, "failed to delete habit")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
