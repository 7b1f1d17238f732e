package httpapi

import (
	"context"
	"net/http"

	"github.com/focusnest/goal-service/internal/achievement"
)

type achievementsResponse struct {
	Stats        achievement.Stats         `json:"stats"`
	Achievements []achievement.CatalogItem `json:"achievements"`
}

func (h *handler) getAchievements(w http.ResponseWriter, r *http.Request) {
	userID := headerUserID(r)
	if userID == "" {
		writeError(w, r, http.StatusUnauthorized, "missing user ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	items, stats, err := h.achievements.Catalog(ctx, userID)
	if err != nil {
		h.respondServiceError(w, r, err, userID, "failed to load achievements")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, achievementsResponse{Stats: stats, Achievements: items})
}

func (h *handler) removeCompletion(w http.ResponseWriter, r *http.Request) {
	userID, entryID, ok := requireUserAndID(w, r, "entryId")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if err := h.goals.UndoCompletion(ctx, userID, entryID); err != nil {
		h.respondServiceError(w, r, err, userID, "failed to remove completion")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
