package httpapi

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/focusnest/goal-service/pkg/events"
)

const internalTokenHeader = "X-Internal-Token"

type eventHandler struct {
	svc    Services
	token  string
	logger *slog.Logger
}

// RegisterInternalRoutes mounts the service-to-service event endpoints,
// guarded by a shared token. Nothing is mounted when token is empty.
func RegisterInternalRoutes(r chi.Router, svc Services, token string, logger *slog.Logger) {
	if token == "" {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := &eventHandler{svc: svc, token: token, logger: logger}
	r.Post("/internal/events/user-deleted", h.userDeleted)
}

func (h *eventHandler) authorized(r *http.Request) bool {
	got := strings.TrimSpace(r.Header.Get(internalTokenHeader))
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}

func (h *eventHandler) userDeleted(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, r, http.StatusUnauthorized, "invalid internal token")
		return
	}

	var evt events.UserDeleted
	if err := decodeJSON(w, r, &evt); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	userID := strings.TrimSpace(evt.UserID)
	if userID == "" {
		writeError(w, r, http.StatusBadRequest, "userId is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	var goalsDeleted, habitsDeleted int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := h.svc.Goals.DeleteAll(gctx, userID)
		if err != nil {
			return fmt.Errorf("delete goals: %w", err)
		}
		goalsDeleted = n
		return nil
	})
	g.Go(func() error {
		n, err := h.svc.Habits.DeleteAll(gctx, userID)
		if err != nil {
			return fmt.Errorf("delete habits: %w", err)
		}
		habitsDeleted = n
		return nil
	})
	g.Go(func() error {
		if err := h.svc.Achievements.Reset(gctx, userID); err != nil {
			return fmt.Errorf("reset achievements: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logRequestError(r.Context(), h.logger, "failed to purge user data", err, userID)
		writeError(w, r, http.StatusInternalServerError, "failed to purge user data")
		return
	}

	h.logger.InfoContext(r.Context(), "user data purged",
		slog.String("topic", events.TopicUserEvents),
		slog.String("event", events.TypeUserDeleted),
		slog.String("userId", userID),
		slog.Int("goalsDeleted", goalsDeleted),
		slog.Int("habitsDeleted", habitsDeleted),
	)
	writeJSON(w, r, h.logger, http.StatusOK, map[string]any{
		"goals_deleted":  goalsDeleted,
		"habits_deleted": habitsDeleted,
	})
}
