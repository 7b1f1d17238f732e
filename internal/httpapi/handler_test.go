package httpapi

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusnest/goal-service/internal/achievement"
	"github.com/focusnest/goal-service/internal/goal"
	"github.com/focusnest/goal-service/internal/habit"
	"github.com/focusnest/goal-service/pkg/apierror"
	"github.com/focusnest/goal-service/pkg/auth"
)

const internalToken = "s3cret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	clock := goal.NewSystemClock()
	ids := goal.NewUUIDGenerator()

	achievements, err := achievement.NewService(achievement.NewMemoryRepository(), clock, ids, nil)
	require.NoError(t, err)
	goals, err := goal.NewService(goal.NewMemoryRepository(), achievements, clock, ids)
	require.NoError(t, err)
	habits, err := habit.NewService(habit.NewMemoryRepository(), goals, clock, ids, nil)
	require.NoError(t, err)

	verifier, err := auth.NewVerifier(auth.Config{Mode: auth.ModeNoop})
	require.NoError(t, err)

	svc := Services{Goals: goals, Habits: habits, Achievements: achievements}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	RegisterInternalRoutes(r, svc, internalToken, nil)
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier))
		RegisterRoutes(r, svc, time.UTC, nil)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createHabit(t *testing.T, h http.Handler, userID, name string) habit.Habit {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/habits", userID, map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[habit.Habit](t, rec)
}

func createGoal(t *testing.T, h http.Handler, userID, habitID string, target, daily float64) goal.Goal {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/goals", userID, map[string]any{
		"habit_id":     habitID,
		"name":         "Run 5km",
		"target":       target,
		"daily_target": daily,
		"deadline":     "2024-12-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[goal.Goal](t, rec)
}

func TestRoutes_RequireAuthentication(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/v1/goals", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGoalLifecycle(t *testing.T) {
	h := newTestRouter(t)
	hb := createHabit(t, h, "u1", "Running")
	g := createGoal(t, h, "u1", hb.ID, 10, 5)
	assert.Equal(t, hb.ID, g.HabitID)
	assert.Equal(t, "2024-12-31", g.Deadline.Format("2006-01-02"))

	rec := do(t, h, http.MethodPut, "/v1/goals/"+g.ID+"/progress/2024-03-01", "u1", map[string]any{"value": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[goal.ProgressResult](t, rec)
	assert.Nil(t, first.Completion)
	assert.Equal(t, 100, first.Entry.Percentage)

	rec = do(t, h, http.MethodPut, "/v1/goals/"+g.ID+"/progress/2024-03-02", "u1", map[string]any{"value": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := decode[goal.ProgressResult](t, rec)
	require.NotNil(t, second.Completion)
	assert.True(t, second.Completion.IsPerfect)
	assert.True(t, second.Completion.NewUnlock)
	assert.Len(t, second.Completion.UnlockedAchievements, 2)

	rec = do(t, h, http.MethodGet, "/v1/goals/"+g.ID+"/status", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[goal.Status](t, rec)
	assert.True(t, st.Complete)
	assert.True(t, st.Perfect)
	assert.Equal(t, 2, st.CompletedDays)

	rec = do(t, h, http.MethodGet, "/v1/achievements", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ach := decode[achievementsResponse](t, rec)
	assert.Equal(t, 1, ach.Stats.TotalGoalsCompleted)
	assert.Equal(t, []string{"goal_1", "perfect_1"}, ach.Stats.UnlockedMedals)
	require.Len(t, ach.Stats.History, 1)
	assert.Equal(t, second.Completion.EntryID, ach.Stats.History[0].ID)

	rec = do(t, h, http.MethodDelete, "/v1/achievements/history/"+second.Completion.EntryID, "u1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/v1/goals/"+g.ID, "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reopened := decode[goal.Goal](t, rec)
	assert.Nil(t, reopened.CompletedAt)
	assert.Equal(t, 10.0, reopened.ProgressTotal)

	rec = do(t, h, http.MethodGet, "/v1/achievements", "u1", nil)
	ach = decode[achievementsResponse](t, rec)
	assert.Zero(t, ach.Stats.TotalGoalsCompleted)
	assert.Empty(t, ach.Stats.UnlockedMedals)

	rec = do(t, h, http.MethodDelete, "/v1/goals/"+g.ID+"/progress/2024-03-02", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rolled := decode[goal.Goal](t, rec)
	assert.Equal(t, 5.0, rolled.ProgressTotal)
	assert.Equal(t, []string{"2024-03-01"}, rolled.Progress)
}

func TestLogProgress_Validation(t *testing.T) {
	h := newTestRouter(t)
	hb := createHabit(t, h, "u1", "Running")
	g := createGoal(t, h, "u1", hb.ID, 10, 5)

	tests := []struct {
		name string
		path string
		body any
	}{
		{"bad date", "/v1/goals/" + g.ID + "/progress/2024-3-1", map[string]any{"value": 1}},
		{"impossible date", "/v1/goals/" + g.ID + "/progress/2024-02-30", map[string]any{"value": 1}},
		{"missing value", "/v1/goals/" + g.ID + "/progress/2024-03-01", map[string]any{}},
		{"negative value", "/v1/goals/" + g.ID + "/progress/2024-03-01", map[string]any{"value": -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPut, tt.path, "u1", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			body := decode[apierror.ErrorResponse](t, rec)
			assert.Equal(t, apierror.CodeBadRequest, body.Code)
			assert.Equal(t, rec.Code, apierror.ToStatusCode(body.Code))
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestLogProgress_UnknownGoal(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPut, "/v1/goals/nope/progress/2024-03-01", "u1", map[string]any{"value": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierror.CodeNotFound, decode[apierror.ErrorResponse](t, rec).Code)
}

func TestCreateGoal_Validation(t *testing.T) {
	h := newTestRouter(t)
	hb := createHabit(t, h, "u1", "Running")

	rec := do(t, h, http.MethodPost, "/v1/goals", "u1", map[string]any{
		"habit_id": "missing", "name": "x", "target": 1, "deadline": "2024-12-31",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/goals", "u1", map[string]any{
		"habit_id": hb.ID, "name": "x", "target": 0, "deadline": "2024-12-31",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[apierror.ErrorResponse](t, rec).Message, "target must be")

	rec = do(t, h, http.MethodPost, "/v1/goals", "u1", map[string]any{
		"habit_id": hb.ID, "name": "x", "target": 1, "deadline": "tomorrow",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGoals_AreScopedPerUser(t *testing.T) {
	h := newTestRouter(t)
	hb := createHabit(t, h, "u1", "Running")
	g := createGoal(t, h, "u1", hb.ID, 10, 5)

	rec := do(t, h, http.MethodGet, "/v1/goals/"+g.ID, "u2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/goals", "u2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Items []goal.Goal `json:"items"`
	}](t, rec)
	assert.Empty(t, list.Items)
}

func TestUpdateGoal(t *testing.T) {
	h := newTestRouter(t)
	hb := createHabit(t, h, "u1", "Running")
	g := createGoal(t, h, "u1", hb.ID, 10, 5)

	rec := do(t, h, http.MethodPatch, "/v1/goals/"+g.ID, "u1", map[string]any{"name": "Run more", "deadline": "2025-01-31"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[goal.Goal](t, rec)
	assert.Equal(t, "Run more", updated.Name)
	assert.Equal(t, "2025-01-31", updated.Deadline.Format("2006-01-02"))

	rec = do(t, h, http.MethodPatch, "/v1/goals/"+g.ID, "u1", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteHabit_CascadesToGoals(t *testing.T) {
	h := newTestRouter(t)
	running := createHabit(t, h, "u1", "Running")
	reading := createHabit(t, h, "u1", "Reading")
	createGoal(t, h, "u1", running.ID, 10, 5)
	createGoal(t, h, "u1", running.ID, 20, 5)
	kept := createGoal(t, h, "u1", reading.ID, 5, 1)

	rec := do(t, h, http.MethodDelete, "/v1/habits/"+running.ID, "u1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/v1/goals", "u1", nil)
	list := decode[struct {
		Items []goal.Goal `json:"items"`
	}](t, rec)
	require.Len(t, list.Items, 1)
	assert.Equal(t, kept.ID, list.Items[0].ID)

	rec = do(t, h, http.MethodGet, "/v1/habits/"+running.ID, "u1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecompute(t *testing.T) {
	h := newTestRouter(t)
	hb := createHabit(t, h, "u1", "Running")
	g := createGoal(t, h, "u1", hb.ID, 10, 5)

	rec := do(t, h, http.MethodPost, "/v1/goals/"+g.ID+"/recompute", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Changed bool `json:"changed"`
	}](t, rec)
	assert.False(t, body.Changed)
}

func TestUserDeletedEvent(t *testing.T) {
	h := newTestRouter(t)
	hb := createHabit(t, h, "u1", "Running")
	g := createGoal(t, h, "u1", hb.ID, 5, 5)
	rec := do(t, h, http.MethodPut, "/v1/goals/"+g.ID+"/progress/2024-03-01", "u1", map[string]any{"value": 5})
	require.Equal(t, http.StatusOK, rec.Code)

	post := func(token string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
		req := httptest.NewRequest(http.MethodPost, "/internal/events/user-deleted", &buf)
		if token != "" {
			req.Header.Set(internalTokenHeader, token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, post("wrong", map[string]any{"userId": "u1"}).Code)
	assert.Equal(t, http.StatusBadRequest, post(internalToken, map[string]any{}).Code)

	rec = post(internalToken, map[string]any{"userId": "u1", "deletedAt": time.Now()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	counts := decode[map[string]int](t, rec)
	assert.Equal(t, 1, counts["goals_deleted"])
	assert.Equal(t, 1, counts["habits_deleted"])

	rec = do(t, h, http.MethodGet, "/v1/achievements", "u1", nil)
	ach := decode[achievementsResponse](t, rec)
	assert.Zero(t, ach.Stats.TotalGoalsCompleted)

	rec = do(t, h, http.MethodGet, "/v1/habits", "u1", nil)
	habits := decode[struct {
		Items []habit.Habit `json:"items"`
	}](t, rec)
	assert.Empty(t, habits.Items)
}

func TestLogProgress_RejectsValueThatOverflowsTotal(t *testing.T) {
	h := newTestRouter(t)
	hb := createHabit(t, h, "u1", "Running")
	g := createGoal(t, h, "u1", hb.ID, 10, 5)

	rec := do(t, h, http.MethodPut, "/v1/goals/"+g.ID+"/progress/2024-03-01", "u1", map[string]any{"value": 1e308})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/v1/goals/"+g.ID+"/progress/2024-03-02", "u1", map[string]any{"value": 1e308})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/goals/"+g.ID, "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stored := decode[goal.Goal](t, rec)
	assert.Equal(t, 1e308, stored.ProgressTotal)
}

func TestWriteJSON_UnencodablePayloadIsLoggedAsInternalError(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/goals/g1", nil)
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	writeJSON(rec, req, logger, http.StatusOK, map[string]float64{"progress_total": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[apierror.ErrorResponse](t, rec)
	assert.Equal(t, apierror.CodeInternal, body.Code)
	assert.Contains(t, logs.String(), "failed to encode response")
	assert.Contains(t, logs.String(), `"userId":"u1"`)
}
