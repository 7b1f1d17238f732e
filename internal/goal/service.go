package goal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/focusnest/goal-service/internal/achievement"
	"github.com/focusnest/goal-service/internal/daykey"
	"github.com/focusnest/goal-service/internal/metrics"
)

// Service orchestrates the domain operations for goals and their daily progress.
type Service struct {
	repo   Repository
	ledger Ledger
	clock  Clock
	ids    IDGenerator
	loc    *time.Location
	logger *slog.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithLocation sets the time zone used to derive today's day key.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the logger used for background failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a Service instance with the provided collaborators.
func NewService(repo Repository, ledger Ledger, clock Clock, ids IDGenerator, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	if ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if ids == nil {
		return nil, errors.New("id generator is required")
	}

	s := &Service{
		repo:   repo,
		ledger: ledger,
		clock:  clock,
		ids:    ids,
		loc:    time.UTC,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ProgressResult is the outcome of logging a day's progress.
type ProgressResult struct {
	Goal       Goal               `json:"goal"`
	Entry      DailyProgressEntry `json:"entry"`
	Completion *Completion        `json:"completion,omitempty"`
}

// Completion is reported the first time a goal reaches its target.
type Completion struct {
	EntryID              string                    `json:"entry_id"`
	IsPerfect            bool                      `json:"is_perfect"`
	NewUnlock            bool                      `json:"new_unlock"`
	UnlockedAchievements []achievement.Achievement `json:"unlocked_achievements"`
}

// Status summarises a goal's completion state.
type Status struct {
	GoalID        string              `json:"goal_id"`
	Complete      bool                `json:"complete"`
	Perfect       bool                `json:"perfect"`
	ProgressTotal float64             `json:"progress_total"`
	Target        float64             `json:"target"`
	Percentage    int                 `json:"percentage"`
	LoggedDays    int                 `json:"logged_days"`
	CompletedDays int                 `json:"completed_days"`
	ExpectedDays  int                 `json:"expected_days"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
	Today         string              `json:"today"`
	TodayEntry    *DailyProgressEntry `json:"today_entry,omitempty"`
}

// Create registers a new goal for the given user.
func (s *Service) Create(ctx context.Context, input CreateInput) (Goal, error) {
	if input.UserID == "" {
		return Goal{}, ErrUnauthenticated
	}
	if err := input.Validate(); err != nil {
		return Goal{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	now := s.clock.Now().UTC()
	goal := Goal{
		ID:            s.ids.NewID(),
		UserID:        input.UserID,
		HabitID:       strings.TrimSpace(input.HabitID),
		Name:          strings.TrimSpace(input.Name),
		Description:   strings.TrimSpace(input.Description),
		Target:        input.Target,
		DailyTarget:   input.DailyTarget,
		Deadline:      input.Deadline.UTC(),
		Progress:      []string{},
		DailyProgress: make(map[string]DailyProgressEntry),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, goal); err != nil {
		return Goal{}, err
	}
	return goal, nil
}

// Get retrieves a single goal by its ID for the provided user.
func (s *Service) Get(ctx context.Context, userID, goalID string) (Goal, error) {
	if userID == "" {
		return Goal{}, ErrUnauthenticated
	}
	if goalID == "" {
		return Goal{}, ErrNotFound
	}
	return s.repo.Get(ctx, userID, goalID)
}

// List returns the user's goals, newest first.
func (s *Service) List(ctx context.Context, userID string, filter ListFilter) ([]Goal, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	return s.repo.List(ctx, userID, filter)
}

// Update applies a partial update to the goal's descriptive fields and targets.
func (s *Service) Update(ctx context.Context, userID, goalID string, input UpdateInput) (Goal, error) {
	if userID == "" {
		return Goal{}, ErrUnauthenticated
	}
	if goalID == "" {
		return Goal{}, ErrNotFound
	}
	if input.Empty() {
		return s.repo.Get(ctx, userID, goalID)
	}

	now := s.clock.Now().UTC()
	return s.repo.Update(ctx, userID, goalID, func(g *Goal) error {
		if err := input.validate(*g); err != nil {
			return err
		}
		if input.Name != nil {
			g.Name = strings.TrimSpace(*input.Name)
		}
		if input.Description != nil {
			g.Description = strings.TrimSpace(*input.Description)
		}
		if input.Target != nil {
			g.Target = *input.Target
		}
		if input.DailyTarget != nil {
			g.DailyTarget = *input.DailyTarget
		}
		if input.Deadline != nil {
			g.Deadline = input.Deadline.UTC()
		}
		g.UpdatedAt = now
		return nil
	})
}

// Delete removes a goal. Its completion history, if any, is kept.
func (s *Service) Delete(ctx context.Context, userID, goalID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	if goalID == "" {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, userID, goalID)
}

// DeleteByHabit removes every goal attached to the habit and reports how many were deleted.
func (s *Service) DeleteByHabit(ctx context.Context, userID, habitID string) (int, error) {
	if userID == "" {
		return 0, ErrUnauthenticated
	}
	if habitID == "" {
		return 0, nil
	}
	return s.repo.DeleteByHabit(ctx, userID, habitID)
}

// DeleteAll removes every goal of the user.
func (s *Service) DeleteAll(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, ErrUnauthenticated
	}
	return s.repo.DeleteAll(ctx, userID)
}

// LogProgress records the value for one day. When the update brings the goal
// to its target for the first time, the completion is recorded in the ledger
// and the unlocked badges are returned alongside the goal.
func (s *Service) LogProgress(ctx context.Context, userID, goalID, day string, value float64) (ProgressResult, error) {
	if userID == "" {
		return ProgressResult{}, ErrUnauthenticated
	}
	if goalID == "" {
		return ProgressResult{}, ErrNotFound
	}

	now := s.clock.Now().UTC()
	entryID := s.ids.NewID()

	var (
		entry      DailyProgressEntry
		completion *achievement.CompletionInput
	)
	goal, err := s.repo.Update(ctx, userID, goalID, func(g *Goal) error {
		completion = nil

		recorded, err := g.RecordDailyProgress(day, value)
		if err != nil {
			return err
		}
		entry = recorded
		g.UpdatedAt = now

		if g.needsCompletion() {
			id := g.CompletionEntryID
			if id == "" {
				id = entryID
			}
			completion = &achievement.CompletionInput{
				EntryID:   id,
				GoalID:    g.ID,
				GoalName:  g.Name,
				IsPerfect: g.EvaluatePerfection(),
			}
			g.markCompleted(now, id)
		}
		return nil
	})
	if err != nil {
		return ProgressResult{}, err
	}
	metrics.ProgressLogged()

	result := ProgressResult{Goal: goal, Entry: entry}
	if completion == nil {
		return result, nil
	}

	unlock, err := s.ledger.RecordCompletion(ctx, userID, *completion)
	if err != nil {
		s.reopen(ctx, userID, goalID, completion.EntryID)
		return ProgressResult{}, fmt.Errorf("record completion: %w", err)
	}
	metrics.GoalCompleted(completion.IsPerfect)

	result.Completion = &Completion{
		EntryID:              completion.EntryID,
		IsPerfect:            completion.IsPerfect,
		NewUnlock:            unlock.NewUnlock,
		UnlockedAchievements: unlock.UnlockedAchievements,
	}
	return result, nil
}

// RollbackProgress removes the day's entry. Days without an entry are left alone.
func (s *Service) RollbackProgress(ctx context.Context, userID, goalID, day string) (Goal, error) {
	if userID == "" {
		return Goal{}, ErrUnauthenticated
	}
	if goalID == "" {
		return Goal{}, ErrNotFound
	}

	now := s.clock.Now().UTC()
	return s.repo.Update(ctx, userID, goalID, func(g *Goal) error {
		if _, ok := g.RollbackDailyProgress(day); !ok {
			return errUnchanged
		}
		g.UpdatedAt = now
		return nil
	})
}

// Status reports whether the goal is complete, whether it qualifies as
// perfect and what was logged for today.
func (s *Service) Status(ctx context.Context, userID, goalID string) (Status, error) {
	goal, err := s.Get(ctx, userID, goalID)
	if err != nil {
		return Status{}, err
	}

	today := daykey.Today(s.clock.Now(), s.loc)
	st := Status{
		GoalID:        goal.ID,
		Complete:      goal.IsComplete(),
		ProgressTotal: goal.ProgressTotal,
		Target:        goal.Target,
		Percentage:    goal.Percentage(),
		LoggedDays:    len(goal.DailyProgress),
		CompletedDays: len(goal.Progress),
		ExpectedDays:  goal.ExpectedDays(),
		CompletedAt:   goal.CompletedAt,
		Today:         today,
	}
	if st.Complete {
		st.Perfect = goal.EvaluatePerfection()
	}
	if e, ok := goal.DailyProgress[today]; ok {
		st.TodayEntry = &e
	}
	return st, nil
}

// RecomputeProgress rebuilds the running total and completed-day set of a goal
// from its daily entries. It reports whether the stored values had drifted.
func (s *Service) RecomputeProgress(ctx context.Context, userID, goalID string) (Goal, bool, error) {
	if userID == "" {
		return Goal{}, false, ErrUnauthenticated
	}
	if goalID == "" {
		return Goal{}, false, ErrNotFound
	}

	now := s.clock.Now().UTC()
	var changed bool
	goal, err := s.repo.Update(ctx, userID, goalID, func(g *Goal) error {
		var err error
		changed, err = g.RecomputeProgress()
		if err != nil {
			return err
		}
		if !changed {
			return errUnchanged
		}
		g.UpdatedAt = now
		return nil
	})
	if err != nil {
		return Goal{}, false, err
	}
	if changed {
		s.logger.InfoContext(ctx, "goal progress recomputed", "userId", userID, "goalId", goalID, "total", goal.ProgressTotal)
	}
	return goal, changed, nil
}

// UndoCompletion removes a completion from the user's history and reopens the
// goal it belonged to, so the next progress update can complete it again.
func (s *Service) UndoCompletion(ctx context.Context, userID, entryID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}

	entry, removed, err := s.ledger.RemoveCompletion(ctx, userID, entryID)
	if err != nil {
		return err
	}
	if !removed || entry.GoalID == "" {
		return nil
	}

	now := s.clock.Now().UTC()
	_, err = s.repo.Update(ctx, userID, entry.GoalID, func(g *Goal) error {
		if g.CompletionEntryID != entryID {
			return errUnchanged
		}
		g.clearCompletion()
		g.UpdatedAt = now
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// reopen clears the completion marker after the ledger write failed. The
// write may still have committed, so the entry id stays on the goal and the
// retry records under it again.
func (s *Service) reopen(ctx context.Context, userID, goalID, entryID string) {
	_, err := s.repo.Update(ctx, userID, goalID, func(g *Goal) error {
		if g.CompletionEntryID != entryID || g.CompletedAt == nil {
			return errUnchanged
		}
		g.reopen()
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to reopen goal after ledger error", "userId", userID, "goalId", goalID, "error", err)
	}
}
