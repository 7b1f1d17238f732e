package habit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Service orchestrates the domain operations for habits.
type Service struct {
	repo   Repository
	goals  GoalRemover
	clock  Clock
	ids    IDGenerator
	logger *slog.Logger
}

// NewService constructs a Service instance with the provided collaborators.
func NewService(repo Repository, goals GoalRemover, clock Clock, ids IDGenerator, logger *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	if goals == nil {
		return nil, errors.New("goal remover is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if ids == nil {
		return nil, errors.New("id generator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, goals: goals, clock: clock, ids: ids, logger: logger}, nil
}

// Create registers a new habit for the given user.
func (s *Service) Create(ctx context.Context, input CreateInput) (Habit, error) {
	if input.UserID == "" {
		return Habit{}, ErrUnauthenticated
	}
	if err := input.Validate(); err != nil {
		return Habit{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	now := s.clock.Now().UTC()
	habit := Habit{
		ID:          s.ids.NewID(),
		UserID:      input.UserID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, habit); err != nil {
		return Habit{}, err
	}
	return habit, nil
}

// Get retrieves a single habit.
func (s *Service) Get(ctx context.Context, userID, habitID string) (Habit, error) {
	if userID == "" {
		return Habit{}, ErrUnauthenticated
	}
	if habitID == "" {
		return Habit{}, ErrNotFound
	}
	return s.repo.Get(ctx, userID, habitID)
}

// List returns the user's habits ordered by name.
func (s *Service) List(ctx context.Context, userID string) ([]Habit, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	return s.repo.List(ctx, userID)
}

// Update renames or re-describes a habit.
func (s *Service) Update(ctx context.Context, userID, habitID string, input UpdateInput) (Habit, error) {
	if userID == "" {
		return Habit{}, ErrUnauthenticated
	}
	if habitID == "" {
		return Habit{}, ErrNotFound
	}
	if input.Name != nil {
		if problems := validateName(*input.Name); len(problems) > 0 {
			return Habit{}, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
		}
	}

	now := s.clock.Now().UTC()
	return s.repo.Update(ctx, userID, habitID, func(h *Habit) error {
		if input.Name != nil {
			h.Name = strings.TrimSpace(*input.Name)
		}
		if input.Description != nil {
			h.Description = strings.TrimSpace(*input.Description)
		}
		h.UpdatedAt = now
		return nil
	})
}

// Delete removes the habit together with every goal attached to it. Goals go
// first so a failed call can simply be retried.
func (s *Service) Delete(ctx context.Context, userID, habitID string) error {
	if _, err := s.Get(ctx, userID, habitID); err != nil {
		return err
	}

	removed, err := s.goals.DeleteByHabit(ctx, userID, habitID)
	if err != nil {
		return fmt.Errorf("delete goals of habit %s: %w", habitID, err)
	}
	if err := s.repo.Delete(ctx, userID, habitID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "habit deleted", "userId", userID, "habitId", habitID, "goalsDeleted", removed)
	return nil
}

// DeleteAll removes every habit of the user. Goals are not touched.
func (s *Service) DeleteAll(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, ErrUnauthenticated
	}
	return s.repo.DeleteAll(ctx, userID)
}
