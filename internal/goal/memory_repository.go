package goal

import (
	"context"
	"errors"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	store map[string]map[string]Goal // userID -> goalID -> Goal
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		store: make(map[string]map[string]Goal),
	}
}

func (r *memoryRepository) Create(_ context.Context, goal Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	userStore, ok := r.store[goal.UserID]
	if !ok {
		userStore = make(map[string]Goal)
		r.store[goal.UserID] = userStore
	}

	if _, exists := userStore[goal.ID]; exists {
		return ErrConflict
	}

	userStore[goal.ID] = goal.clone()
	return nil
}

func (r *memoryRepository) Get(_ context.Context, userID, goalID string) (Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	goal, ok := r.store[userID][goalID]
	if !ok {
		return Goal{}, ErrNotFound
	}
	return goal.clone(), nil
}

func (r *memoryRepository) List(_ context.Context, userID string, filter ListFilter) ([]Goal, error) {
	r.mu.RLock()
	goals := make([]Goal, 0, len(r.store[userID]))
	for _, goal := range r.store[userID] {
		if filter.HabitID != "" && goal.HabitID != filter.HabitID {
			continue
		}
		goals = append(goals, goal.clone())
	}
	r.mu.RUnlock()

	sortNewestFirst(goals)
	return goals, nil
}

func (r *memoryRepository) Update(_ context.Context, userID, goalID string, mutate func(*Goal) error) (Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.store[userID][goalID]
	if !ok {
		return Goal{}, ErrNotFound
	}

	goal := current.clone()
	if err := mutate(&goal); err != nil {
		if errors.Is(err, errUnchanged) {
			return current.clone(), nil
		}
		return Goal{}, err
	}

	goal.ID, goal.UserID = goalID, userID
	r.store[userID][goalID] = goal.clone()
	return goal, nil
}

func (r *memoryRepository) Delete(_ context.Context, userID, goalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[userID][goalID]; !ok {
		return ErrNotFound
	}
	delete(r.store[userID], goalID)
	return nil
}

func (r *memoryRepository) DeleteByHabit(_ context.Context, userID, habitID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for id, goal := range r.store[userID] {
		if goal.HabitID == habitID {
			delete(r.store[userID], id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memoryRepository) DeleteAll(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := len(r.store[userID])
	delete(r.store, userID)
	return deleted, nil
}

func sortNewestFirst(goals []Goal) {
	sort.Slice(goals, func(i, j int) bool {
		if goals[i].CreatedAt.Equal(goals[j].CreatedAt) {
			return goals[i].ID > goals[j].ID
		}
		return goals[i].CreatedAt.After(goals[j].CreatedAt)
	})
}
