package habit

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	store map[string]map[string]Habit // userID -> habitID -> Habit
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{store: make(map[string]map[string]Habit)}
}

func (r *memoryRepository) Create(_ context.Context, habit Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	userStore, ok := r.store[habit.UserID]
	if !ok {
		userStore = make(map[string]Habit)
		r.store[habit.UserID] = userStore
	}
	if _, exists := userStore[habit.ID]; exists {
		return ErrConflict
	}
	userStore[habit.ID] = habit
	return nil
}

func (r *memoryRepository) Get(_ context.Context, userID, habitID string) (Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habit, ok := r.store[userID][habitID]
	if !ok {
		return Habit{}, ErrNotFound
	}
	return habit, nil
}

func (r *memoryRepository) List(_ context.Context, userID string) ([]Habit, error) {
	r.mu.RLock()
	habits := make([]Habit, 0, len(r.store[userID]))
	for _, habit := range r.store[userID] {
		habits = append(habits, habit)
	}
	r.mu.RUnlock()

	sortByName(habits)
	return habits, nil
}

func (r *memoryRepository) Update(_ context.Context, userID, habitID string, mutate func(*Habit) error) (Habit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	habit, ok := r.store[userID][habitID]
	if !ok {
		return Habit{}, ErrNotFound
	}
	if err := mutate(&habit); err != nil {
		return Habit{}, err
	}
	habit.ID, habit.UserID = habitID, userID
	r.store[userID][habitID] = habit
	return habit, nil
}

func (r *memoryRepository) Delete(_ context.Context, userID, habitID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[userID][habitID]; !ok {
		return ErrNotFound
	}
	delete(r.store[userID], habitID)
	return nil
}

func (r *memoryRepository) DeleteAll(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.store[userID])
	delete(r.store, userID)
	return n, nil
}

func sortByName(habits []Habit) {
	sort.Slice(habits, func(i, j int) bool {
		if habits[i].Name == habits[j].Name {
			return habits[i].ID < habits[j].ID
		}
		return habits[i].Name < habits[j].Name
	})
}
