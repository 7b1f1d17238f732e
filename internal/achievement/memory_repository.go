package achievement

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu    sync.Mutex
	store map[string]Stats
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{store: make(map[string]Stats)}
}

func (r *memoryRepository) Get(_ context.Context, userID string) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(userID), nil
}

func (r *memoryRepository) Update(_ context.Context, userID string, mutate func(*Stats) error) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := r.load(userID)
	if err := mutate(&stats); err != nil {
		if errors.Is(err, errUnchanged) {
			return r.load(userID), nil
		}
		return Stats{}, err
	}

	stats.UserID = userID
	r.store[userID] = stats.clone()
	return stats, nil
}

func (r *memoryRepository) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.store, userID)
	return nil
}

func (r *memoryRepository) load(userID string) Stats {
	stats, ok := r.store[userID]
	if !ok {
		return emptyStats(userID)
	}
	return stats.clone()
}
