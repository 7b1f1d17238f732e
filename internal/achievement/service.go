package achievement

import (
	"context"
	"errors"
	"log/slog"

	"github.com/focusnest/goal-service/internal/metrics"
)

// Service orchestrates reads and mutations of the achievement ledger.
type Service struct {
	repo   Repository
	clock  Clock
	ids    IDGenerator
	logger *slog.Logger
}

// NewService constructs a Service instance with the provided collaborators.
func NewService(repo Repository, clock Clock, ids IDGenerator, logger *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
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
	return &Service{repo: repo, clock: clock, ids: ids, logger: logger}, nil
}

// GetStats returns the user's stats, empty when nothing was recorded yet.
func (s *Service) GetStats(ctx context.Context, userID string) (Stats, error) {
	if userID == "" {
		return Stats{}, ErrUnauthenticated
	}
	return s.repo.Get(ctx, userID)
}

// Catalog returns every badge with the user's unlock state, along with the stats it was derived from.
func (s *Service) Catalog(ctx context.Context, userID string) ([]CatalogItem, Stats, error) {
	stats, err := s.GetStats(ctx, userID)
	if err != nil {
		return nil, Stats{}, err
	}

	all := Catalog()
	items := make([]CatalogItem, 0, len(all))
	for _, a := range all {
		items = append(items, CatalogItem{Achievement: a, Unlocked: stats.HasMedal(a.ID)})
	}
	return items, stats, nil
}

// RecordCompletion appends a completion to the user's history and unlocks any
// milestone badges it reaches. Recording an entry id that is already present
// is a no-op.
func (s *Service) RecordCompletion(ctx context.Context, userID string, in CompletionInput) (UnlockResult, error) {
	if userID == "" {
		return UnlockResult{}, ErrUnauthenticated
	}

	entry := CompletedGoalEntry{
		ID:          in.EntryID,
		GoalID:      in.GoalID,
		Name:        in.GoalName,
		CompletedAt: s.clock.Now().UTC(),
		IsPerfect:   in.IsPerfect,
	}
	if entry.ID == "" {
		entry.ID = s.ids.NewID()
	}

	var unlocked []Achievement
	_, err := s.repo.Update(ctx, userID, func(stats *Stats) error {
		unlocked = nil
		if stats.historyIndex(entry.ID) >= 0 {
			return errUnchanged
		}
		unlocked = stats.RecordCompletion(entry)
		stats.UpdatedAt = entry.CompletedAt
		return nil
	})
	if err != nil {
		return UnlockResult{}, err
	}

	for _, a := range unlocked {
		metrics.AchievementUnlocked(string(a.Type))
		s.logger.InfoContext(ctx, "achievement unlocked", "userId", userID, "achievementId", a.ID)
	}

	if unlocked == nil {
		unlocked = []Achievement{}
	}
	return UnlockResult{NewUnlock: len(unlocked) > 0, UnlockedAchievements: unlocked}, nil
}

// RemoveCompletion deletes a history entry and re-locks badges whose
// thresholds are no longer met. It reports false when the entry did not exist.
func (s *Service) RemoveCompletion(ctx context.Context, userID, entryID string) (CompletedGoalEntry, bool, error) {
	if userID == "" {
		return CompletedGoalEntry{}, false, ErrUnauthenticated
	}

	now := s.clock.Now().UTC()
	var (
		removed CompletedGoalEntry
		found   bool
	)
	_, err := s.repo.Update(ctx, userID, func(stats *Stats) error {
		removed, found = stats.RemoveCompletion(entryID)
		if !found {
			return errUnchanged
		}
		stats.UpdatedAt = now
		return nil
	})
	if err != nil {
		return CompletedGoalEntry{}, false, err
	}
	return removed, found, nil
}

// Rebuild recomputes the counters and badge set by replaying the stored history.
// Unrecognised badge ids survive the rebuild.
func (s *Service) Rebuild(ctx context.Context, userID string) (Stats, error) {
	if userID == "" {
		return Stats{}, ErrUnauthenticated
	}

	now := s.clock.Now().UTC()
	return s.repo.Update(ctx, userID, func(stats *Stats) error {
		rebuilt := Replay(userID, stats.History)
		for _, id := range stats.UnlockedMedals {
			if _, _, ok := ParseMedalID(id); !ok {
				rebuilt.UnlockedMedals = append(rebuilt.UnlockedMedals, id)
			}
		}
		sortMedals(rebuilt.UnlockedMedals)
		rebuilt.UpdatedAt = now
		*stats = rebuilt
		return nil
	})
}

// Reset deletes the user's stats document.
func (s *Service) Reset(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	return s.repo.Delete(ctx, userID)
}
