// Package app wires repositories and domain services for the configured datastore.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/firestore"

	"github.com/focusnest/goal-service/internal/achievement"
	"github.com/focusnest/goal-service/internal/config"
	"github.com/focusnest/goal-service/internal/goal"
	"github.com/focusnest/goal-service/internal/habit"
)

// App holds the constructed services.
type App struct {
	Goals        *goal.Service
	Habits       *habit.Service
	Achievements *achievement.Service
}

type repositories struct {
	goals  goal.Repository
	habits habit.Repository
	stats  achievement.Repository
}

// New builds every service against the configured datastore. The returned
// cleanup closes the datastore client.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, func(), error) {
	repos, cleanup, err := newRepositories(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("repository init error: %w", err)
	}

	clock := goal.NewSystemClock()
	ids := goal.NewUUIDGenerator()

	achievements, err := achievement.NewService(repos.stats, clock, ids, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("achievement service init error: %w", err)
	}

	goals, err := goal.NewService(repos.goals, achievements, clock, ids,
		goal.WithLocation(cfg.DayKey.Location),
		goal.WithLogger(logger),
	)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("goal service init error: %w", err)
	}

	habits, err := habit.NewService(repos.habits, goals, clock, ids, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("habit service init error: %w", err)
	}

	return &App{Goals: goals, Habits: habits, Achievements: achievements}, cleanup, nil
}

func newRepositories(ctx context.Context, cfg config.Config) (repositories, func(), error) {
	switch cfg.DataStore {
	case config.DataStoreFirestore:
		if cfg.Firestore.EmulatorHost != "" {
			if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.Firestore.EmulatorHost); err != nil {
				return repositories{}, nil, fmt.Errorf("set FIRESTORE_EMULATOR_HOST: %w", err)
			}
		}

		client, err := firestore.NewClientWithDatabase(ctx, cfg.GCPProjectID, cfg.Firestore.Database)
		if err != nil {
			return repositories{}, nil, fmt.Errorf("firestore client: %w", err)
		}

		repos := repositories{
			goals:  goal.NewFirestoreRepository(client),
			habits: habit.NewFirestoreRepository(client),
			stats:  achievement.NewFirestoreRepository(client),
		}
		cleanup := func() {
			_ = client.Close()
		}
		return repos, cleanup, nil
	default:
		return repositories{
			goals:  goal.NewMemoryRepository(),
			habits: habit.NewMemoryRepository(),
			stats:  achievement.NewMemoryRepository(),
		}, func() {}, nil
	}
}
