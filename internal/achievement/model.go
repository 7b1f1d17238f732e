package achievement

import (
	"context"
	"errors"
	"time"
)

// Kind distinguishes badges earned by completing goals from badges earned by
// completing goals perfectly.
type Kind string

const (
	KindStandard Kind = "standard"
	KindPerfect  Kind = "perfect"
)

// Stats is the per-user achievement document.
type Stats struct {
	UserID                string               `json:"user_id" firestore:"-"`
	TotalGoalsCompleted   int                  `json:"total_goals_completed" firestore:"total_goals_completed"`
	PerfectGoalsCompleted int                  `json:"perfect_goals_completed" firestore:"perfect_goals_completed"`
	UnlockedMedals        []string             `json:"unlocked_medals" firestore:"unlocked_medals"`
	History               []CompletedGoalEntry `json:"history" firestore:"history"`
	UpdatedAt             time.Time            `json:"updated_at,omitempty" firestore:"updated_at"`
}

// CompletedGoalEntry is one completion in the user's history.
type CompletedGoalEntry struct {
	ID          string    `json:"id" firestore:"id"`
	GoalID      string    `json:"goal_id,omitempty" firestore:"goal_id"`
	Name        string    `json:"name" firestore:"name"`
	CompletedAt time.Time `json:"completed_at" firestore:"completed_at"`
	IsPerfect   bool      `json:"is_perfect" firestore:"is_perfect"`
}

// Achievement describes one badge.
type Achievement struct {
	ID          string `json:"id"`
	Type        Kind   `json:"type"`
	Threshold   int    `json:"threshold"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// CatalogItem is a badge together with the user's unlock state.
type CatalogItem struct {
	Achievement
	Unlocked bool `json:"unlocked"`
}

// CompletionInput describes a goal completion to record. EntryID is optional;
// a fresh id is generated when it is empty.
type CompletionInput struct {
	EntryID   string
	GoalID    string
	GoalName  string
	IsPerfect bool
}

// UnlockResult reports the badges a completion unlocked.
type UnlockResult struct {
	NewUnlock            bool          `json:"new_unlock"`
	UnlockedAchievements []Achievement `json:"unlocked_achievements"`
}

// Repository persists one Stats document per user.
type Repository interface {
	// Get returns empty stats when the user has none yet.
	Get(ctx context.Context, userID string) (Stats, error)
	// Update loads the document (empty when absent), applies mutate and writes
	// the whole document back atomically. Returning errUnchanged skips the write.
	Update(ctx context.Context, userID string, mutate func(*Stats) error) (Stats, error)
	Delete(ctx context.Context, userID string) error
}

// ErrUnauthenticated indicates the caller has no user identity.
var ErrUnauthenticated = errors.New("user not authenticated")

var errUnchanged = errors.New("stats unchanged")

// Clock delivers the current time; extracted for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces history entry identifiers.
type IDGenerator interface {
	NewID() string
}

func emptyStats(userID string) Stats {
	return Stats{
		UserID:         userID,
		UnlockedMedals: []string{},
		History:        []CompletedGoalEntry{},
	}
}

func (s Stats) clone() Stats {
	out := s
	out.UnlockedMedals = append([]string{}, s.UnlockedMedals...)
	out.History = append([]CompletedGoalEntry{}, s.History...)
	return out
}
