package goal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/focusnest/goal-service/internal/achievement"
)

// DefaultDailyTarget is used in place of an unset (zero) daily target.
const DefaultDailyTarget = 1.0

const maxNameLength = 120

// Goal is a numeric target attached to a habit, tracked one calendar day at a time.
type Goal struct {
	ID                string                        `json:"id" firestore:"-"`
	UserID            string                        `json:"user_id" firestore:"-"`
	HabitID           string                        `json:"habit_id" firestore:"habit_id"`
	Name              string                        `json:"name" firestore:"name"`
	Description       string                        `json:"description,omitempty" firestore:"description"`
	Target            float64                       `json:"target" firestore:"target"`
	DailyTarget       float64                       `json:"daily_target" firestore:"daily_target"`
	Deadline          time.Time                     `json:"deadline" firestore:"deadline"`
	Progress          []string                      `json:"progress" firestore:"progress"`
	DailyProgress     map[string]DailyProgressEntry `json:"daily_progress" firestore:"daily_progress"`
	ProgressTotal     float64                       `json:"progress_total" firestore:"progress_total"`
	CompletedAt       *time.Time                    `json:"completed_at,omitempty" firestore:"completed_at"`
	CompletionEntryID string                        `json:"completion_entry_id,omitempty" firestore:"completion_entry_id"`
	CreatedAt         time.Time                     `json:"created_at" firestore:"created_at"`
	UpdatedAt         time.Time                     `json:"updated_at" firestore:"updated_at"`
}

// DailyProgressEntry is the value logged for one day together with the daily
// target captured at logging time.
type DailyProgressEntry struct {
	Progress   float64 `json:"progress" firestore:"progress"`
	Target     float64 `json:"target" firestore:"target"`
	Percentage int     `json:"percentage" firestore:"percentage"`
}

// CreateInput captures the data required to create a goal.
type CreateInput struct {
	UserID      string
	HabitID     string
	Name        string
	Description string
	Target      float64
	DailyTarget float64
	Deadline    time.Time
}

// Validate ensures the input fields meet the domain constraints.
func (i CreateInput) Validate() error {
	var problems []string

	if i.UserID == "" {
		problems = append(problems, "user_id is required")
	}
	if strings.TrimSpace(i.HabitID) == "" {
		problems = append(problems, "habit_id is required")
	}
	problems = append(problems, validateName(i.Name)...)
	problems = append(problems, validateTargets(i.Target, i.DailyTarget)...)
	if i.Deadline.IsZero() {
		problems = append(problems, "deadline is required")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// UpdateInput carries a partial update; nil fields are left untouched.
// Daily progress is not editable here; it only changes through progress logging.
type UpdateInput struct {
	Name        *string
	Description *string
	Target      *float64
	DailyTarget *float64
	Deadline    *time.Time
}

// Empty reports whether the update carries no changes.
func (i UpdateInput) Empty() bool {
	return i.Name == nil && i.Description == nil && i.Target == nil && i.DailyTarget == nil && i.Deadline == nil
}

func (i UpdateInput) validate(current Goal) error {
	var problems []string

	if i.Name != nil {
		problems = append(problems, validateName(*i.Name)...)
	}
	target, daily := current.Target, current.DailyTarget
	if i.Target != nil {
		target = *i.Target
	}
	if i.DailyTarget != nil {
		daily = *i.DailyTarget
	}
	problems = append(problems, validateTargets(target, daily)...)
	if i.Deadline != nil && i.Deadline.IsZero() {
		problems = append(problems, "deadline must not be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func validateName(name string) []string {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return []string{"name is required"}
	case len(name) > maxNameLength:
		return []string{fmt.Sprintf("name must be at most %d characters", maxNameLength)}
	}
	return nil
}

func validateTargets(target, daily float64) []string {
	var problems []string
	if math.IsNaN(target) || math.IsInf(target, 0) || target <= 0 {
		problems = append(problems, "target must be a finite number greater than 0")
	}
	if math.IsNaN(daily) || math.IsInf(daily, 0) || daily < 0 {
		problems = append(problems, "daily_target must be a finite number >= 0")
	}
	return problems
}

// ListFilter narrows List results. An empty HabitID lists every goal of the user.
type ListFilter struct {
	HabitID string
}

// Repository encapsulates persistence for goals.
type Repository interface {
	Create(ctx context.Context, goal Goal) error
	Get(ctx context.Context, userID, goalID string) (Goal, error)
	List(ctx context.Context, userID string, filter ListFilter) ([]Goal, error)
	// Update loads the goal, applies mutate and stores the result atomically.
	// mutate may run more than once and must only touch the goal it is given.
	// Returning errUnchanged from mutate skips the write.
	Update(ctx context.Context, userID, goalID string, mutate func(*Goal) error) (Goal, error)
	Delete(ctx context.Context, userID, goalID string) error
	DeleteByHabit(ctx context.Context, userID, habitID string) (int, error)
	DeleteAll(ctx context.Context, userID string) (int, error)
}

// Ledger records and reverses goal completions in the user's achievement stats.
type Ledger interface {
	RecordCompletion(ctx context.Context, userID string, in achievement.CompletionInput) (achievement.UnlockResult, error)
	RemoveCompletion(ctx context.Context, userID, entryID string) (achievement.CompletedGoalEntry, bool, error)
}

// Clock delivers the current time; extracted for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces unique identifiers for goals and completion entries.
type IDGenerator interface {
	NewID() string
}
