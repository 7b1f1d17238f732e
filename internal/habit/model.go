package habit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxNameLength = 80

// Habit is a named recurring activity that goals are attached to.
type Habit struct {
	ID          string    `json:"id" firestore:"-"`
	UserID      string    `json:"user_id" firestore:"-"`
	Name        string    `json:"name" firestore:"name"`
	Description string    `json:"description,omitempty" firestore:"description"`
	CreatedAt   time.Time `json:"created_at" firestore:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" firestore:"updated_at"`
}

// CreateInput captures the data required to create a habit.
type CreateInput struct {
	UserID      string
	Name        string
	Description string
}

// Validate ensures the input fields meet the domain constraints.
func (i CreateInput) Validate() error {
	var problems []string
	if i.UserID == "" {
		problems = append(problems, "user_id is required")
	}
	problems = append(problems, validateName(i.Name)...)
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	Name        *string
	Description *string
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

// Repository encapsulates persistence for habits.
type Repository interface {
	Create(ctx context.Context, habit Habit) error
	Get(ctx context.Context, userID, habitID string) (Habit, error)
	List(ctx context.Context, userID string) ([]Habit, error)
	Update(ctx context.Context, userID, habitID string, mutate func(*Habit) error) (Habit, error)
	Delete(ctx context.Context, userID, habitID string) error
	DeleteAll(ctx context.Context, userID string) (int, error)
}

// GoalRemover deletes the goals attached to a habit.
type GoalRemover interface {
	DeleteByHabit(ctx context.Context, userID, habitID string) (int, error)
}

// ErrNotFound indicates the requested habit does not exist for the user.
var ErrNotFound = errors.New("habit not found")

// ErrConflict indicates a duplicate identifier collision.
var ErrConflict = errors.New("habit already exists")

// ErrInvalidInput indicates the provided data failed validation.
var ErrInvalidInput = errors.New("invalid input")

// ErrUnauthenticated indicates the caller has no user identity.
var ErrUnauthenticated = errors.New("user not authenticated")

// Clock delivers the current time.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces unique identifiers for new habits.
type IDGenerator interface {
	NewID() string
}
