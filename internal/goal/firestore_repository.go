package goal

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository instantiates a Firestore-backed repository storing
// goals at users/{uid}/goals/{goalId}.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

const goalsCollection = "goals"

func (r *firestoreRepository) userCollection(userID string) *firestore.CollectionRef {
	return r.client.Collection("users").Doc(userID).Collection(goalsCollection)
}

func (r *firestoreRepository) Create(ctx context.Context, goal Goal) error {
	_, err := r.userCollection(goal.UserID).Doc(goal.ID).Create(ctx, goal)
	if status.Code(err) == codes.AlreadyExists {
		return ErrConflict
	}
	return err
}

func (r *firestoreRepository) Get(ctx context.Context, userID, goalID string) (Goal, error) {
	doc, err := r.userCollection(userID).Doc(goalID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Goal{}, ErrNotFound
	}
	if err != nil {
		return Goal{}, err
	}
	return snapshotToGoal(userID, doc)
}

func (r *firestoreRepository) List(ctx context.Context, userID string, filter ListFilter) ([]Goal, error) {
	query := r.userCollection(userID).Query
	if filter.HabitID != "" {
		query = query.Where("habit_id", "==", filter.HabitID)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	goals := make([]Goal, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		goal, err := snapshotToGoal(userID, doc)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}

	// Ordering in memory avoids a composite index on (habit_id, created_at).
	sortNewestFirst(goals)
	return goals, nil
}

func (r *firestoreRepository) Update(ctx context.Context, userID, goalID string, mutate func(*Goal) error) (Goal, error) {
	ref := r.userCollection(userID).Doc(goalID)
	var out Goal

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		goal, err := snapshotToGoal(userID, doc)
		if err != nil {
			return err
		}
		out = goal.clone()

		if err := mutate(&goal); err != nil {
			return err
		}

		out = goal
		return tx.Set(ref, goal)
	})
	switch {
	case errors.Is(err, errUnchanged):
		return out, nil
	case err != nil:
		return Goal{}, err
	}
	return out, nil
}

func (r *firestoreRepository) Delete(ctx context.Context, userID, goalID string) error {
	_, err := r.userCollection(userID).Doc(goalID).Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

func (r *firestoreRepository) DeleteByHabit(ctx context.Context, userID, habitID string) (int, error) {
	return r.deleteMatching(ctx, r.userCollection(userID).Where("habit_id", "==", habitID))
}

func (r *firestoreRepository) DeleteAll(ctx context.Context, userID string) (int, error) {
	return r.deleteMatching(ctx, r.userCollection(userID).Query)
}

func (r *firestoreRepository) deleteMatching(ctx context.Context, query firestore.Query) (int, error) {
	refs, err := query.Select().Documents(ctx).GetAll()
	if err != nil {
		return 0, fmt.Errorf("list goals to delete: %w", err)
	}
	if len(refs) == 0 {
		return 0, nil
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, doc := range refs {
		job, err := bw.Delete(doc.Ref)
		if err != nil {
			bw.End()
			return 0, fmt.Errorf("queue goal delete: %w", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	deleted := 0
	var errs []error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			errs = append(errs, err)
			continue
		}
		deleted++
	}
	return deleted, errors.Join(errs...)
}

func snapshotToGoal(userID string, doc *firestore.DocumentSnapshot) (Goal, error) {
	var goal Goal
	if err := doc.DataTo(&goal); err != nil {
		return Goal{}, fmt.Errorf("decode goal %s: %w", doc.Ref.ID, err)
	}

	goal.ID = doc.Ref.ID
	goal.UserID = userID
	if goal.DailyProgress == nil {
		goal.DailyProgress = make(map[string]DailyProgressEntry)
	}
	if goal.Progress == nil {
		goal.Progress = []string{}
	}
	sort.Strings(goal.Progress)
	return goal, nil
}
