package habit

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository instantiates a Firestore-backed repository storing
// habits at users/{uid}/habits/{habitId}.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

const habitsCollection = "habits"

func (r *firestoreRepository) userCollection(userID string) *firestore.CollectionRef {
	return r.client.Collection("users").Doc(userID).Collection(habitsCollection)
}

func (r *firestoreRepository) Create(ctx context.Context, habit Habit) error {
	_, err := r.userCollection(habit.UserID).Doc(habit.ID).Create(ctx, habit)
	if status.Code(err) == codes.AlreadyExists {
		return ErrConflict
	}
	return err
}

func (r *firestoreRepository) Get(ctx context.Context, userID, habitID string) (Habit, error) {
	doc, err := r.userCollection(userID).Doc(habitID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Habit{}, ErrNotFound
	}
	if err != nil {
		return Habit{}, err
	}
	return snapshotToHabit(userID, doc)
}

func (r *firestoreRepository) List(ctx context.Context, userID string) ([]Habit, error) {
	iter := r.userCollection(userID).OrderBy("name", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	habits := make([]Habit, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		habit, err := snapshotToHabit(userID, doc)
		if err != nil {
			return nil, err
		}
		habits = append(habits, habit)
	}
	return habits, nil
}

func (r *firestoreRepository) Update(ctx context.Context, userID, habitID string, mutate func(*Habit) error) (Habit, error) {
	ref := r.userCollection(userID).Doc(habitID)
	var out Habit

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		habit, err := snapshotToHabit(userID, doc)
		if err != nil {
			return err
		}
		if err := mutate(&habit); err != nil {
			return err
		}
		out = habit
		return tx.Set(ref, habit)
	})
	if err != nil {
		return Habit{}, err
	}
	return out, nil
}

func (r *firestoreRepository) Delete(ctx context.Context, userID, habitID string) error {
	_, err := r.userCollection(userID).Doc(habitID).Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

func (r *firestoreRepository) DeleteAll(ctx context.Context, userID string) (int, error) {
	docs, err := r.userCollection(userID).Select().Documents(ctx).GetAll()
	if err != nil {
		return 0, fmt.Errorf("list habits to delete: %w", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for _, doc := range docs {
		job, err := bw.Delete(doc.Ref)
		if err != nil {
			bw.End()
			return 0, fmt.Errorf("queue habit delete: %w", err)
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

func snapshotToHabit(userID string, doc *firestore.DocumentSnapshot) (Habit, error) {
	var habit Habit
	if err := doc.DataTo(&habit); err != nil {
		return Habit{}, fmt.Errorf("decode habit %s: %w", doc.Ref.ID, err)
	}
	habit.ID = doc.Ref.ID
	habit.UserID = userID
	return habit, nil
}
