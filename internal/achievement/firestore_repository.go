package achievement

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository instantiates a Firestore-backed repository storing
// stats at users/{uid}/stats/achievements.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

const (
	statsCollection = "stats"
	statsDocument   = "achievements"
)

func (r *firestoreRepository) doc(userID string) *firestore.DocumentRef {
	return r.client.Collection("users").Doc(userID).Collection(statsCollection).Doc(statsDocument)
}

func (r *firestoreRepository) Get(ctx context.Context, userID string) (Stats, error) {
	snap, err := r.doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return emptyStats(userID), nil
	}
	if err != nil {
		return Stats{}, err
	}
	return snapshotToStats(userID, snap)
}

func (r *firestoreRepository) Update(ctx context.Context, userID string, mutate func(*Stats) error) (Stats, error) {
	ref := r.doc(userID)
	var out Stats

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		stats := emptyStats(userID)
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			if stats, err = snapshotToStats(userID, snap); err != nil {
				return err
			}
		}

		if err := mutate(&stats); err != nil {
			if errors.Is(err, errUnchanged) {
				out = stats
			}
			return err
		}

		out = stats
		return tx.Set(ref, stats)
	})
	if errors.Is(err, errUnchanged) {
		return out, nil
	}
	if err != nil {
		return Stats{}, fmt.Errorf("update achievement stats: %w", err)
	}
	return out, nil
}

func (r *firestoreRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.doc(userID).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

func snapshotToStats(userID string, snap *firestore.DocumentSnapshot) (Stats, error) {
	var stats Stats
	if err := snap.DataTo(&stats); err != nil {
		return Stats{}, fmt.Errorf("decode achievement stats: %w", err)
	}
	stats.UserID = userID
	if stats.UnlockedMedals == nil {
		stats.UnlockedMedals = []string{}
	}
	if stats.History == nil {
		stats.History = []CompletedGoalEntry{}
	}
	return stats, nil
}
