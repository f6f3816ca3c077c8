package archiveRepo

import (
	"context"
	"time"

	"medibot/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AppendTurn inserts a single turn for the given user.
func (r *mongoArchiveRepo) AppendTurn(ctx context.Context, userID string, turn models.Turn) error {
	doc := ArchivedTurn{
		ID:        uuid.New().String(),
		UserID:    userID,
		Role:      turn.Role,
		Text:      turn.Text,
		Intent:    turn.Intent,
		Timestamp: turn.Timestamp,
		CreatedAt: time.Now(),
	}
	_, err := r.coll.InsertOne(ctx, doc)
	return err
}

// CountByUser returns the number of archived turns for a user.
func (r *mongoArchiveRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"userId": userID})
}

// ListRecent fetches the most recent archived turns, newest first.
func (r *mongoArchiveRepo) ListRecent(ctx context.Context, userID string, limit int64) ([]ArchivedTurn, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var turns []ArchivedTurn
	if err := cursor.All(ctx, &turns); err != nil {
		return nil, err
	}
	return turns, nil
}

// DeleteByUser removes all archived turns for a user.
func (r *mongoArchiveRepo) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}
