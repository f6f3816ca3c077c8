package archiveRepo

import (
	"context"
	"time"

	"medibot/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ArchivedTurn is one conversation turn persisted past the session TTL.
type ArchivedTurn struct {
	ID        string            `bson:"id"`
	UserID    string            `bson:"userId"`
	Role      string            `bson:"role"`
	Text      string            `bson:"text"`
	Intent    models.IntentType `bson:"intent,omitempty"`
	Timestamp time.Time         `bson:"timestamp"`
	CreatedAt time.Time         `bson:"createdAt"`
}

// ConversationArchiveRepository persists conversation turns beyond the
// Redis session TTL, for summaries and reminder follow-ups.
type ConversationArchiveRepository interface {
	AppendTurn(ctx context.Context, userID string, turn models.Turn) error
	CountByUser(ctx context.Context, userID string) (int64, error)
	ListRecent(ctx context.Context, userID string, limit int64) ([]ArchivedTurn, error)
	DeleteByUser(ctx context.Context, userID string) error
}

type mongoArchiveRepo struct {
	coll *mongo.Collection
}

// NewMongoArchiveRepo returns a ConversationArchiveRepository backed by
// MongoDB. Pass the shared client from database.InitDB.
func NewMongoArchiveRepo(client *mongo.Client) ConversationArchiveRepository {
	db := client.Database("medibot")
	return &mongoArchiveRepo{
		coll: db.Collection("conversation_archive"),
	}
}
