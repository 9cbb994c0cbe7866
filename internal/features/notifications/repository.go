package notifications

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository handles database interactions for notifications
type Repository struct {
	collection *mongo.Collection
}

// NewRepository initializes the repository and creates necessary indexes
func NewRepository(db *mongo.Database) *Repository {
	collection := db.Collection("notifications")

	_, _ = collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			// Redelivered events must not spam the user
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "type", Value: 1}, {Key: "proofId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"proofId": bson.M{"$exists": true}}),
		},
	})

	return &Repository{collection: collection}
}

// Create inserts a notification. Duplicates (same user, type and proof) are
// silently dropped.
func (r *Repository) Create(ctx context.Context, n *Notification) error {
	n.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, n)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		n.ID = oid
	}
	return nil
}

// ListForUser returns a user's notifications newest first
func (r *Repository) ListForUser(ctx context.Context, userID primitive.ObjectID, limit, offset int) ([]Notification, int64, error) {
	filter := bson.M{"userId": userID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	notifications := []Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// UnreadCount returns the number of unread notifications
func (r *Repository) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"userId": userID, "read": false})
}

// MarkRead marks a single notification as read
func (r *Repository) MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": notificationID, "userId": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}

// MarkAllRead marks all of a user's notifications as read
func (r *Repository) MarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"userId": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}
