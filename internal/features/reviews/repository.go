package reviews

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GateRepository stores review gate counters
type GateRepository struct {
	collection *mongo.Collection
}

// NewGateRepository initializes the repository and creates necessary indexes
func NewGateRepository(db *mongo.Database) *GateRepository {
	collection := db.Collection("review_gates")

	_, _ = collection.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "instanceId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &GateRepository{collection: collection}
}

// Increment bumps the counter for a user's instance, creating it on first use
func (r *GateRepository) Increment(ctx context.Context, userID, instanceID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"userId": userID, "instanceId": instanceID},
		bson.M{
			"$inc": bson.M{"count": 1},
			"$set": bson.M{"updatedAt": time.Now()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// ReviewsCompleted returns how many reviews the user completed for the
// given instance. A missing counter reads as zero.
func (r *GateRepository) ReviewsCompleted(ctx context.Context, userID, instanceID primitive.ObjectID) (int, error) {
	var gate Gate
	err := r.collection.FindOne(ctx, bson.M{"userId": userID, "instanceId": instanceID}).Decode(&gate)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}
	return gate.Count, nil
}
