package safety

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository stores moderation reports
type Repository struct {
	collection *mongo.Collection
}

// NewRepository initializes the repository and creates necessary indexes
func NewRepository(db *mongo.Database) *Repository {
	collection := db.Collection("reports")

	// One report per reporter per proof
	_, _ = collection.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "proofId", Value: 1}, {Key: "reporterId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &Repository{collection: collection}
}

// Create inserts a report. Duplicate reports from the same user are dropped.
func (r *Repository) Create(ctx context.Context, report *Report) error {
	report.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, report)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		report.ID = oid
	}
	return nil
}
