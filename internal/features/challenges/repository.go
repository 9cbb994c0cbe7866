package challenges

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "github.com/ecoloop-app/ecoloop-backend/pkg/errors"
)

// Repository handles database interactions for challenges and instances
type Repository struct {
	catalog   *mongo.Collection
	instances *mongo.Collection
}

// NewRepository initializes the repository and creates necessary indexes
func NewRepository(db *mongo.Database) *Repository {
	catalog := db.Collection("challenges")
	instances := db.Collection("challenge_instances")

	// One live instance per user, enforced by the database
	_, _ = instances.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "open", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"open": true}),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "startedAt", Value: -1}},
		},
	})

	_, _ = catalog.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "active", Value: 1}, {Key: "category", Value: 1}},
	})

	return &Repository{catalog: catalog, instances: instances}
}

// ListChallenges returns active catalog challenges
func (r *Repository) ListChallenges(ctx context.Context) ([]Challenge, error) {
	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "title", Value: 1}})

	cursor, err := r.catalog.Find(ctx, bson.M{"active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	challenges := []Challenge{}
	if err = cursor.All(ctx, &challenges); err != nil {
		return nil, err
	}
	return challenges, nil
}

// GetChallenge returns a single catalog challenge by id
func (r *Repository) GetChallenge(ctx context.Context, id primitive.ObjectID) (*Challenge, error) {
	var challenge Challenge
	err := r.catalog.FindOne(ctx, bson.M{"_id": id}).Decode(&challenge)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &challenge, nil
}

// CreateInstance starts a new instance for a user. The partial unique index
// rejects the insert when the user already has a live one.
func (r *Repository) CreateInstance(ctx context.Context, instance *Instance) error {
	instance.Status = StatusActive
	instance.Open = IsOpen(instance.Status)
	instance.StartedAt = time.Now()

	result, err := r.instances.InsertOne(ctx, instance)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrConflict
		}
		return err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		instance.ID = oid
	}
	return nil
}

// GetInstance returns an instance by id
func (r *Repository) GetInstance(ctx context.Context, id primitive.ObjectID) (*Instance, error) {
	var instance Instance
	err := r.instances.FindOne(ctx, bson.M{"_id": id}).Decode(&instance)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &instance, nil
}

// GetOpenInstance returns the user's current live instance, if any
func (r *Repository) GetOpenInstance(ctx context.Context, userID primitive.ObjectID) (*Instance, error) {
	var instance Instance
	err := r.instances.FindOne(ctx, bson.M{"userId": userID, "open": true}).Decode(&instance)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &instance, nil
}

// MarkPendingValidation flips an active instance to pendingValidation and
// records the proof. The status filter makes the flip first-wins under
// concurrent submissions.
func (r *Repository) MarkPendingValidation(ctx context.Context, instanceID, proofID primitive.ObjectID) error {
	result, err := r.instances.UpdateOne(ctx,
		bson.M{"_id": instanceID, "status": StatusActive},
		bson.M{"$set": bson.M{
			"status":  StatusPendingValidation,
			"proofId": proofID,
		}},
	)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

// MirrorDecision applies a proof decision to the owning instance. Validated
// instances stay open until feedback clears them; rejected ones close so the
// user can pick a new challenge.
func (r *Repository) MirrorDecision(ctx context.Context, instanceID primitive.ObjectID, approved bool) error {
	now := time.Now()

	status := StatusValidated
	if !approved {
		status = StatusRejected
	}
	update := bson.M{"status": status, "decidedAt": now, "open": IsOpen(status)}

	result, err := r.instances.UpdateOne(ctx,
		bson.M{"_id": instanceID, "status": StatusPendingValidation},
		bson.M{"$set": update},
	)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

// SubmitFeedback records feedback on a validated instance and clears it.
// The status filter keeps the write idempotent.
func (r *Repository) SubmitFeedback(ctx context.Context, instanceID, userID primitive.ObjectID, feedback *Feedback) error {
	now := time.Now()
	feedback.CreatedAt = now

	result, err := r.instances.UpdateOne(ctx,
		bson.M{"_id": instanceID, "userId": userID, "status": StatusValidated},
		bson.M{"$set": bson.M{
			"status":            StatusCleared,
			"open":              false,
			"feedbackSubmitted": true,
			"feedback":          feedback,
			"clearedAt":         now,
		}},
	)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

// ListUserHistory returns a user's instances newest first
func (r *Repository) ListUserHistory(ctx context.Context, userID primitive.ObjectID, limit, offset int) ([]Instance, int64, error) {
	filter := bson.M{"userId": userID}

	total, err := r.instances.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "startedAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.instances.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	instances := []Instance{}
	if err = cursor.All(ctx, &instances); err != nil {
		return nil, 0, err
	}
	return instances, total, nil
}
