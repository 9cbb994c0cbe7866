package proofs

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

// Repository handles database interactions for proofs. The decisive writes
// (votes, decisions, report overrides) are compare-and-swap updates so that
// concurrent callers cannot double-apply them.
type Repository struct {
	collection *mongo.Collection
}

// NewRepository initializes the repository and creates necessary indexes
func NewRepository(db *mongo.Database) *Repository {
	collection := db.Collection("proofs")

	_, _ = collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "assignedValidators", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "submitterId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}},
		},
	})

	return &Repository{collection: collection}
}

// Create inserts a new pending proof
func (r *Repository) Create(ctx context.Context, proof *Proof) error {
	proof.Status = StatusPending
	proof.Visible = true
	proof.CreatedAt = time.Now()
	if proof.Votes == nil {
		proof.Votes = map[string]bool{}
	}
	if proof.AssignedValidators == nil {
		proof.AssignedValidators = []primitive.ObjectID{}
	}

	result, err := r.collection.InsertOne(ctx, proof)
	if err != nil {
		return err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		proof.ID = oid
	}
	return nil
}

// GetByID returns a proof by id
func (r *Repository) GetByID(ctx context.Context, id primitive.ObjectID) (*Proof, error) {
	var proof Proof
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&proof)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrProofNotFound
		}
		return nil, err
	}
	return &proof, nil
}

// ReviewQueue returns pending proofs assigned to the validator that they
// have not voted on yet. Own submissions and reported proofs never appear.
func (r *Repository) ReviewQueue(ctx context.Context, validatorID primitive.ObjectID) ([]Proof, error) {
	filter := bson.M{
		"status":                     StatusPending,
		"visible":                    true,
		"assignedValidators":         validatorID,
		"submitterId":                bson.M{"$ne": validatorID},
		"votes." + validatorID.Hex(): bson.M{"$exists": false},
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	proofs := []Proof{}
	if err = cursor.All(ctx, &proofs); err != nil {
		return nil, err
	}
	return proofs, nil
}

// CastVote records a validator's vote. The filter re-checks pending status,
// assignment and vote absence inside the update so the write either lands
// exactly once or not at all.
func (r *Repository) CastVote(ctx context.Context, proofID, validatorID primitive.ObjectID, approve bool) error {
	voteKey := "votes." + validatorID.Hex()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{
			"_id":                proofID,
			"status":             StatusPending,
			"assignedValidators": validatorID,
			voteKey:              bson.M{"$exists": false},
		},
		bson.M{"$set": bson.M{voteKey: approve}},
	)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

// Decide moves a pending proof to approved or rejected. Returns true when
// this call was the one that performed the flip.
func (r *Repository) Decide(ctx context.Context, proofID primitive.ObjectID, approved bool) (bool, error) {
	status := StatusRejected
	if approved {
		status = StatusApproved
	}

	now := time.Now()
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": proofID, "status": StatusPending},
		bson.M{"$set": bson.M{"status": status, "decidedAt": now}},
	)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}

// MarkReported overrides a pending proof into the reported state and hides
// it from review queues. Returns true when this call performed the flip.
func (r *Repository) MarkReported(ctx context.Context, proofID primitive.ObjectID) (bool, error) {
	now := time.Now()
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": proofID, "status": StatusPending},
		bson.M{"$set": bson.M{"status": StatusReported, "visible": false, "decidedAt": now}},
	)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}

// MarkStale flags a pending proof that sat past its deadline
func (r *Repository) MarkStale(ctx context.Context, proofID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": proofID, "status": StatusPending},
		bson.M{"$set": bson.M{"stale": true}},
	)
	return err
}

// ListStalePending returns pending proofs older than the cutoff
func (r *Repository) ListStalePending(ctx context.Context, cutoff time.Time) ([]Proof, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"status":    StatusPending,
		"createdAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	proofs := []Proof{}
	if err = cursor.All(ctx, &proofs); err != nil {
		return nil, err
	}
	return proofs, nil
}

// ListBySubmitter returns a user's own proofs newest first
func (r *Repository) ListBySubmitter(ctx context.Context, submitterID primitive.ObjectID, limit, offset int) ([]Proof, int64, error) {
	filter := bson.M{"submitterId": submitterID}

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

	proofs := []Proof{}
	if err = cursor.All(ctx, &proofs); err != nil {
		return nil, 0, err
	}
	return proofs, total, nil
}
