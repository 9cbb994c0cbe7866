package settlement

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecoloop-app/ecoloop-backend/internal/features/points"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/proofs"
	apperrors "github.com/ecoloop-app/ecoloop-backend/pkg/errors"
)

// Repository is the Mongo-backed settlement store
type Repository struct {
	proofs     *mongo.Collection
	challenges *mongo.Collection
	ledger     *points.Repository
	client     *mongo.Client
}

// NewRepository creates the settlement store on top of the shared collections
func NewRepository(db *mongo.Database, ledger *points.Repository) *Repository {
	return &Repository{
		proofs:     db.Collection("proofs"),
		challenges: db.Collection("challenges"),
		ledger:     ledger,
		client:     db.Client(),
	}
}

// ProofForSettlement loads the fields settlement cares about
func (r *Repository) ProofForSettlement(ctx context.Context, proofID primitive.ObjectID) (*ProofInfo, error) {
	var doc struct {
		SubmitterID primitive.ObjectID `bson:"submitterId"`
		ChallengeID primitive.ObjectID `bson:"challengeId"`
		Status      string             `bson:"status"`
		Settled     bool               `bson:"settled"`
	}

	err := r.proofs.FindOne(ctx, bson.M{"_id": proofID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrProofNotFound
		}
		return nil, err
	}

	return &ProofInfo{
		SubmitterID: doc.SubmitterID,
		ChallengeID: doc.ChallengeID,
		Status:      doc.Status,
		Settled:     doc.Settled,
	}, nil
}

// ChallengePointValue returns the catalog point value for a challenge
func (r *Repository) ChallengePointValue(ctx context.Context, challengeID primitive.ObjectID) (int, error) {
	var doc struct {
		PointValue int `bson:"pointValue"`
	}

	err := r.challenges.FindOne(ctx, bson.M{"_id": challengeID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, apperrors.ErrNotFound
		}
		return 0, err
	}
	return doc.PointValue, nil
}

// SettleAndCredit flips the proof's settled flag and credits the ledger in
// one transaction. The settled filter makes the flip first-wins; the partial
// unique index on the ledger backs it up.
func (r *Repository) SettleAndCredit(ctx context.Context, proofID primitive.ObjectID, info *ProofInfo, amount int) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		result, err := r.proofs.UpdateOne(sc,
			bson.M{"_id": proofID, "status": proofs.StatusApproved, "settled": false},
			bson.M{"$set": bson.M{"settled": true}},
		)
		if err != nil {
			return nil, err
		}
		if result.ModifiedCount == 0 {
			return nil, apperrors.ErrAlreadySettled
		}

		if err := r.ledger.Credit(sc, info.SubmitterID, amount, proofID, "Challenge proof approved"); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}
