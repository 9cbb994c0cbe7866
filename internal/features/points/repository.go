package points

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

// Repository handles database interactions for the points ledger
type Repository struct {
	balances     *mongo.Collection
	transactions *mongo.Collection
}

// NewRepository initializes the repository and creates necessary indexes
func NewRepository(db *mongo.Database) *Repository {
	balances := db.Collection("point_balances")
	transactions := db.Collection("point_transactions")

	_, _ = transactions.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			// One credit per approved proof, enforced by the database even if
			// the settlement event gets delivered twice
			Keys: bson.D{{Key: "proofId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"source": SourceProofApproval}),
		},
	})

	return &Repository{balances: balances, transactions: transactions}
}

// Credit records an earn transaction and bumps the balance. Safe to call
// inside a session context; a duplicate proof credit returns
// ErrAlreadySettled without touching the balance.
func (r *Repository) Credit(ctx context.Context, userID primitive.ObjectID, amount int, proofID primitive.ObjectID, description string) error {
	txn := Transaction{
		UserID:      userID,
		Type:        TypeEarn,
		Amount:      amount,
		Source:      SourceProofApproval,
		ProofID:     &proofID,
		Description: description,
		CreatedAt:   time.Now(),
	}

	if _, err := r.transactions.InsertOne(ctx, txn); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrAlreadySettled
		}
		return err
	}

	_, err := r.balances.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$inc": bson.M{"balance": amount},
			"$set": bson.M{"updatedAt": time.Now()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// Spend debits the balance and records a spend transaction. The balance
// filter stops overdrafts; both writes commit together.
func (r *Repository) Spend(ctx context.Context, userID primitive.ObjectID, amount int, description string) error {
	client := r.balances.Database().Client()

	session, err := client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		result, err := r.balances.UpdateOne(sc,
			bson.M{"_id": userID, "balance": bson.M{"$gte": amount}},
			bson.M{
				"$inc": bson.M{"balance": -amount},
				"$set": bson.M{"updatedAt": time.Now()},
			},
		)
		if err != nil {
			return nil, err
		}
		if result.ModifiedCount == 0 {
			return nil, apperrors.ErrConflict
		}

		txn := Transaction{
			UserID:      userID,
			Type:        TypeSpend,
			Amount:      amount,
			Source:      SourceRedemption,
			Description: description,
			CreatedAt:   time.Now(),
		}
		if _, err := r.transactions.InsertOne(sc, txn); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// GetBalance returns the user's balance, zero when none exists yet
func (r *Repository) GetBalance(ctx context.Context, userID primitive.ObjectID) (*Balance, error) {
	var balance Balance
	err := r.balances.FindOne(ctx, bson.M{"_id": userID}).Decode(&balance)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &Balance{UserID: userID, Balance: 0}, nil
		}
		return nil, err
	}
	return &balance, nil
}

// ListTransactions returns a user's ledger entries newest first
func (r *Repository) ListTransactions(ctx context.Context, userID primitive.ObjectID, limit, offset int) ([]Transaction, int64, error) {
	filter := bson.M{"userId": userID}

	total, err := r.transactions.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.transactions.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	transactions := []Transaction{}
	if err = cursor.All(ctx, &transactions); err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}
