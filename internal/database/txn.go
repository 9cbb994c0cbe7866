package database

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// TxnRunner runs a function inside a Mongo transaction so a group of
// multi-document writes commits or aborts as one.
type TxnRunner struct {
	client *mongo.Client
}

// NewTxnRunner creates a transaction runner backed by the given client
func NewTxnRunner(client *mongo.Client) *TxnRunner {
	return &TxnRunner{client: client}
}

// Run executes fn inside a transaction. The context passed to fn is a session
// context and must be used for every operation that belongs to the
// transaction.
func (r *TxnRunner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
