package database

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// TxRunner runs callbacks inside a multi-document transaction. Stores read
// the session from the context they are handed, so every repository call
// made with that context joins the transaction.
type TxRunner struct {
	client *mongo.Client
}

func NewTxRunner(client *mongo.Client) *TxRunner {
	return &TxRunner{client: client}
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
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
