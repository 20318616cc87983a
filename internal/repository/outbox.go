package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// outboxRepo persists invoice lifecycle events in the same transaction as
// the state change. Debezium Outbox SMT picks the rows up and publishes to
// Kafka based on the `topic` column; the service never talks to Kafka on
// the write path.
type outboxRepo struct{}

func (r *outboxRepo) Insert(ctx context.Context, tx *sqlx.Tx, aggregate, aggregateID, topic string, payload []byte) error {
	const q = `
		INSERT INTO outbox (aggregate, aggregate_id, topic, payload, created_at)
		VALUES (?, ?, ?, ?, NOW())
	`
	_, err := tx.ExecContext(ctx, q, aggregate, aggregateID, topic, payload)
	return err
}
