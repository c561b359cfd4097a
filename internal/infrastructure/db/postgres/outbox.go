package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/eventlane/eventlane/internal/contracts/outbox"
)

func insertOutboxTx(ctx context.Context, tx pgx.Tx, m outbox.Message) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox (message_id, routing_key, payload, occurred_at, status, attempt, next_retry_at)
		VALUES ($1, $2, $3, $4, 'pending', 0, NOW())
	`, m.MessageID, m.RoutingKey, m.Body, m.CreatedAt)
	return err
}
