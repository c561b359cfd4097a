package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventlane/eventlane/internal/application/participation"
	"github.com/eventlane/eventlane/internal/contracts/outbox"
	"github.com/eventlane/eventlane/internal/domain"
)

// RequestStore implements participation.Stores.
//
// Deadlock policy: for the same event, always lock in this order:
//  1. events row (FOR UPDATE)
//  2. requests row(s) (FOR UPDATE)
//
// This prevents cycles between Submit/Cancel/Moderate.
type RequestStore struct {
	pool *pgxpool.Pool
}

func NewRequestStore(pool *pgxpool.Pool) *RequestStore { return &RequestStore{pool: pool} }

const requestColumns = `id, requester_id, event_id, status, created`

func (s *RequestStore) GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

func (s *RequestStore) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.Request, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM requests
		WHERE requester_id = $1
		ORDER BY created DESC, id
	`, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (s *RequestStore) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Request, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM requests
		WHERE event_id = $1
		ORDER BY created ASC, id
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (s *RequestStore) WithTx(ctx context.Context, fn func(tx participation.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(&requestTx{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func collectRequests(rows pgx.Rows) ([]domain.Request, error) {
	var out []domain.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type requestTx struct {
	tx pgx.Tx
}

func (t *requestTx) EventForUpdate(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	return getEventForUpdate(ctx, t.tx, id)
}

func (t *requestTx) SaveEvent(ctx context.Context, e domain.Event) error {
	return saveEventTx(ctx, t.tx, e)
}

func (t *requestTx) RequestByID(ctx context.Context, id uuid.UUID) (domain.Request, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = $1`, id)
	return scanRequest(row)
}

func (t *requestTx) RequestForUpdate(ctx context.Context, id uuid.UUID) (domain.Request, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = $1 FOR UPDATE`, id)
	return scanRequest(row)
}

func (t *requestTx) RequestsByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Request, error) {
	// The event row lock serializes all writers, no per-row locks needed.
	rows, err := t.tx.Query(ctx, `
		SELECT `+requestColumns+`
		FROM requests
		WHERE event_id = $1
		ORDER BY created ASC, id
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (t *requestTx) HasActiveRequest(ctx context.Context, eventID, requesterID uuid.UUID) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM requests
			WHERE event_id = $1 AND requester_id = $2 AND status <> 'CANCELED'
		)
	`, eventID, requesterID).Scan(&exists)
	return exists, err
}

func (t *requestTx) InsertRequest(ctx context.Context, r domain.Request) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5)
	`, r.ID, r.RequesterID, r.EventID, string(r.Status), r.Created)
	return err
}

func (t *requestTx) SaveRequests(ctx context.Context, rs []domain.Request) error {
	for _, r := range rs {
		tag, err := t.tx.Exec(ctx, `
			UPDATE requests SET status = $2 WHERE id = $1
		`, r.ID, string(r.Status))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound("request not found")
		}
	}
	return nil
}

func (t *requestTx) InsertOutbox(ctx context.Context, m outbox.Message) error {
	return insertOutboxTx(ctx, t.tx, m)
}
