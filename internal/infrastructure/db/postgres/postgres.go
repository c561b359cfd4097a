// Package postgres persists events, participation requests and the
// transactional outbox on pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventlane/eventlane/internal/domain"
)

// Connect builds a pool and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConnLifetime = time.Hour
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

const eventColumns = `
	id, initiator_id, category_id, title, annotation, description,
	event_date, lat, lon, paid, participant_limit, request_moderation,
	state, confirmed_requests, created_on, published_on, views`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (domain.Event, error) {
	var e domain.Event
	var state string
	err := row.Scan(
		&e.ID, &e.InitiatorID, &e.CategoryID, &e.Title, &e.Annotation, &e.Description,
		&e.EventDate, &e.Location.Lat, &e.Location.Lon, &e.Paid, &e.ParticipantLimit, &e.RequestModeration,
		&state, &e.ConfirmedRequests, &e.CreatedOn, &e.PublishedOn, &e.Views,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Event{}, domain.ErrNotFound("event not found")
	}
	if err != nil {
		return domain.Event{}, err
	}
	e.State = domain.EventState(state)
	return e, nil
}

func scanRequest(row rowScanner) (domain.Request, error) {
	var r domain.Request
	var status string
	err := row.Scan(&r.ID, &r.RequesterID, &r.EventID, &status, &r.Created)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Request{}, domain.ErrNotFound("request not found")
	}
	if err != nil {
		return domain.Request{}, err
	}
	r.Status = domain.RequestStatus(status)
	return r, nil
}

func saveEventTx(ctx context.Context, tx pgx.Tx, e domain.Event) error {
	tag, err := tx.Exec(ctx, `
		UPDATE events
		SET category_id = $2, title = $3, annotation = $4, description = $5,
		    event_date = $6, lat = $7, lon = $8, paid = $9,
		    participant_limit = $10, request_moderation = $11,
		    state = $12, confirmed_requests = $13, published_on = $14
		WHERE id = $1
	`, e.ID, e.CategoryID, e.Title, e.Annotation, e.Description,
		e.EventDate, e.Location.Lat, e.Location.Lon, e.Paid,
		e.ParticipantLimit, e.RequestModeration,
		string(e.State), e.ConfirmedRequests, e.PublishedOn)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("event not found")
	}
	return nil
}

func getEventForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (domain.Event, error) {
	row := tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
	return scanEvent(row)
}
