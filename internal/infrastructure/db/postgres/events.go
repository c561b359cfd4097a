package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventlane/eventlane/internal/application/event"
	"github.com/eventlane/eventlane/internal/contracts/outbox"
	"github.com/eventlane/eventlane/internal/domain"
)

// EventStore implements event.EventRepo.
type EventStore struct {
	pool *pgxpool.Pool
}

func NewEventStore(pool *pgxpool.Pool) *EventStore { return &EventStore{pool: pool} }

func (s *EventStore) Create(ctx context.Context, e domain.Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO events (`+strings.TrimSpace(eventColumns)+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, e.ID, e.InitiatorID, e.CategoryID, e.Title, e.Annotation, e.Description,
		e.EventDate, e.Location.Lat, e.Location.Lon, e.Paid, e.ParticipantLimit, e.RequestModeration,
		string(e.State), e.ConfirmedRequests, e.CreatedOn, e.PublishedOn, e.Views)
	return err
}

func (s *EventStore) GetByID(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

func (s *EventStore) UpdateViews(ctx context.Context, id uuid.UUID, views int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE events SET views = $2 WHERE id = $1`, id, views)
	return err
}

func (s *EventStore) ListByInitiator(ctx context.Context, initiatorID uuid.UUID, from, size int) ([]domain.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE initiator_id = $1
		ORDER BY created_on DESC, id
		LIMIT $2 OFFSET $3
	`, initiatorID, size, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (s *EventStore) SearchAdmin(ctx context.Context, f event.AdminFilter) ([]domain.Event, error) {
	where := []string{"TRUE"}
	args := []any{}
	argN := 1

	add := func(condFmt string, val any) {
		where = append(where, fmt.Sprintf(condFmt, argN))
		args = append(args, val)
		argN++
	}

	if len(f.Users) > 0 {
		add("initiator_id = ANY($%d)", f.Users)
	}
	if len(f.States) > 0 {
		states := make([]string, len(f.States))
		for i, st := range f.States {
			states[i] = string(st)
		}
		add("state = ANY($%d)", states)
	}
	if len(f.Categories) > 0 {
		add("category_id = ANY($%d)", f.Categories)
	}
	if f.RangeStart != nil {
		add("event_date >= $%d", *f.RangeStart)
	}
	if f.RangeEnd != nil {
		add("event_date <= $%d", *f.RangeEnd)
	}

	sql := `SELECT ` + eventColumns + `
		FROM events
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_on DESC, id
		LIMIT $` + fmt.Sprint(argN) + ` OFFSET $` + fmt.Sprint(argN+1)
	args = append(args, f.Size, f.From)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (s *EventStore) SearchCommon(ctx context.Context, f event.CommonFilter) ([]domain.Event, error) {
	where := []string{"state = 'PUBLISHED'"}
	args := []any{}
	argN := 1

	add := func(condFmt string, val any) {
		where = append(where, fmt.Sprintf(condFmt, argN))
		args = append(args, val)
		argN++
	}

	if text := strings.TrimSpace(f.Text); text != "" {
		where = append(where, fmt.Sprintf("(annotation ILIKE $%d OR description ILIKE $%d)", argN, argN))
		args = append(args, "%"+text+"%")
		argN++
	}
	if len(f.Categories) > 0 {
		add("category_id = ANY($%d)", f.Categories)
	}
	if f.Paid != nil {
		add("paid = $%d", *f.Paid)
	}
	switch {
	case f.RangeStart != nil:
		add("event_date >= $%d", *f.RangeStart)
	default:
		// no range means upcoming events only
		where = append(where, "event_date > NOW()")
	}
	if f.RangeEnd != nil {
		add("event_date <= $%d", *f.RangeEnd)
	}
	if f.OnlyAvailable {
		where = append(where, "(participant_limit = 0 OR confirmed_requests < participant_limit)")
	}

	orderBy := "event_date ASC, id"
	if f.Sort == event.SortViews {
		orderBy = "views DESC, id"
	}

	sql := `SELECT ` + eventColumns + `
		FROM events
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY ` + orderBy + `
		LIMIT $` + fmt.Sprint(argN) + ` OFFSET $` + fmt.Sprint(argN+1)
	args = append(args, f.Size, f.From)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func collectEvents(rows pgx.Rows) ([]domain.Event, error) {
	var out []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// WithTx runs fn in one READ COMMITTED transaction. GetForUpdate locks the
// event row so concurrent lifecycle transitions serialize per event.
func (s *EventStore) WithTx(ctx context.Context, fn func(tx event.EventTx) error) error {
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

	if err := fn(&eventTx{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type eventTx struct {
	tx pgx.Tx
}

func (t *eventTx) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	return getEventForUpdate(ctx, t.tx, id)
}

func (t *eventTx) Save(ctx context.Context, e domain.Event) error {
	return saveEventTx(ctx, t.tx, e)
}

func (t *eventTx) InsertOutbox(ctx context.Context, m outbox.Message) error {
	return insertOutboxTx(ctx, t.tx, m)
}
