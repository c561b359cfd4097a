package event

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/contracts/outbox"
	"github.com/eventlane/eventlane/internal/domain"
)

type Clock interface {
	Now() time.Time
}

type EventSort string

const (
	SortEventDate EventSort = "EVENT_DATE"
	SortViews     EventSort = "VIEWS"
)

type AdminFilter struct {
	Users      []uuid.UUID
	States     []domain.EventState
	Categories []uuid.UUID
	RangeStart *time.Time
	RangeEnd   *time.Time
	From       int
	Size       int
}

type CommonFilter struct {
	Text          string
	Categories    []uuid.UUID
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Sort          EventSort
	From          int
	Size          int
}

type EventRepo interface {
	Create(ctx context.Context, e domain.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Event, error)
	ListByInitiator(ctx context.Context, initiatorID uuid.UUID, from, size int) ([]domain.Event, error)
	SearchAdmin(ctx context.Context, f AdminFilter) ([]domain.Event, error)
	SearchCommon(ctx context.Context, f CommonFilter) ([]domain.Event, error)

	// UpdateViews persists a refreshed view count; callers treat failures
	// as non-fatal.
	UpdateViews(ctx context.Context, id uuid.UUID, views int64) error

	// WithTx runs fn inside one transaction; GetForUpdate locks the event
	// row so concurrent state transitions serialize per event.
	WithTx(ctx context.Context, fn func(tx EventTx) error) error
}

type EventTx interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Event, error)
	Save(ctx context.Context, e domain.Event) error
	InsertOutbox(ctx context.Context, m outbox.Message) error
}

// Directory answers referential-existence questions at creation/update time.
type Directory interface {
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
	CategoryExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ViewCounter supplies aggregate hit counts; callers treat it as
// best-effort and tolerate unavailability.
type ViewCounter interface {
	HitCount(ctx context.Context, eventID uuid.UUID, since time.Time) (int64, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
