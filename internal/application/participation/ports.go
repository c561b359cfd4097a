package participation

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

// Stores is the persistence boundary of the allocator. Mutations go through
// WithTx; the plain reads serve the list endpoints.
type Stores interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.Request, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Request, error)
}

// Tx is one allocator unit of work. Lock ordering: EventForUpdate is taken
// before any request row, so all mutations for one event serialize on the
// event row and the confirmed counter never races.
type Tx interface {
	EventForUpdate(ctx context.Context, id uuid.UUID) (domain.Event, error)
	SaveEvent(ctx context.Context, e domain.Event) error

	RequestByID(ctx context.Context, id uuid.UUID) (domain.Request, error)
	RequestForUpdate(ctx context.Context, id uuid.UUID) (domain.Request, error)
	RequestsByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Request, error)
	HasActiveRequest(ctx context.Context, eventID, requesterID uuid.UUID) (bool, error)
	InsertRequest(ctx context.Context, r domain.Request) error
	SaveRequests(ctx context.Context, rs []domain.Request) error

	InsertOutbox(ctx context.Context, m outbox.Message) error
}

// Directory answers referential-existence questions.
type Directory interface {
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
}
