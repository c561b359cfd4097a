package event

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/domain"
	"github.com/eventlane/eventlane/internal/security"
)

type CreateCmd struct {
	Actor      security.Principal
	CategoryID uuid.UUID
	Draft      domain.EventDraft
}

// Create validates referential integrity and the creation lead time, then
// stores a new PENDING event.
func (s *Service) Create(ctx context.Context, cmd CreateCmd) (domain.Event, error) {
	ok, err := s.dir.UserExists(ctx, cmd.Actor.ID)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.Event{}, domain.ErrNotFound("initiator not found")
	}

	ok, err = s.dir.CategoryExists(ctx, cmd.CategoryID)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.Event{}, domain.ErrNotFound("category not found")
	}

	e, err := domain.NewEvent(cmd.Actor.ID, cmd.CategoryID, cmd.Draft, s.clock.Now())
	if err != nil {
		return domain.Event{}, err
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return domain.Event{}, err
	}

	if s.aud != nil {
		s.aud.EventCreated(ctx, e.ID, e.InitiatorID)
	}
	return e, nil
}
