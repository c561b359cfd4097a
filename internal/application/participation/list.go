package participation

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/domain"
	"github.com/eventlane/eventlane/internal/security"
)

// ListByRequester returns every request the caller has ever filed.
func (s *Service) ListByRequester(ctx context.Context, actor security.Principal) ([]domain.Request, error) {
	ok, err := s.dir.UserExists(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound("requester not found")
	}
	return s.stores.ListByRequester(ctx, actor.ID)
}

// ListForEvent returns every request filed against one of the caller's
// events, for moderation.
func (s *Service) ListForEvent(ctx context.Context, actor security.Principal, eventID uuid.UUID) ([]domain.Request, error) {
	ev, err := s.stores.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, ev.InitiatorID); err != nil {
		return nil, err
	}
	return s.stores.ListByEvent(ctx, eventID)
}
