package participation

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/domain"
	"github.com/eventlane/eventlane/internal/security"
)

// Submit files a participation request against a published event. With
// moderation off the request is confirmed and counted immediately, in the
// same transaction.
func (s *Service) Submit(ctx context.Context, actor security.Principal, eventID uuid.UUID) (domain.Request, error) {
	ok, err := s.dir.UserExists(ctx, actor.ID)
	if err != nil {
		return domain.Request{}, err
	}
	if !ok {
		return domain.Request{}, domain.ErrNotFound("requester not found")
	}

	var out domain.Request
	err = s.stores.WithTx(ctx, func(tx Tx) error {
		ev, err := tx.EventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if ev.InitiatorID == actor.ID {
			return domain.ErrConflict("initiator cannot request participation in own event")
		}
		if ev.State != domain.StatePublished {
			return domain.ErrConflict("event is not published")
		}

		dup, err := tx.HasActiveRequest(ctx, eventID, actor.ID)
		if err != nil {
			return err
		}
		if dup {
			return domain.ErrConflict("participation request already exists")
		}
		if !ev.HasCapacity() {
			return domain.ErrConflict("participant limit reached")
		}

		now := s.clock.Now()
		req := domain.NewRequest(actor.ID, eventID, ev.RequestModeration, now)
		if err := tx.InsertRequest(ctx, req); err != nil {
			return err
		}
		if req.Status == domain.RequestConfirmed {
			admit(&ev, req)
			if err := tx.SaveEvent(ctx, ev); err != nil {
				return err
			}
			if err := insertStatusOutbox(ctx, tx, req, nil, now); err != nil {
				return err
			}
		}
		out = req
		return nil
	})
	if err != nil {
		return domain.Request{}, err
	}

	if s.aud != nil {
		s.aud.RequestSubmitted(ctx, out.ID, out.EventID, out.RequesterID, out.Status)
	}
	return out, nil
}
