package participation

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/domain"
	"github.com/eventlane/eventlane/internal/security"
)

// Cancel withdraws the caller's own request. Canceling a CONFIRMED request
// releases its slot; canceling a request already in a terminal status is a
// conflict, so the slot can never be released twice.
func (s *Service) Cancel(ctx context.Context, actor security.Principal, requestID uuid.UUID) (domain.Request, error) {
	var out domain.Request
	err := s.stores.WithTx(ctx, func(tx Tx) error {
		// Unlocked read to learn the event; the event row lock below comes
		// first, then the request is re-read under it.
		probe, err := tx.RequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if err := authorize(actor, probe.RequesterID); err != nil {
			return err
		}

		ev, err := tx.EventForUpdate(ctx, probe.EventID)
		if err != nil {
			return err
		}
		req, err := tx.RequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}

		next, err := moveStatus(&ev, req, domain.RequestCanceled)
		if err != nil {
			return err
		}
		if err := tx.SaveRequests(ctx, []domain.Request{next}); err != nil {
			return err
		}
		if err := tx.SaveEvent(ctx, ev); err != nil {
			return err
		}
		if err := insertStatusOutbox(ctx, tx, next, nil, s.clock.Now()); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return domain.Request{}, err
	}

	if s.aud != nil {
		s.aud.RequestCanceled(ctx, out.ID, out.RequesterID)
	}
	return out, nil
}
