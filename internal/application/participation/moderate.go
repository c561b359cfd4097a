package participation

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/domain"
	"github.com/eventlane/eventlane/internal/security"
)

type ModerateCmd struct {
	Actor   security.Principal
	EventID uuid.UUID

	RequestIDs []uuid.UUID
	Target     domain.RequestStatus
}

// StatusUpdateResult is the post-moderation partition of the event's
// requests: every CONFIRMED and every REJECTED request, cascade included.
type StatusUpdateResult struct {
	Confirmed []domain.Request
	Rejected  []domain.Request
}

// Moderate confirms or rejects a batch of PENDING requests, all or nothing.
// Confirming past the participant limit fails before any change; confirming
// up to the limit auto-rejects every other PENDING request of the event.
func (s *Service) Moderate(ctx context.Context, cmd ModerateCmd) (StatusUpdateResult, error) {
	if cmd.Target != domain.RequestConfirmed && cmd.Target != domain.RequestRejected {
		return StatusUpdateResult{}, domain.ErrValidation("target status must be CONFIRMED or REJECTED")
	}
	if len(cmd.RequestIDs) == 0 {
		return StatusUpdateResult{}, domain.ErrValidation("request_ids must not be empty")
	}

	var out StatusUpdateResult
	err := s.stores.WithTx(ctx, func(tx Tx) error {
		ev, err := tx.EventForUpdate(ctx, cmd.EventID)
		if err != nil {
			return err
		}
		if err := authorize(cmd.Actor, ev.InitiatorID); err != nil {
			return err
		}
		if ev.ParticipantLimit == 0 {
			return domain.ErrConflict("event does not limit participants, moderation is not needed")
		}

		all, err := tx.RequestsByEvent(ctx, cmd.EventID)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]int, len(all))
		for i, r := range all {
			byID[r.ID] = i
		}

		var absent, stale []string
		targeted := make([]int, 0, len(cmd.RequestIDs))
		for _, id := range cmd.RequestIDs {
			i, ok := byID[id]
			if !ok {
				absent = append(absent, id.String())
				continue
			}
			if all[i].Status != domain.RequestPending {
				stale = append(stale, id.String())
				continue
			}
			targeted = append(targeted, i)
		}
		if len(absent) > 0 {
			return domain.ErrNotFoundMeta("some requests do not belong to this event", map[string]string{
				"request_ids": strings.Join(absent, ","),
			})
		}
		if len(stale) > 0 {
			return domain.ErrConflictMeta("only pending requests can be moderated", map[string]string{
				"request_ids": strings.Join(stale, ","),
			})
		}

		now := s.clock.Now()
		changed := make([]domain.Request, 0, len(targeted))

		if cmd.Target == domain.RequestConfirmed {
			if ev.ConfirmedRequests+len(targeted) > ev.ParticipantLimit {
				return domain.ErrConflict("participant limit reached")
			}
			for _, i := range targeted {
				next, err := moveStatus(&ev, all[i], domain.RequestConfirmed)
				if err != nil {
					return err
				}
				all[i] = next
				changed = append(changed, next)
			}
			if ev.ConfirmedRequests >= ev.ParticipantLimit {
				for i, r := range all {
					if r.Status != domain.RequestPending {
						continue
					}
					next, err := moveStatus(&ev, r, domain.RequestRejected)
					if err != nil {
						return err
					}
					all[i] = next
					changed = append(changed, next)
				}
			}
		} else {
			for _, i := range targeted {
				next, err := moveStatus(&ev, all[i], domain.RequestRejected)
				if err != nil {
					return err
				}
				all[i] = next
				changed = append(changed, next)
			}
		}

		if err := tx.SaveRequests(ctx, changed); err != nil {
			return err
		}
		if err := tx.SaveEvent(ctx, ev); err != nil {
			return err
		}
		for _, r := range changed {
			var cascade []uuid.UUID
			if r.Status == domain.RequestRejected && cmd.Target == domain.RequestConfirmed {
				cascade = cmd.RequestIDs
			}
			if err := insertStatusOutbox(ctx, tx, r, cascade, now); err != nil {
				return err
			}
		}

		for _, r := range all {
			switch r.Status {
			case domain.RequestConfirmed:
				out.Confirmed = append(out.Confirmed, r)
			case domain.RequestRejected:
				out.Rejected = append(out.Rejected, r)
			}
		}
		return nil
	})
	if err != nil {
		return StatusUpdateResult{}, err
	}

	if s.aud != nil {
		s.aud.RequestsModerated(ctx, cmd.EventID, cmd.Target, len(out.Confirmed), len(out.Rejected))
	}
	return out, nil
}
