package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/contracts/outbox"
	"github.com/eventlane/eventlane/internal/domain"
	appctx "github.com/eventlane/eventlane/internal/pkg/context"
	"github.com/eventlane/eventlane/internal/security"
)

// AdminStateAction is the moderation verdict an administrator may attach to
// an update.
type AdminStateAction string

const (
	ActionPublishEvent AdminStateAction = "PUBLISH_EVENT"
	ActionRejectEvent  AdminStateAction = "REJECT_EVENT"
)

type UpdateAdminCmd struct {
	EventID uuid.UUID

	Patch       domain.EventPatch
	StateAction *AdminStateAction
}

// UpdateByAdmin is the moderation path: it bypasses the ownership check and
// may publish a pending event or reject an unpublished one.
func (s *Service) UpdateByAdmin(ctx context.Context, cmd UpdateAdminCmd) (domain.Event, error) {
	var out domain.Event

	err := s.repo.WithTx(ctx, func(tx EventTx) error {
		ev, err := tx.GetForUpdate(ctx, cmd.EventID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if err := domain.ValidateLeadTime(cmd.Patch.EffectiveDate(ev), now, domain.UpdateLeadTime); err != nil {
			return err
		}
		if cmd.Patch.CategoryID != nil {
			ok, err := s.dir.CategoryExists(ctx, *cmd.Patch.CategoryID)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrNotFound("category not found")
			}
		}

		ev, err = ev.WithPatch(cmd.Patch)
		if err != nil {
			return err
		}

		if cmd.StateAction != nil {
			switch *cmd.StateAction {
			case ActionPublishEvent:
				ev, err = ev.Publish(now)
				if err != nil {
					return err
				}
				if err := insertPublishedOutbox(ctx, tx, ev, now); err != nil {
					return err
				}
			case ActionRejectEvent:
				ev, err = ev.Reject()
				if err != nil {
					return err
				}
				if err := insertCanceledOutbox(ctx, tx, ev, security.RoleAdmin, now); err != nil {
					return err
				}
			default:
				return domain.ErrValidation("unknown state_action " + string(*cmd.StateAction))
			}
		}

		if err := tx.Save(ctx, ev); err != nil {
			return err
		}
		out = ev
		return nil
	})
	if err != nil {
		return domain.Event{}, err
	}

	s.invalidate(ctx, out.ID)
	if s.aud != nil && cmd.StateAction != nil {
		s.aud.EventModerated(ctx, out.ID, out.State)
	}
	return out, nil
}

// insertPublishedOutbox writes the durable event.published record in the
// same transaction as the PENDING -> PUBLISHED transition.
func insertPublishedOutbox(ctx context.Context, tx EventTx, ev domain.Event, now time.Time) error {
	messageID := uuid.NewString()
	env := outbox.Envelope[outbox.EventPublishedPayload]{
		Version:    outbox.Version,
		Producer:   outbox.Producer,
		MessageID:  messageID,
		TraceID:    appctx.RequestID(ctx),
		OccurredAt: now.UTC(),
		Payload: outbox.EventPublishedPayload{
			EventID:          ev.ID.String(),
			InitiatorID:      ev.InitiatorID.String(),
			CategoryID:       ev.CategoryID.String(),
			Title:            ev.Title,
			EventDate:        ev.EventDate,
			ParticipantLimit: ev.ParticipantLimit,
			State:            string(ev.State),
		},
	}
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return tx.InsertOutbox(ctx, outbox.Message{
		MessageID:  messageID,
		RoutingKey: "event.published",
		Body:       body,
		CreatedAt:  now.UTC(),
	})
}
