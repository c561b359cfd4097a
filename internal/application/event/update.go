package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/eventlane/eventlane/internal/contracts/outbox"
	"github.com/eventlane/eventlane/internal/domain"
	appctx "github.com/eventlane/eventlane/internal/pkg/context"
	"github.com/eventlane/eventlane/internal/security"
)

// UserStateAction is the state transition an owner may request alongside a
// field patch.
type UserStateAction string

const (
	ActionSendToReview UserStateAction = "SEND_TO_REVIEW"
	ActionCancelReview UserStateAction = "CANCEL_REVIEW"
)

type UpdateOwnerCmd struct {
	Actor   security.Principal
	EventID uuid.UUID

	Patch       domain.EventPatch
	StateAction *UserStateAction
}

// UpdateByOwner edits a PENDING or CANCELED event. A published event is
// never editable through this path, whatever the patch contains.
func (s *Service) UpdateByOwner(ctx context.Context, cmd UpdateOwnerCmd) (domain.Event, error) {
	var out domain.Event

	err := s.repo.WithTx(ctx, func(tx EventTx) error {
		ev, err := tx.GetForUpdate(ctx, cmd.EventID)
		if err != nil {
			return err
		}
		if err := authorize(cmd.Actor, ev.InitiatorID); err != nil {
			return err
		}
		if ev.State == domain.StatePublished {
			return domain.ErrConflict("a published event cannot be edited")
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
			case ActionSendToReview:
				ev, err = ev.SubmitForReview()
			case ActionCancelReview:
				ev, err = ev.Withdraw()
			default:
				err = domain.ErrValidation("unknown state_action " + string(*cmd.StateAction))
			}
			if err != nil {
				return err
			}
			if *cmd.StateAction == ActionCancelReview {
				if err := insertCanceledOutbox(ctx, tx, ev, cmd.Actor.Role, now); err != nil {
					return err
				}
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
	return out, nil
}

// insertCanceledOutbox writes the durable event.canceled record in the same
// transaction as the state change.
func insertCanceledOutbox(ctx context.Context, tx EventTx, ev domain.Event, actorRole string, now time.Time) error {
	messageID := uuid.NewString()
	env := outbox.Envelope[outbox.EventCanceledPayload]{
		Version:    outbox.Version,
		Producer:   outbox.Producer,
		MessageID:  messageID,
		TraceID:    appctx.RequestID(ctx),
		OccurredAt: now.UTC(),
		Payload: outbox.EventCanceledPayload{
			EventID:     ev.ID.String(),
			InitiatorID: ev.InitiatorID.String(),
			State:       string(ev.State),
			ActorRole:   actorRole,
		},
	}
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return tx.InsertOutbox(ctx, outbox.Message{
		MessageID:  messageID,
		RoutingKey: "event.canceled",
		Body:       body,
		CreatedAt:  now.UTC(),
	})
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	key := cacheKeyEventDetails(id.String())
	if err := s.cache.Delete(ctx, key); err != nil {
		zlog.Warn().Err(err).Str("key", key).Msg("cache invalidate failed")
	}
}
