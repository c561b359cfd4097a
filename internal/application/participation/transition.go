package participation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/contracts/outbox"
	"github.com/eventlane/eventlane/internal/domain"
	appctx "github.com/eventlane/eventlane/internal/pkg/context"
)

// All confirmed-counter arithmetic in this package lives in this file.
// Every status change goes through moveStatus (or admit, for requests born
// CONFIRMED), so the counter always equals the CONFIRMED population of the
// event within one unit of work.

// moveStatus transitions one request and adjusts the event counter when the
// request enters or leaves CONFIRMED.
func moveStatus(ev *domain.Event, req domain.Request, to domain.RequestStatus) (domain.Request, error) {
	next, err := req.Transition(to)
	if err != nil {
		return domain.Request{}, err
	}
	switch {
	case req.Status != domain.RequestConfirmed && next.Status == domain.RequestConfirmed:
		ev.ConfirmedRequests++
	case req.Status == domain.RequestConfirmed && next.Status != domain.RequestConfirmed:
		ev.ConfirmedRequests--
	}
	return next, nil
}

// admit accounts for a request created CONFIRMED at submission time, when
// the event does not moderate requests.
func admit(ev *domain.Event, req domain.Request) {
	if req.Status == domain.RequestConfirmed {
		ev.ConfirmedRequests++
	}
}

func routingKeyFor(status domain.RequestStatus) string {
	switch status {
	case domain.RequestConfirmed:
		return "request.confirmed"
	case domain.RequestRejected:
		return "request.rejected"
	case domain.RequestCanceled:
		return "request.canceled"
	}
	return "request.pending"
}

// insertStatusOutbox writes the durable request.* record in the same
// transaction as the status change. cascadeOf is set only on automatic
// rejections triggered by quota exhaustion.
func insertStatusOutbox(ctx context.Context, tx Tx, req domain.Request, cascadeOf []uuid.UUID, now time.Time) error {
	messageID := uuid.NewString()
	var cascade []string
	for _, id := range cascadeOf {
		cascade = append(cascade, id.String())
	}
	env := outbox.Envelope[outbox.RequestStatusPayload]{
		Version:    outbox.Version,
		Producer:   outbox.Producer,
		MessageID:  messageID,
		TraceID:    appctx.RequestID(ctx),
		OccurredAt: now.UTC(),
		Payload: outbox.RequestStatusPayload{
			EventID:     req.EventID.String(),
			RequesterID: req.RequesterID.String(),
			RequestID:   req.ID.String(),
			Status:      string(req.Status),
			CascadeOf:   cascade,
		},
	}
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return tx.InsertOutbox(ctx, outbox.Message{
		MessageID:  messageID,
		RoutingKey: routingKeyFor(req.Status),
		Body:       body,
		CreatedAt:  now.UTC(),
	})
}
