package domain

import (
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestConfirmed RequestStatus = "CONFIRMED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCanceled  RequestStatus = "CANCELED"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestConfirmed, RequestRejected, RequestCanceled:
		return true
	}
	return false
}

// Terminal statuses admit no further transition.
func (s RequestStatus) Terminal() bool {
	return s == RequestRejected || s == RequestCanceled
}

// Request is a user's application to attend an event. Like Event, it is an
// immutable snapshot; Transition returns the next snapshot or an *AppError.
type Request struct {
	ID          uuid.UUID
	RequesterID uuid.UUID
	EventID     uuid.UUID
	Status      RequestStatus
	Created     time.Time
}

// NewRequest creates a submission-time request. With moderation off the
// request is born CONFIRMED; the caller owes the event counter an increment
// in the same unit of work.
func NewRequest(requesterID, eventID uuid.UUID, moderated bool, now time.Time) Request {
	status := RequestConfirmed
	if moderated {
		status = RequestPending
	}
	return Request{
		ID:          uuid.New(),
		RequesterID: requesterID,
		EventID:     eventID,
		Status:      status,
		Created:     now.UTC(),
	}
}

// Transition enforces the request state machine:
//
//	PENDING   -> CONFIRMED | REJECTED | CANCELED
//	CONFIRMED -> CANCELED
//	REJECTED, CANCELED -> (terminal)
func (r Request) Transition(to RequestStatus) (Request, error) {
	if !to.Valid() {
		return Request{}, ErrValidation("unknown request status " + string(to))
	}
	if r.Status.Terminal() {
		return Request{}, ErrConflictMeta("request is in a terminal status", map[string]string{
			"request_id": r.ID.String(),
			"status":     string(r.Status),
		})
	}
	switch r.Status {
	case RequestPending:
		// any of the three targets is fine
	case RequestConfirmed:
		if to != RequestCanceled {
			return Request{}, ErrConflictMeta("confirmed request can only be canceled", map[string]string{
				"request_id": r.ID.String(),
			})
		}
	}
	r.Status = to
	return r, nil
}
