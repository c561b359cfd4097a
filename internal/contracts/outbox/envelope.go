// Package outbox holds the canonical envelope and payloads for domain
// events written to the transactional outbox.
package outbox

import "time"

const (
	Version  = 1
	Producer = "eventlane"
)

// Envelope is the stable wire contract for every message the outbox worker
// publishes. Consumers rely on version/producer/message_id/occurred_at plus
// the payload; trace_id is optional.
type Envelope[T any] struct {
	Version    int       `json:"version"`
	Producer   string    `json:"producer"`
	MessageID  string    `json:"message_id"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    T         `json:"payload"`
}

// Message is one pending outbox row as the application layer hands it to a
// store transaction.
type Message struct {
	MessageID  string
	RoutingKey string
	Body       []byte
	CreatedAt  time.Time
}

// EventPublishedPayload is the business payload for routing key: event.published
type EventPublishedPayload struct {
	EventID          string    `json:"event_id"`
	InitiatorID      string    `json:"initiator_id"`
	CategoryID       string    `json:"category_id"`
	Title            string    `json:"title"`
	EventDate        time.Time `json:"event_date"`
	ParticipantLimit int       `json:"participant_limit"`
	State            string    `json:"state"`
}

// EventCanceledPayload is the business payload for routing key: event.canceled
type EventCanceledPayload struct {
	EventID     string `json:"event_id"`
	InitiatorID string `json:"initiator_id"`
	State       string `json:"state"`
	ActorRole   string `json:"actor_role,omitempty"`
}

// RequestStatusPayload is the business payload for routing keys
// request.confirmed / request.rejected / request.canceled. CascadeOf names
// the request batch whose confirmation exhausted the quota, when the status
// change is an automatic rejection.
type RequestStatusPayload struct {
	EventID     string   `json:"event_id"`
	RequesterID string   `json:"requester_id"`
	RequestID   string   `json:"request_id"`
	Status      string   `json:"status"`
	CascadeOf   []string `json:"cascade_of,omitempty"`
}
