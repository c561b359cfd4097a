package rest

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/domain"
)

type EventDTO struct {
	ID          uuid.UUID `json:"id"`
	InitiatorID uuid.UUID `json:"initiator_id"`
	CategoryID  uuid.UUID `json:"category_id"`

	Title       string `json:"title"`
	Annotation  string `json:"annotation"`
	Description string `json:"description"`

	EventDate time.Time       `json:"event_date"`
	Location  domain.Location `json:"location"`
	Paid      bool            `json:"paid"`

	ParticipantLimit  int  `json:"participant_limit"`
	RequestModeration bool `json:"request_moderation"`

	State             string `json:"state"`
	ConfirmedRequests int    `json:"confirmed_requests"`

	CreatedOn   time.Time  `json:"created_on"`
	PublishedOn *time.Time `json:"published_on,omitempty"`

	Views int64 `json:"views"`
}

func toEventDTO(e domain.Event) EventDTO {
	return EventDTO{
		ID:                e.ID,
		InitiatorID:       e.InitiatorID,
		CategoryID:        e.CategoryID,
		Title:             e.Title,
		Annotation:        e.Annotation,
		Description:       e.Description,
		EventDate:         e.EventDate,
		Location:          e.Location,
		Paid:              e.Paid,
		ParticipantLimit:  e.ParticipantLimit,
		RequestModeration: e.RequestModeration,
		State:             string(e.State),
		ConfirmedRequests: e.ConfirmedRequests,
		CreatedOn:         e.CreatedOn,
		PublishedOn:       e.PublishedOn,
		Views:             e.Views,
	}
}

func toEventDTOs(es []domain.Event) []EventDTO {
	out := make([]EventDTO, 0, len(es))
	for _, e := range es {
		out = append(out, toEventDTO(e))
	}
	return out
}

type RequestDTO struct {
	ID          uuid.UUID `json:"id"`
	RequesterID uuid.UUID `json:"requester_id"`
	EventID     uuid.UUID `json:"event_id"`
	Status      string    `json:"status"`
	Created     time.Time `json:"created"`
}

func toRequestDTO(r domain.Request) RequestDTO {
	return RequestDTO{
		ID:          r.ID,
		RequesterID: r.RequesterID,
		EventID:     r.EventID,
		Status:      string(r.Status),
		Created:     r.Created,
	}
}

func toRequestDTOs(rs []domain.Request) []RequestDTO {
	out := make([]RequestDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, toRequestDTO(r))
	}
	return out
}

// eventDraftBody is the create payload.
type eventDraftBody struct {
	CategoryID        string          `json:"category_id"`
	Title             string          `json:"title"`
	Annotation        string          `json:"annotation"`
	Description       string          `json:"description"`
	EventDate         time.Time       `json:"event_date"`
	Location          domain.Location `json:"location"`
	Paid              bool            `json:"paid"`
	ParticipantLimit  int             `json:"participant_limit"`
	RequestModeration *bool           `json:"request_moderation"`
}

func (b eventDraftBody) draft() domain.EventDraft {
	moderation := true
	if b.RequestModeration != nil {
		moderation = *b.RequestModeration
	}
	return domain.EventDraft{
		Title:             b.Title,
		Annotation:        b.Annotation,
		Description:       b.Description,
		EventDate:         b.EventDate,
		Location:          b.Location,
		Paid:              b.Paid,
		ParticipantLimit:  b.ParticipantLimit,
		RequestModeration: moderation,
	}
}

// eventPatchBody carries optional updates; absent fields stay unchanged.
type eventPatchBody struct {
	CategoryID        *string          `json:"category_id"`
	Title             *string          `json:"title"`
	Annotation        *string          `json:"annotation"`
	Description       *string          `json:"description"`
	EventDate         *time.Time       `json:"event_date"`
	Location          *domain.Location `json:"location"`
	Paid              *bool            `json:"paid"`
	ParticipantLimit  *int             `json:"participant_limit"`
	RequestModeration *bool            `json:"request_moderation"`
	StateAction       *string          `json:"state_action"`
}

func (b eventPatchBody) patch() (domain.EventPatch, error) {
	p := domain.EventPatch{
		Title:             b.Title,
		Annotation:        b.Annotation,
		Description:       b.Description,
		Location:          b.Location,
		Paid:              b.Paid,
		ParticipantLimit:  b.ParticipantLimit,
		RequestModeration: b.RequestModeration,
	}
	if b.EventDate != nil {
		t := b.EventDate.UTC()
		p.EventDate = &t
	}
	if b.CategoryID != nil {
		id, err := uuid.Parse(*b.CategoryID)
		if err != nil {
			return domain.EventPatch{}, err
		}
		p.CategoryID = &id
	}
	return p, nil
}
