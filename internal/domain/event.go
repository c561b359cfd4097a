package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventState string

const (
	StatePending   EventState = "PENDING"
	StatePublished EventState = "PUBLISHED"
	StateCanceled  EventState = "CANCELED"
)

func (s EventState) Valid() bool {
	return s == StatePending || s == StatePublished || s == StateCanceled
}

// Lead-time margins for the event date, relative to the moment of the
// operation. Creation demands a wider margin than later edits.
const (
	CreateLeadTime = 2 * time.Hour
	UpdateLeadTime = 1 * time.Hour
)

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (l Location) validate() error {
	if l.Lat < -90 || l.Lat > 90 {
		return ErrValidation("location.lat must be within [-90, 90]")
	}
	if l.Lon < -180 || l.Lon > 180 {
		return ErrValidation("location.lon must be within [-180, 180]")
	}
	return nil
}

// Event is an immutable snapshot of an organizer-created gathering. All
// transitions are value-receiver methods that return a new snapshot or an
// *AppError; nothing outside this package mutates state in place.
type Event struct {
	ID          uuid.UUID
	InitiatorID uuid.UUID
	CategoryID  uuid.UUID

	Title       string
	Annotation  string
	Description string

	EventDate time.Time
	Location  Location
	Paid      bool

	ParticipantLimit  int // 0 = unlimited
	RequestModeration bool

	State             EventState
	ConfirmedRequests int

	CreatedOn   time.Time
	PublishedOn *time.Time

	// Views is derived from the hit counter on read; never authoritative.
	Views int64
}

type EventDraft struct {
	Title             string
	Annotation        string
	Description       string
	EventDate         time.Time
	Location          Location
	Paid              bool
	ParticipantLimit  int
	RequestModeration bool
}

func NewEvent(initiatorID, categoryID uuid.UUID, d EventDraft, now time.Time) (Event, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Annotation = strings.TrimSpace(d.Annotation)
	d.Description = strings.TrimSpace(d.Description)

	if err := validateTitle(d.Title); err != nil {
		return Event{}, err
	}
	if err := validateAnnotation(d.Annotation); err != nil {
		return Event{}, err
	}
	if err := validateDescription(d.Description); err != nil {
		return Event{}, err
	}
	if err := d.Location.validate(); err != nil {
		return Event{}, err
	}
	if d.ParticipantLimit < 0 {
		return Event{}, ErrValidation("participant_limit must be >= 0 (0 means unlimited)")
	}
	if err := ValidateLeadTime(d.EventDate, now, CreateLeadTime); err != nil {
		return Event{}, err
	}

	return Event{
		ID:                uuid.New(),
		InitiatorID:       initiatorID,
		CategoryID:        categoryID,
		Title:             d.Title,
		Annotation:        d.Annotation,
		Description:       d.Description,
		EventDate:         d.EventDate.UTC(),
		Location:          d.Location,
		Paid:              d.Paid,
		ParticipantLimit:  d.ParticipantLimit,
		RequestModeration: d.RequestModeration,
		State:             StatePending,
		CreatedOn:         now.UTC(),
	}, nil
}

// ValidateLeadTime enforces the role-dependent margin between "now" and the
// event date.
func ValidateLeadTime(date, now time.Time, margin time.Duration) error {
	if date.Before(now.Add(margin)) {
		return ErrValidationMeta("event_date too soon", map[string]string{
			"event_date": "must be at least " + margin.String() + " in the future",
		})
	}
	return nil
}

// EventPatch carries optional field updates; a nil field means "leave
// unchanged". The same merge rule applies to every mutable field.
type EventPatch struct {
	CategoryID        *uuid.UUID
	Title             *string
	Annotation        *string
	Description       *string
	EventDate         *time.Time
	Location          *Location
	Paid              *bool
	ParticipantLimit  *int
	RequestModeration *bool
}

// EffectiveDate is the event date the patch would leave in place, used for
// lead-time checks before the merge happens.
func (p EventPatch) EffectiveDate(e Event) time.Time {
	if p.EventDate != nil {
		return p.EventDate.UTC()
	}
	return e.EventDate
}

// WithPatch merges the patch into a copy of the event. Field-shape rules are
// re-checked for every supplied field; lead-time and state rules are the
// caller's concern.
func (e Event) WithPatch(p EventPatch) (Event, error) {
	if p.CategoryID != nil {
		e.CategoryID = *p.CategoryID
	}
	if p.Title != nil {
		v := strings.TrimSpace(*p.Title)
		if err := validateTitle(v); err != nil {
			return Event{}, err
		}
		e.Title = v
	}
	if p.Annotation != nil {
		v := strings.TrimSpace(*p.Annotation)
		if err := validateAnnotation(v); err != nil {
			return Event{}, err
		}
		e.Annotation = v
	}
	if p.Description != nil {
		v := strings.TrimSpace(*p.Description)
		if err := validateDescription(v); err != nil {
			return Event{}, err
		}
		e.Description = v
	}
	if p.EventDate != nil {
		e.EventDate = p.EventDate.UTC()
	}
	if p.Location != nil {
		if err := p.Location.validate(); err != nil {
			return Event{}, err
		}
		e.Location = *p.Location
	}
	if p.Paid != nil {
		e.Paid = *p.Paid
	}
	if p.ParticipantLimit != nil {
		if *p.ParticipantLimit < 0 {
			return Event{}, ErrValidation("participant_limit must be >= 0 (0 means unlimited)")
		}
		e.ParticipantLimit = *p.ParticipantLimit
	}
	if p.RequestModeration != nil {
		e.RequestModeration = *p.RequestModeration
	}
	return e, nil
}

// Publish moves PENDING -> PUBLISHED and stamps PublishedOn.
func (e Event) Publish(now time.Time) (Event, error) {
	if e.State != StatePending {
		return Event{}, ErrConflict("only a pending event can be published")
	}
	t := now.UTC()
	e.State = StatePublished
	e.PublishedOn = &t
	return e, nil
}

// Reject is the administrative PENDING/CANCELED -> CANCELED transition; a
// published event can no longer be rejected.
func (e Event) Reject() (Event, error) {
	if e.State == StatePublished {
		return Event{}, ErrConflict("a published event cannot be rejected")
	}
	e.State = StateCanceled
	return e, nil
}

// SubmitForReview returns a canceled or pending event to the review queue.
func (e Event) SubmitForReview() (Event, error) {
	if e.State == StatePublished {
		return Event{}, ErrConflict("a published event cannot be sent to review")
	}
	e.State = StatePending
	return e, nil
}

// Withdraw is the owner's PENDING/CANCELED -> CANCELED transition.
func (e Event) Withdraw() (Event, error) {
	if e.State == StatePublished {
		return Event{}, ErrConflict("a published event cannot be withdrawn")
	}
	e.State = StateCanceled
	return e, nil
}

// HasCapacity reports whether another confirmed request fits the quota.
func (e Event) HasCapacity() bool {
	return e.ParticipantLimit == 0 || e.ConfirmedRequests < e.ParticipantLimit
}

func validateTitle(v string) error {
	if len(v) < 3 || len(v) > 120 {
		return ErrValidation("title must be 3..120 chars")
	}
	return nil
}

func validateAnnotation(v string) error {
	if len(v) < 20 || len(v) > 2000 {
		return ErrValidation("annotation must be 20..2000 chars")
	}
	return nil
}

func validateDescription(v string) error {
	if len(v) < 20 || len(v) > 7000 {
		return ErrValidation("description must be 20..7000 chars")
	}
	return nil
}
