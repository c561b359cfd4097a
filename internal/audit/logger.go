package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eventlane/eventlane/internal/domain"
	appctx "github.com/eventlane/eventlane/internal/pkg/context"
)

// Logger provides structured audit logging for business events
type Logger struct {
	log zerolog.Logger
}

// New creates a new audit logger
func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

// EventCreated logs a newly submitted event draft
func (l *Logger) EventCreated(ctx context.Context, eventID, initiatorID uuid.UUID) {
	l.log.Info().
		Str("action", "event_created").
		Str("event_id", eventID.String()).
		Str("initiator_id", initiatorID.String()).
		Str("trace_id", appctx.RequestID(ctx)).
		Msg("Event created")
}

// EventModerated logs an admin publish/reject verdict
func (l *Logger) EventModerated(ctx context.Context, eventID uuid.UUID, state domain.EventState) {
	l.log.Info().
		Str("action", "event_moderated").
		Str("event_id", eventID.String()).
		Str("state", string(state)).
		Str("trace_id", appctx.RequestID(ctx)).
		Msg("Event moderated")
}

// RequestSubmitted logs a new participation request
func (l *Logger) RequestSubmitted(ctx context.Context, requestID, eventID, requesterID uuid.UUID, status domain.RequestStatus) {
	l.log.Info().
		Str("action", "request_submitted").
		Str("request_id", requestID.String()).
		Str("event_id", eventID.String()).
		Str("requester_id", requesterID.String()).
		Str("status", string(status)).
		Str("trace_id", appctx.RequestID(ctx)).
		Msg("Participation request submitted")
}

// RequestCanceled logs a requester withdrawing their own request
func (l *Logger) RequestCanceled(ctx context.Context, requestID, requesterID uuid.UUID) {
	l.log.Info().
		Str("action", "request_canceled").
		Str("request_id", requestID.String()).
		Str("requester_id", requesterID.String()).
		Str("trace_id", appctx.RequestID(ctx)).
		Msg("Participation request canceled")
}

// RequestsModerated logs a bulk confirm/reject decision by the event owner
func (l *Logger) RequestsModerated(ctx context.Context, eventID uuid.UUID, target domain.RequestStatus, confirmed, rejected int) {
	l.log.Info().
		Str("action", "requests_moderated").
		Str("event_id", eventID.String()).
		Str("target_status", string(target)).
		Int("confirmed", confirmed).
		Int("rejected", rejected).
		Str("trace_id", appctx.RequestID(ctx)).
		Msg("Participation requests moderated")
}
