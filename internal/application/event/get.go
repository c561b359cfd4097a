package event

import (
	"context"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/eventlane/eventlane/internal/domain"
	"github.com/eventlane/eventlane/internal/security"
)

func cacheKeyEventDetails(id string) string { return "event:" + id }

// FindPublished is the public lookup: unpublished events are invisible here
// even when the row exists. The view count is refreshed from the hit
// counter; a counter failure degrades to a stale/zero count, never to an
// operation failure.
func (s *Service) FindPublished(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	key := cacheKeyEventDetails(id.String())
	if s.cache != nil {
		var cached domain.Event
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache get failed")
		} else if found {
			return cached, nil
		}
	}

	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Event{}, err
	}
	if e.State != domain.StatePublished {
		return domain.Event{}, domain.ErrNotFound("event not found")
	}

	if n := s.refreshViews(ctx, e); n != e.Views {
		e.Views = n
		if err := s.repo.UpdateViews(ctx, e.ID, n); err != nil {
			zlog.Warn().Err(err).Str("event_id", e.ID.String()).Msg("view count persist failed")
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, e, s.ttlDetails); err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return e, nil
}

// FindByOwner returns the full view of an event to its initiator (or an
// admin), regardless of state.
func (s *Service) FindByOwner(ctx context.Context, actor security.Principal, id uuid.UUID) (domain.Event, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Event{}, err
	}
	if err := authorize(actor, e.InitiatorID); err != nil {
		return domain.Event{}, err
	}
	return e, nil
}

func (s *Service) refreshViews(ctx context.Context, e domain.Event) int64 {
	if s.views == nil {
		return e.Views
	}
	since := e.CreatedOn
	if e.PublishedOn != nil {
		since = *e.PublishedOn
	}
	n, err := s.views.HitCount(ctx, e.ID, since)
	if err != nil {
		zlog.Warn().Err(err).Str("event_id", e.ID.String()).Msg("view counter unavailable")
		return e.Views
	}
	return n
}
