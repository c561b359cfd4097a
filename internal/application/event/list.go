package event

import (
	"context"

	"github.com/eventlane/eventlane/internal/domain"
	"github.com/eventlane/eventlane/internal/security"
)

func clampPage(from, size int) (int, int) {
	if from < 0 {
		from = 0
	}
	if size <= 0 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return from, size
}

// ListByOwner pages through the actor's own events, newest first.
func (s *Service) ListByOwner(ctx context.Context, actor security.Principal, from, size int) ([]domain.Event, error) {
	from, size = clampPage(from, size)
	return s.repo.ListByInitiator(ctx, actor.ID, from, size)
}

// SearchAdmin is the moderation search over all events.
func (s *Service) SearchAdmin(ctx context.Context, f AdminFilter) ([]domain.Event, error) {
	f.From, f.Size = clampPage(f.From, f.Size)
	return s.repo.SearchAdmin(ctx, f)
}

// SearchCommon is the public search; only published events are visible.
func (s *Service) SearchCommon(ctx context.Context, f CommonFilter) ([]domain.Event, error) {
	if f.RangeStart != nil && f.RangeEnd != nil && f.RangeEnd.Before(*f.RangeStart) {
		return nil, domain.ErrValidation("range_end must not be before range_start")
	}
	if f.Sort == "" {
		f.Sort = SortEventDate
	}
	if f.Sort != SortEventDate && f.Sort != SortViews {
		return nil, domain.ErrValidation("sort must be EVENT_DATE or VIEWS")
	}
	f.From, f.Size = clampPage(f.From, f.Size)
	return s.repo.SearchCommon(ctx, f)
}
