package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/eventlane/eventlane/internal/contracts/outbox"
	"github.com/eventlane/eventlane/internal/domain"
	"github.com/eventlane/eventlane/internal/security"
)

// --- fakes ---

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

type memRepo struct {
	byID   map[uuid.UUID]domain.Event
	outbox []outbox.Message
}

func newMemRepo() *memRepo { return &memRepo{byID: map[uuid.UUID]domain.Event{}} }

func (m *memRepo) Create(_ context.Context, e domain.Event) error {
	m.byID[e.ID] = e
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Event, error) {
	e, ok := m.byID[id]
	if !ok {
		return domain.Event{}, domain.ErrNotFound("event not found")
	}
	return e, nil
}

func (m *memRepo) UpdateViews(_ context.Context, id uuid.UUID, views int64) error {
	e := m.byID[id]
	e.Views = views
	m.byID[id] = e
	return nil
}

func (m *memRepo) ListByInitiator(_ context.Context, initiatorID uuid.UUID, _, _ int) ([]domain.Event, error) {
	var out []domain.Event
	for _, e := range m.byID {
		if e.InitiatorID == initiatorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRepo) SearchAdmin(_ context.Context, _ AdminFilter) ([]domain.Event, error) {
	return nil, nil
}

func (m *memRepo) SearchCommon(_ context.Context, _ CommonFilter) ([]domain.Event, error) {
	return nil, nil
}

func (m *memRepo) WithTx(_ context.Context, fn func(tx EventTx) error) error {
	return fn(&memTx{repo: m})
}

type memTx struct{ repo *memRepo }

func (t *memTx) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	return t.repo.GetByID(ctx, id)
}

func (t *memTx) Save(_ context.Context, e domain.Event) error {
	t.repo.byID[e.ID] = e
	return nil
}

func (t *memTx) InsertOutbox(_ context.Context, m outbox.Message) error {
	t.repo.outbox = append(t.repo.outbox, m)
	return nil
}

type fakeDir struct {
	users      map[uuid.UUID]bool
	categories map[uuid.UUID]bool
}

func (d fakeDir) UserExists(_ context.Context, id uuid.UUID) (bool, error) {
	return d.users[id], nil
}

func (d fakeDir) CategoryExists(_ context.Context, id uuid.UUID) (bool, error) {
	return d.categories[id], nil
}

type fakeViews struct {
	hits int64
	err  error
}

func (v fakeViews) HitCount(_ context.Context, _ uuid.UUID, _ time.Time) (int64, error) {
	return v.hits, v.err
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tt, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("bad time %q: %v", s, err)
	}
	return tt.UTC()
}

func validDraft(eventDate time.Time) domain.EventDraft {
	return domain.EventDraft{
		Title:             "Garage jazz night",
		Annotation:        "An evening of improvised jazz in the old garage",
		Description:       "Bring your own chair, the band starts at eight and plays until midnight",
		EventDate:         eventDate,
		Location:          domain.Location{Lat: 55.75, Lon: 37.61},
		ParticipantLimit:  10,
		RequestModeration: true,
	}
}

type fixture struct {
	svc      *Service
	repo     *memRepo
	now      time.Time
	owner    uuid.UUID
	category uuid.UUID
}

func newFixture(t *testing.T, views ViewCounter) fixture {
	now := mustTime(t, "2025-12-25T10:00:00Z")
	repo := newMemRepo()
	owner := uuid.New()
	category := uuid.New()
	dir := fakeDir{
		users:      map[uuid.UUID]bool{owner: true},
		categories: map[uuid.UUID]bool{category: true},
	}
	return fixture{
		svc:      New(repo, dir, views, nil, nil, fakeClock{t: now}, 0),
		repo:     repo,
		now:      now,
		owner:    owner,
		category: category,
	}
}

func (f fixture) createEvent(t *testing.T) domain.Event {
	t.Helper()
	e, err := f.svc.Create(context.Background(), CreateCmd{
		Actor:      security.Principal{ID: f.owner, Role: security.RoleUser},
		CategoryID: f.category,
		Draft:      validDraft(f.now.Add(5 * time.Hour)),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return e
}

// --- tests ---

func TestService_Create(t *testing.T) {
	f := newFixture(t, nil)

	t.Run("creates_pending_event", func(t *testing.T) {
		e := f.createEvent(t)
		assert.Equal(t, domain.StatePending, e.State)
		assert.Equal(t, f.owner, e.InitiatorID)
	})

	t.Run("unknown_category_is_not_found", func(t *testing.T) {
		_, err := f.svc.Create(context.Background(), CreateCmd{
			Actor:      security.Principal{ID: f.owner, Role: security.RoleUser},
			CategoryID: uuid.New(),
			Draft:      validDraft(f.now.Add(5 * time.Hour)),
		})
		assert.Error(t, err)
		assert.Equal(t, domain.CodeNotFound, err.(*domain.AppError).Code)
	})

	t.Run("unknown_initiator_is_not_found", func(t *testing.T) {
		_, err := f.svc.Create(context.Background(), CreateCmd{
			Actor:      security.Principal{ID: uuid.New(), Role: security.RoleUser},
			CategoryID: f.category,
			Draft:      validDraft(f.now.Add(5 * time.Hour)),
		})
		assert.Error(t, err)
		assert.Equal(t, domain.CodeNotFound, err.(*domain.AppError).Code)
	})
}

func TestService_UpdateByOwner(t *testing.T) {
	t.Run("owner_patches_pending_event", func(t *testing.T) {
		f := newFixture(t, nil)
		e := f.createEvent(t)

		title := "Rooftop jazz night"
		out, err := f.svc.UpdateByOwner(context.Background(), UpdateOwnerCmd{
			Actor:   security.Principal{ID: f.owner, Role: security.RoleUser},
			EventID: e.ID,
			Patch:   domain.EventPatch{Title: &title},
		})
		assert.NoError(t, err)
		assert.Equal(t, "Rooftop jazz night", out.Title)
	})

	t.Run("stranger_is_forbidden", func(t *testing.T) {
		f := newFixture(t, nil)
		e := f.createEvent(t)

		_, err := f.svc.UpdateByOwner(context.Background(), UpdateOwnerCmd{
			Actor:   security.Principal{ID: uuid.New(), Role: security.RoleUser},
			EventID: e.ID,
		})
		assert.Error(t, err)
		assert.Equal(t, domain.CodeForbidden, err.(*domain.AppError).Code)
	})

	t.Run("published_event_is_not_editable", func(t *testing.T) {
		f := newFixture(t, nil)
		e := f.createEvent(t)
		published, _ := e.Publish(f.now)
		f.repo.byID[e.ID] = published

		title := "New title here"
		_, err := f.svc.UpdateByOwner(context.Background(), UpdateOwnerCmd{
			Actor:   security.Principal{ID: f.owner, Role: security.RoleUser},
			EventID: e.ID,
			Patch:   domain.EventPatch{Title: &title},
		})
		assert.Error(t, err)
		assert.Equal(t, domain.CodeConflict, err.(*domain.AppError).Code)
	})

	t.Run("cancel_review_writes_outbox", func(t *testing.T) {
		f := newFixture(t, nil)
		e := f.createEvent(t)

		action := ActionCancelReview
		out, err := f.svc.UpdateByOwner(context.Background(), UpdateOwnerCmd{
			Actor:       security.Principal{ID: f.owner, Role: security.RoleUser},
			EventID:     e.ID,
			StateAction: &action,
		})
		assert.NoError(t, err)
		assert.Equal(t, domain.StateCanceled, out.State)
		if assert.Len(t, f.repo.outbox, 1) {
			assert.Equal(t, "event.canceled", f.repo.outbox[0].RoutingKey)
		}
	})

	t.Run("canceled_event_returns_to_review", func(t *testing.T) {
		f := newFixture(t, nil)
		e := f.createEvent(t)
		canceled, _ := e.Withdraw()
		f.repo.byID[e.ID] = canceled

		action := ActionSendToReview
		out, err := f.svc.UpdateByOwner(context.Background(), UpdateOwnerCmd{
			Actor:       security.Principal{ID: f.owner, Role: security.RoleUser},
			EventID:     e.ID,
			StateAction: &action,
		})
		assert.NoError(t, err)
		assert.Equal(t, domain.StatePending, out.State)
	})

	t.Run("lead_time_enforced_on_patched_date", func(t *testing.T) {
		f := newFixture(t, nil)
		e := f.createEvent(t)

		soon := f.now.Add(30 * time.Minute)
		_, err := f.svc.UpdateByOwner(context.Background(), UpdateOwnerCmd{
			Actor:   security.Principal{ID: f.owner, Role: security.RoleUser},
			EventID: e.ID,
			Patch:   domain.EventPatch{EventDate: &soon},
		})
		assert.Error(t, err)
		assert.Equal(t, domain.CodeValidation, err.(*domain.AppError).Code)
	})
}

func TestService_UpdateByAdmin(t *testing.T) {
	t.Run("publish_stamps_published_on_and_writes_outbox", func(t *testing.T) {
		f := newFixture(t, nil)
		e := f.createEvent(t)

		action := ActionPublishEvent
		out, err := f.svc.UpdateByAdmin(context.Background(), UpdateAdminCmd{
			EventID:     e.ID,
			StateAction: &action,
		})
		assert.NoError(t, err)
		assert.Equal(t, domain.StatePublished, out.State)
		assert.NotNil(t, out.PublishedOn)
		if assert.Len(t, f.repo.outbox, 1) {
			assert.Equal(t, "event.published", f.repo.outbox[0].RoutingKey)
		}
	})

	t.Run("publish_canceled_event_conflicts", func(t *testing.T) {
		f := newFixture(t, nil)
		e := f.createEvent(t)
		canceled, _ := e.Withdraw()
		f.repo.byID[e.ID] = canceled

		action := ActionPublishEvent
		_, err := f.svc.UpdateByAdmin(context.Background(), UpdateAdminCmd{
			EventID:     e.ID,
			StateAction: &action,
		})
		assert.Error(t, err)
		assert.Equal(t, domain.CodeConflict, err.(*domain.AppError).Code)
	})

	t.Run("reject_published_event_conflicts", func(t *testing.T) {
		f := newFixture(t, nil)
		e := f.createEvent(t)
		published, _ := e.Publish(f.now)
		f.repo.byID[e.ID] = published

		action := ActionRejectEvent
		_, err := f.svc.UpdateByAdmin(context.Background(), UpdateAdminCmd{
			EventID:     e.ID,
			StateAction: &action,
		})
		assert.Error(t, err)
		assert.Equal(t, domain.CodeConflict, err.(*domain.AppError).Code)
	})
}

func TestService_FindPublished(t *testing.T) {
	t.Run("pending_event_is_invisible", func(t *testing.T) {
		f := newFixture(t, nil)
		e := f.createEvent(t)

		_, err := f.svc.FindPublished(context.Background(), e.ID)
		assert.Error(t, err)
		assert.Equal(t, domain.CodeNotFound, err.(*domain.AppError).Code)
	})

	t.Run("published_event_gets_fresh_views", func(t *testing.T) {
		f := newFixture(t, fakeViews{hits: 42})
		e := f.createEvent(t)
		published, _ := e.Publish(f.now)
		f.repo.byID[e.ID] = published

		out, err := f.svc.FindPublished(context.Background(), e.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), out.Views)
		assert.Equal(t, int64(42), f.repo.byID[e.ID].Views)
	})

	t.Run("counter_failure_degrades_to_stale_count", func(t *testing.T) {
		f := newFixture(t, fakeViews{err: errors.New("stats down")})
		e := f.createEvent(t)
		published, _ := e.Publish(f.now)
		published.Views = 7
		f.repo.byID[e.ID] = published

		out, err := f.svc.FindPublished(context.Background(), e.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(7), out.Views)
	})
}

func TestService_FindByOwner(t *testing.T) {
	f := newFixture(t, nil)
	e := f.createEvent(t)

	t.Run("owner_sees_pending_event", func(t *testing.T) {
		out, err := f.svc.FindByOwner(context.Background(), security.Principal{ID: f.owner, Role: security.RoleUser}, e.ID)
		assert.NoError(t, err)
		assert.Equal(t, e.ID, out.ID)
	})

	t.Run("admin_sees_any_event", func(t *testing.T) {
		_, err := f.svc.FindByOwner(context.Background(), security.Principal{ID: uuid.New(), Role: security.RoleAdmin}, e.ID)
		assert.NoError(t, err)
	})

	t.Run("stranger_is_forbidden", func(t *testing.T) {
		_, err := f.svc.FindByOwner(context.Background(), security.Principal{ID: uuid.New(), Role: security.RoleUser}, e.ID)
		assert.Error(t, err)
		assert.Equal(t, domain.CodeForbidden, err.(*domain.AppError).Code)
	})
}

func TestService_SearchCommon_Validation(t *testing.T) {
	f := newFixture(t, nil)

	start := mustTime(t, "2025-12-30T00:00:00Z")
	end := start.Add(-time.Hour)
	_, err := f.svc.SearchCommon(context.Background(), CommonFilter{RangeStart: &start, RangeEnd: &end})
	assert.Error(t, err)
	assert.Equal(t, domain.CodeValidation, err.(*domain.AppError).Code)

	_, err = f.svc.SearchCommon(context.Background(), CommonFilter{Sort: "POPULARITY"})
	assert.Error(t, err)
}
