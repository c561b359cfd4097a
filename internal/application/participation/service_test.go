package participation

import (
	"context"
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

// memStores implements Stores and Tx over plain maps. Request insertion
// order is preserved so moderation batches behave deterministically.
type memStores struct {
	events   map[uuid.UUID]domain.Event
	requests map[uuid.UUID]domain.Request
	order    []uuid.UUID
	outbox   []outbox.Message
}

func newMemStores() *memStores {
	return &memStores{
		events:   map[uuid.UUID]domain.Event{},
		requests: map[uuid.UUID]domain.Request{},
	}
}

func (m *memStores) WithTx(_ context.Context, fn func(tx Tx) error) error {
	return fn(m)
}

func (m *memStores) GetEvent(_ context.Context, id uuid.UUID) (domain.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return domain.Event{}, domain.ErrNotFound("event not found")
	}
	return e, nil
}

func (m *memStores) ListByRequester(_ context.Context, requesterID uuid.UUID) ([]domain.Request, error) {
	var out []domain.Request
	for _, id := range m.order {
		if r := m.requests[id]; r.RequesterID == requesterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStores) ListByEvent(_ context.Context, eventID uuid.UUID) ([]domain.Request, error) {
	var out []domain.Request
	for _, id := range m.order {
		if r := m.requests[id]; r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStores) EventForUpdate(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	return m.GetEvent(ctx, id)
}

func (m *memStores) SaveEvent(_ context.Context, e domain.Event) error {
	m.events[e.ID] = e
	return nil
}

func (m *memStores) RequestByID(_ context.Context, id uuid.UUID) (domain.Request, error) {
	r, ok := m.requests[id]
	if !ok {
		return domain.Request{}, domain.ErrNotFound("request not found")
	}
	return r, nil
}

func (m *memStores) RequestForUpdate(ctx context.Context, id uuid.UUID) (domain.Request, error) {
	return m.RequestByID(ctx, id)
}

func (m *memStores) RequestsByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Request, error) {
	return m.ListByEvent(ctx, eventID)
}

func (m *memStores) HasActiveRequest(_ context.Context, eventID, requesterID uuid.UUID) (bool, error) {
	for _, r := range m.requests {
		if r.EventID == eventID && r.RequesterID == requesterID && r.Status != domain.RequestCanceled {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStores) InsertRequest(_ context.Context, r domain.Request) error {
	m.requests[r.ID] = r
	m.order = append(m.order, r.ID)
	return nil
}

func (m *memStores) SaveRequests(_ context.Context, rs []domain.Request) error {
	for _, r := range rs {
		m.requests[r.ID] = r
	}
	return nil
}

func (m *memStores) InsertOutbox(_ context.Context, msg outbox.Message) error {
	m.outbox = append(m.outbox, msg)
	return nil
}

type fakeDir struct{ users map[uuid.UUID]bool }

func (d fakeDir) UserExists(_ context.Context, id uuid.UUID) (bool, error) {
	return d.users[id], nil
}

// --- fixture ---

type fixture struct {
	svc    *Service
	stores *memStores
	dir    fakeDir
	now    time.Time
	owner  uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		stores: newMemStores(),
		dir:    fakeDir{users: map[uuid.UUID]bool{}},
		now:    time.Date(2025, 12, 25, 10, 0, 0, 0, time.UTC),
		owner:  uuid.New(),
	}
	f.dir.users[f.owner] = true
	f.svc = New(f.stores, f.dir, nil, fakeClock{t: f.now})
	return f
}

func (f *fixture) user() security.Principal {
	id := uuid.New()
	f.dir.users[id] = true
	return security.Principal{ID: id, Role: security.RoleUser}
}

func (f *fixture) publishedEvent(limit int, moderated bool) domain.Event {
	published := f.now.Add(-time.Hour)
	e := domain.Event{
		ID:                uuid.New(),
		InitiatorID:       f.owner,
		State:             domain.StatePublished,
		ParticipantLimit:  limit,
		RequestModeration: moderated,
		CreatedOn:         f.now.Add(-2 * time.Hour),
		PublishedOn:       &published,
		EventDate:         f.now.Add(24 * time.Hour),
	}
	f.stores.events[e.ID] = e
	return e
}

func (f *fixture) pendingRequest(eventID uuid.UUID) domain.Request {
	r := domain.NewRequest(f.user().ID, eventID, true, f.now)
	_ = f.stores.InsertRequest(context.Background(), r)
	return r
}

func outboxKeys(msgs []outbox.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.RoutingKey)
	}
	return out
}

// --- tests ---

func TestService_Submit(t *testing.T) {
	t.Run("moderated_event_files_pending_request", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(5, true)

		req, err := f.svc.Submit(context.Background(), f.user(), ev.ID)
		assert.NoError(t, err)
		assert.Equal(t, domain.RequestPending, req.Status)
		assert.Equal(t, 0, f.stores.events[ev.ID].ConfirmedRequests)
		assert.Empty(t, f.stores.outbox)
	})

	t.Run("unmoderated_event_confirms_and_counts", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(5, false)

		req, err := f.svc.Submit(context.Background(), f.user(), ev.ID)
		assert.NoError(t, err)
		assert.Equal(t, domain.RequestConfirmed, req.Status)
		assert.Equal(t, 1, f.stores.events[ev.ID].ConfirmedRequests)
		assert.Equal(t, []string{"request.confirmed"}, outboxKeys(f.stores.outbox))
	})

	t.Run("unknown_requester_is_not_found", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(5, true)

		_, err := f.svc.Submit(context.Background(), security.Principal{ID: uuid.New(), Role: security.RoleUser}, ev.ID)
		assert.Error(t, err)
		assert.Equal(t, domain.CodeNotFound, err.(*domain.AppError).Code)
	})

	t.Run("initiator_cannot_join_own_event", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(5, true)

		_, err := f.svc.Submit(context.Background(), security.Principal{ID: f.owner, Role: security.RoleUser}, ev.ID)
		assert.Error(t, err)
		assert.Equal(t, domain.CodeConflict, err.(*domain.AppError).Code)
	})

	t.Run("unpublished_event_conflicts", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(5, true)
		ev.State = domain.StatePending
		f.stores.events[ev.ID] = ev

		_, err := f.svc.Submit(context.Background(), f.user(), ev.ID)
		assert.Error(t, err)
		assert.Equal(t, domain.CodeConflict, err.(*domain.AppError).Code)
	})

	t.Run("duplicate_active_request_conflicts", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(5, true)
		actor := f.user()

		_, err := f.svc.Submit(context.Background(), actor, ev.ID)
		assert.NoError(t, err)

		_, err = f.svc.Submit(context.Background(), actor, ev.ID)
		assert.Error(t, err)
		assert.Equal(t, domain.CodeConflict, err.(*domain.AppError).Code)
	})

	t.Run("resubmit_after_cancel_is_allowed", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(5, true)
		actor := f.user()

		req, err := f.svc.Submit(context.Background(), actor, ev.ID)
		assert.NoError(t, err)
		_, err = f.svc.Cancel(context.Background(), actor, req.ID)
		assert.NoError(t, err)

		_, err = f.svc.Submit(context.Background(), actor, ev.ID)
		assert.NoError(t, err)
	})

	t.Run("full_event_conflicts", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(1, false)

		_, err := f.svc.Submit(context.Background(), f.user(), ev.ID)
		assert.NoError(t, err)

		_, err = f.svc.Submit(context.Background(), f.user(), ev.ID)
		assert.Error(t, err)
		assert.Equal(t, domain.CodeConflict, err.(*domain.AppError).Code)
		assert.Equal(t, 1, f.stores.events[ev.ID].ConfirmedRequests)
	})

	t.Run("zero_limit_never_fills_up", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(0, false)

		for i := 0; i < 5; i++ {
			_, err := f.svc.Submit(context.Background(), f.user(), ev.ID)
			assert.NoError(t, err)
		}
		assert.Equal(t, 5, f.stores.events[ev.ID].ConfirmedRequests)
	})
}

func TestService_Cancel(t *testing.T) {
	t.Run("canceling_confirmed_request_frees_the_slot", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(3, false)
		actor := f.user()

		req, err := f.svc.Submit(context.Background(), actor, ev.ID)
		assert.NoError(t, err)
		assert.Equal(t, 1, f.stores.events[ev.ID].ConfirmedRequests)

		out, err := f.svc.Cancel(context.Background(), actor, req.ID)
		assert.NoError(t, err)
		assert.Equal(t, domain.RequestCanceled, out.Status)
		assert.Equal(t, 0, f.stores.events[ev.ID].ConfirmedRequests)
		assert.Equal(t, []string{"request.confirmed", "request.canceled"}, outboxKeys(f.stores.outbox))
	})

	t.Run("second_cancel_conflicts_and_never_double_releases", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(3, false)
		actor := f.user()

		req, _ := f.svc.Submit(context.Background(), actor, ev.ID)
		_, err := f.svc.Cancel(context.Background(), actor, req.ID)
		assert.NoError(t, err)

		_, err = f.svc.Cancel(context.Background(), actor, req.ID)
		assert.Error(t, err)
		assert.Equal(t, domain.CodeConflict, err.(*domain.AppError).Code)
		assert.Equal(t, 0, f.stores.events[ev.ID].ConfirmedRequests)
	})

	t.Run("canceling_pending_request_leaves_counter_alone", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(3, true)
		actor := f.user()

		req, _ := f.svc.Submit(context.Background(), actor, ev.ID)
		out, err := f.svc.Cancel(context.Background(), actor, req.ID)
		assert.NoError(t, err)
		assert.Equal(t, domain.RequestCanceled, out.Status)
		assert.Equal(t, 0, f.stores.events[ev.ID].ConfirmedRequests)
	})

	t.Run("stranger_is_forbidden", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(3, true)

		req, _ := f.svc.Submit(context.Background(), f.user(), ev.ID)
		_, err := f.svc.Cancel(context.Background(), f.user(), req.ID)
		assert.Error(t, err)
		assert.Equal(t, domain.CodeForbidden, err.(*domain.AppError).Code)
	})

	t.Run("missing_request_is_not_found", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Cancel(context.Background(), f.user(), uuid.New())
		assert.Error(t, err)
		assert.Equal(t, domain.CodeNotFound, err.(*domain.AppError).Code)
	})
}

func TestService_Moderate(t *testing.T) {
	ownerOf := func(f *fixture) security.Principal {
		return security.Principal{ID: f.owner, Role: security.RoleUser}
	}

	t.Run("invalid_target_status", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Moderate(context.Background(), ModerateCmd{
			Actor:      ownerOf(f),
			EventID:    uuid.New(),
			RequestIDs: []uuid.UUID{uuid.New()},
			Target:     domain.RequestCanceled,
		})
		assert.Error(t, err)
		assert.Equal(t, domain.CodeValidation, err.(*domain.AppError).Code)
	})

	t.Run("empty_batch_is_validation_error", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Moderate(context.Background(), ModerateCmd{
			Actor:   ownerOf(f),
			EventID: uuid.New(),
			Target:  domain.RequestConfirmed,
		})
		assert.Error(t, err)
		assert.Equal(t, domain.CodeValidation, err.(*domain.AppError).Code)
	})

	t.Run("stranger_is_forbidden", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(3, true)
		r := f.pendingRequest(ev.ID)

		_, err := f.svc.Moderate(context.Background(), ModerateCmd{
			Actor:      f.user(),
			EventID:    ev.ID,
			RequestIDs: []uuid.UUID{r.ID},
			Target:     domain.RequestConfirmed,
		})
		assert.Error(t, err)
		assert.Equal(t, domain.CodeForbidden, err.(*domain.AppError).Code)
	})

	t.Run("unlimited_event_needs_no_moderation", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(0, true)
		r := f.pendingRequest(ev.ID)

		_, err := f.svc.Moderate(context.Background(), ModerateCmd{
			Actor:      ownerOf(f),
			EventID:    ev.ID,
			RequestIDs: []uuid.UUID{r.ID},
			Target:     domain.RequestConfirmed,
		})
		assert.Error(t, err)
		assert.Equal(t, domain.CodeConflict, err.(*domain.AppError).Code)
	})

	t.Run("foreign_request_id_fails_whole_batch", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(3, true)
		r := f.pendingRequest(ev.ID)
		foreign := uuid.New()

		_, err := f.svc.Moderate(context.Background(), ModerateCmd{
			Actor:      ownerOf(f),
			EventID:    ev.ID,
			RequestIDs: []uuid.UUID{r.ID, foreign},
			Target:     domain.RequestConfirmed,
		})
		assert.Error(t, err)
		appErr := err.(*domain.AppError)
		assert.Equal(t, domain.CodeNotFound, appErr.Code)
		assert.Contains(t, appErr.Meta["request_ids"], foreign.String())
		// all or nothing: the valid half of the batch stays PENDING
		assert.Equal(t, domain.RequestPending, f.stores.requests[r.ID].Status)
	})

	t.Run("non_pending_request_fails_whole_batch", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(3, true)
		r1 := f.pendingRequest(ev.ID)
		r2 := f.pendingRequest(ev.ID)

		_, err := f.svc.Moderate(context.Background(), ModerateCmd{
			Actor:      ownerOf(f),
			EventID:    ev.ID,
			RequestIDs: []uuid.UUID{r1.ID},
			Target:     domain.RequestRejected,
		})
		assert.NoError(t, err)

		_, err = f.svc.Moderate(context.Background(), ModerateCmd{
			Actor:      ownerOf(f),
			EventID:    ev.ID,
			RequestIDs: []uuid.UUID{r1.ID, r2.ID},
			Target:     domain.RequestConfirmed,
		})
		assert.Error(t, err)
		appErr := err.(*domain.AppError)
		assert.Equal(t, domain.CodeConflict, appErr.Code)
		assert.Contains(t, appErr.Meta["request_ids"], r1.ID.String())
		assert.Equal(t, domain.RequestPending, f.stores.requests[r2.ID].Status)
	})

	t.Run("confirming_past_the_limit_conflicts_before_any_change", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(1, true)
		r1 := f.pendingRequest(ev.ID)
		r2 := f.pendingRequest(ev.ID)

		_, err := f.svc.Moderate(context.Background(), ModerateCmd{
			Actor:      ownerOf(f),
			EventID:    ev.ID,
			RequestIDs: []uuid.UUID{r1.ID, r2.ID},
			Target:     domain.RequestConfirmed,
		})
		assert.Error(t, err)
		assert.Equal(t, domain.CodeConflict, err.(*domain.AppError).Code)
		assert.Equal(t, domain.RequestPending, f.stores.requests[r1.ID].Status)
		assert.Equal(t, domain.RequestPending, f.stores.requests[r2.ID].Status)
		assert.Equal(t, 0, f.stores.events[ev.ID].ConfirmedRequests)
	})

	t.Run("filling_the_last_slot_rejects_the_rest", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(2, true)
		r1 := f.pendingRequest(ev.ID)
		r2 := f.pendingRequest(ev.ID)
		r3 := f.pendingRequest(ev.ID)
		r4 := f.pendingRequest(ev.ID)

		out, err := f.svc.Moderate(context.Background(), ModerateCmd{
			Actor:      ownerOf(f),
			EventID:    ev.ID,
			RequestIDs: []uuid.UUID{r1.ID, r2.ID},
			Target:     domain.RequestConfirmed,
		})
		assert.NoError(t, err)
		assert.Len(t, out.Confirmed, 2)
		assert.Len(t, out.Rejected, 2)
		assert.Equal(t, 2, f.stores.events[ev.ID].ConfirmedRequests)
		assert.Equal(t, domain.RequestRejected, f.stores.requests[r3.ID].Status)
		assert.Equal(t, domain.RequestRejected, f.stores.requests[r4.ID].Status)
		// two confirmations plus two cascade rejections hit the outbox
		assert.Len(t, f.stores.outbox, 4)
	})

	t.Run("partial_confirmation_leaves_pending_untouched", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(3, true)
		r1 := f.pendingRequest(ev.ID)
		r2 := f.pendingRequest(ev.ID)

		out, err := f.svc.Moderate(context.Background(), ModerateCmd{
			Actor:      ownerOf(f),
			EventID:    ev.ID,
			RequestIDs: []uuid.UUID{r1.ID},
			Target:     domain.RequestConfirmed,
		})
		assert.NoError(t, err)
		assert.Len(t, out.Confirmed, 1)
		assert.Empty(t, out.Rejected)
		assert.Equal(t, domain.RequestPending, f.stores.requests[r2.ID].Status)
	})

	t.Run("rejection_batch", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(3, true)
		r1 := f.pendingRequest(ev.ID)
		r2 := f.pendingRequest(ev.ID)

		out, err := f.svc.Moderate(context.Background(), ModerateCmd{
			Actor:      ownerOf(f),
			EventID:    ev.ID,
			RequestIDs: []uuid.UUID{r1.ID, r2.ID},
			Target:     domain.RequestRejected,
		})
		assert.NoError(t, err)
		assert.Empty(t, out.Confirmed)
		assert.Len(t, out.Rejected, 2)
		assert.Equal(t, 0, f.stores.events[ev.ID].ConfirmedRequests)
	})

	t.Run("admin_moderates_someone_elses_event", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(3, true)
		r := f.pendingRequest(ev.ID)

		out, err := f.svc.Moderate(context.Background(), ModerateCmd{
			Actor:      security.Principal{ID: uuid.New(), Role: security.RoleAdmin},
			EventID:    ev.ID,
			RequestIDs: []uuid.UUID{r.ID},
			Target:     domain.RequestConfirmed,
		})
		assert.NoError(t, err)
		assert.Len(t, out.Confirmed, 1)
	})
}

func TestService_Lists(t *testing.T) {
	t.Run("list_by_requester", func(t *testing.T) {
		f := newFixture()
		ev1 := f.publishedEvent(0, true)
		ev2 := f.publishedEvent(0, true)
		actor := f.user()

		_, _ = f.svc.Submit(context.Background(), actor, ev1.ID)
		_, _ = f.svc.Submit(context.Background(), actor, ev2.ID)
		_, _ = f.svc.Submit(context.Background(), f.user(), ev1.ID)

		out, err := f.svc.ListByRequester(context.Background(), actor)
		assert.NoError(t, err)
		assert.Len(t, out, 2)
	})

	t.Run("list_by_unknown_requester_is_not_found", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.ListByRequester(context.Background(), security.Principal{ID: uuid.New(), Role: security.RoleUser})
		assert.Error(t, err)
		assert.Equal(t, domain.CodeNotFound, err.(*domain.AppError).Code)
	})

	t.Run("list_for_event_requires_ownership", func(t *testing.T) {
		f := newFixture()
		ev := f.publishedEvent(3, true)
		f.pendingRequest(ev.ID)

		out, err := f.svc.ListForEvent(context.Background(), security.Principal{ID: f.owner, Role: security.RoleUser}, ev.ID)
		assert.NoError(t, err)
		assert.Len(t, out, 1)

		_, err = f.svc.ListForEvent(context.Background(), f.user(), ev.ID)
		assert.Error(t, err)
		assert.Equal(t, domain.CodeForbidden, err.(*domain.AppError).Code)
	})
}
