package rest

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/application/event"
	"github.com/eventlane/eventlane/internal/domain"
	"github.com/eventlane/eventlane/internal/pkg/logger"
	"github.com/eventlane/eventlane/internal/transport/rest/response"
)

// HitRecorder registers event page views with the stats service.
type HitRecorder interface {
	RecordHit(ctx context.Context, eventID uuid.UUID, ip string, at time.Time) error
}

type EventHandler struct {
	svc  *event.Service
	hits HitRecorder
}

func NewEventHandler(svc *event.Service, hits HitRecorder) *EventHandler {
	return &EventHandler{svc: svc, hits: hits}
}

// PublicGet serves the public event detail; each view is reported to the
// stats service best-effort.
func (h *EventHandler) PublicGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid eventID", nil)
		return
	}

	if h.hits != nil {
		if err := h.hits.RecordHit(r.Context(), id, clientIP(r), time.Now()); err != nil {
			l := logger.WithCtx(r.Context())
			l.Warn().Err(err).Msg("hit record failed")
		}
	}

	e, err := h.svc.FindPublished(r.Context(), id)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventDTO(e))
}

func (h *EventHandler) PublicSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := event.CommonFilter{
		Text:          strings.TrimSpace(q.Get("text")),
		OnlyAvailable: q.Get("only_available") == "true",
		Sort:          event.EventSort(strings.TrimSpace(q.Get("sort"))),
		From:          parseIntDefault(q.Get("from"), 0),
		Size:          parseIntDefault(q.Get("size"), 10),
	}

	if cats, err := parseUUIDList(q.Get("categories")); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid categories", nil)
		return
	} else {
		f.Categories = cats
	}
	if s := strings.TrimSpace(q.Get("paid")); s != "" {
		v := s == "true"
		f.Paid = &v
	}
	var err error
	if f.RangeStart, err = parseTimePtr(q.Get("range_start")); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid range_start", nil)
		return
	}
	if f.RangeEnd, err = parseTimePtr(q.Get("range_end")); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid range_end", nil)
		return
	}

	events, err := h.svc.SearchCommon(r.Context(), f)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventDTOs(events))
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	var body eventDraftBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body", nil)
		return
	}
	categoryID, err := uuid.Parse(body.CategoryID)
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid category_id", map[string]string{
			"category_id": "must be a valid uuid",
		})
		return
	}

	e, err := h.svc.Create(r.Context(), event.CreateCmd{
		Actor:      auth.Principal(),
		CategoryID: categoryID,
		Draft:      body.draft(),
	})
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, toEventDTO(e))
}

func (h *EventHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	q := r.URL.Query()
	events, err := h.svc.ListByOwner(r.Context(), auth.Principal(),
		parseIntDefault(q.Get("from"), 0), parseIntDefault(q.Get("size"), 10))
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventDTOs(events))
}

func (h *EventHandler) GetOwn(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid eventID", nil)
		return
	}

	e, err := h.svc.FindByOwner(r.Context(), auth.Principal(), id)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventDTO(e))
}

func (h *EventHandler) PatchOwn(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid eventID", nil)
		return
	}

	var body eventPatchBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body", nil)
		return
	}
	patch, err := body.patch()
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid category_id", nil)
		return
	}

	cmd := event.UpdateOwnerCmd{
		Actor:   auth.Principal(),
		EventID: id,
		Patch:   patch,
	}
	if body.StateAction != nil {
		a := event.UserStateAction(strings.TrimSpace(*body.StateAction))
		cmd.StateAction = &a
	}

	e, err := h.svc.UpdateByOwner(r.Context(), cmd)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventDTO(e))
}

func (h *EventHandler) AdminSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := event.AdminFilter{
		From: parseIntDefault(q.Get("from"), 0),
		Size: parseIntDefault(q.Get("size"), 10),
	}

	var err error
	if f.Users, err = parseUUIDList(q.Get("users")); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid users", nil)
		return
	}
	if f.Categories, err = parseUUIDList(q.Get("categories")); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid categories", nil)
		return
	}
	if s := strings.TrimSpace(q.Get("states")); s != "" {
		for _, p := range strings.Split(s, ",") {
			st := domain.EventState(strings.TrimSpace(p))
			if !st.Valid() {
				fail(w, r, http.StatusBadRequest, "request.invalid", "invalid states", nil)
				return
			}
			f.States = append(f.States, st)
		}
	}
	if f.RangeStart, err = parseTimePtr(q.Get("range_start")); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid range_start", nil)
		return
	}
	if f.RangeEnd, err = parseTimePtr(q.Get("range_end")); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid range_end", nil)
		return
	}

	events, err := h.svc.SearchAdmin(r.Context(), f)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventDTOs(events))
}

func (h *EventHandler) AdminPatch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid eventID", nil)
		return
	}

	var body eventPatchBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body", nil)
		return
	}
	patch, err := body.patch()
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid category_id", nil)
		return
	}

	cmd := event.UpdateAdminCmd{
		EventID: id,
		Patch:   patch,
	}
	if body.StateAction != nil {
		a := event.AdminStateAction(strings.TrimSpace(*body.StateAction))
		cmd.StateAction = &a
	}

	e, err := h.svc.UpdateByAdmin(r.Context(), cmd)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventDTO(e))
}

func parseIntDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseTimePtr(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	tt := t.UTC()
	return &tt, nil
}

func parseUUIDList(s string) ([]uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []uuid.UUID
	for _, p := range strings.Split(s, ",") {
		id, err := uuid.Parse(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
