package rest

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/application/participation"
	"github.com/eventlane/eventlane/internal/domain"
	"github.com/eventlane/eventlane/internal/transport/rest/response"
)

type RequestHandler struct {
	svc *participation.Service
}

func NewRequestHandler(svc *participation.Service) *RequestHandler {
	return &RequestHandler{svc: svc}
}

func (h *RequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	eventID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("event_id")))
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid event_id", map[string]string{
			"event_id": "must be a valid uuid",
		})
		return
	}

	req, err := h.svc.Submit(r.Context(), auth.Principal(), eventID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, toRequestDTO(req))
}

func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	requestID, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid requestID", nil)
		return
	}

	req, err := h.svc.Cancel(r.Context(), auth.Principal(), requestID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toRequestDTO(req))
}

func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	reqs, err := h.svc.ListByRequester(r.Context(), auth.Principal())
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toRequestDTOs(reqs))
}

func (h *RequestHandler) ListForEvent(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid eventID", nil)
		return
	}

	reqs, err := h.svc.ListForEvent(r.Context(), auth.Principal(), eventID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toRequestDTOs(reqs))
}

func (h *RequestHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid eventID", nil)
		return
	}

	var body struct {
		RequestIDs []string `json:"request_ids"`
		Status     string   `json:"status"`
	}
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body", nil)
		return
	}

	ids := make([]uuid.UUID, 0, len(body.RequestIDs))
	for _, s := range body.RequestIDs {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			fail(w, r, http.StatusBadRequest, "request.invalid", "invalid request_ids", nil)
			return
		}
		ids = append(ids, id)
	}

	result, err := h.svc.Moderate(r.Context(), participation.ModerateCmd{
		Actor:      auth.Principal(),
		EventID:    eventID,
		RequestIDs: ids,
		Target:     domain.RequestStatus(strings.TrimSpace(body.Status)),
	})
	if err != nil {
		handleErr(w, r, err)
		return
	}

	response.Data(w, http.StatusOK, map[string]any{
		"confirmed_requests": toRequestDTOs(result.Confirmed),
		"rejected_requests":  toRequestDTOs(result.Rejected),
	})
}
