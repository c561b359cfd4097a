package rest

import (
	"errors"
	"net/http"

	"github.com/eventlane/eventlane/internal/domain"
	appctx "github.com/eventlane/eventlane/internal/pkg/context"
	"github.com/eventlane/eventlane/internal/transport/rest/response"
)

func handleErr(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case domain.CodeValidation:
			status = http.StatusBadRequest
		case domain.CodeNotFound:
			status = http.StatusNotFound
		case domain.CodeForbidden:
			status = http.StatusForbidden
		case domain.CodeConflict:
			status = http.StatusConflict
		}
		fail(w, r, status, string(appErr.Code), appErr.Message, appErr.Meta)
		return
	}

	// Do not leak internal details.
	fail(w, r, http.StatusInternalServerError, "internal", "internal error", nil)
}

func fail(w http.ResponseWriter, r *http.Request, status int, code, message string, meta map[string]string) {
	reqID := appctx.RequestID(r.Context())
	if reqID == "" {
		reqID = "no-request-id"
	}
	response.Fail(w, status, code, message, meta, reqID)
}
