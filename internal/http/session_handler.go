package httpapi

import (
	"net/http"
	"strings"

	"nestlog-reconcile/internal/review"
	"nestlog-reconcile/internal/service"

	"go.uber.org/zap"
)

// SessionHandler covers the review workflow on an open session.
type SessionHandler struct {
	reconcileService service.ReconcileService
	logger           *zap.Logger
}

func NewSessionHandler(reconcileService service.ReconcileService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		reconcileService: reconcileService,
		logger:           logger,
	}
}

// ServeHTTP routes everything under /reconcile/api/v1/sessions/:
//   - GET    /sessions/:id
//   - PATCH  /sessions/:id/events/:eventId
//   - POST   /sessions/:id/events/:eventId/confirm
//   - POST   /sessions/:id/events/:eventId/reject
//   - POST   /sessions/:id/confirm-all
//   - POST   /sessions/:id/reject-all
//   - POST   /sessions/:id/commit
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	prefix := "/reconcile/api/v1/sessions/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	segments := strings.Split(rest, "/")
	sessionID := segments[0]

	switch len(segments) {
	case 1:
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetSession(w, r, sessionID)
	case 2:
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		switch segments[1] {
		case "confirm-all":
			h.ConfirmAll(w, r, sessionID)
		case "reject-all":
			h.RejectAll(w, r, sessionID)
		case "commit":
			h.Commit(w, r, sessionID)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	case 3:
		if segments[1] != "events" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method != http.MethodPatch {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.UpdateEvent(w, r, sessionID, segments[2])
	case 4:
		if segments[1] != "events" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		switch segments[3] {
		case "confirm":
			h.ConfirmEvent(w, r, sessionID, segments[2])
		case "reject":
			h.RejectEvent(w, r, sessionID, segments[2])
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// GetSession handles GET /sessions/:id.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := h.reconcileService.GetSession(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(session))
}

// UpdateEvent handles PATCH /sessions/:id/events/:eventId. The body is the
// set of fields to change; omitted fields keep their value.
func (h *SessionHandler) UpdateEvent(w http.ResponseWriter, r *http.Request, sessionID, eventID string) {
	var patch review.EventPatch
	if err := readBodyJSON(r, 1<<20, &patch); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body: "+err.Error()))
		return
	}

	event, err := h.reconcileService.UpdateEvent(r.Context(), service.UpdateEventRequest{
		SessionID: sessionID,
		EventID:   eventID,
		Patch:     patch,
	})
	if err != nil {
		h.logger.Warn("UpdateEvent failed",
			zap.String("session_id", sessionID),
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(event))
}

// ConfirmEvent handles POST /sessions/:id/events/:eventId/confirm.
func (h *SessionHandler) ConfirmEvent(w http.ResponseWriter, r *http.Request, sessionID, eventID string) {
	event, err := h.reconcileService.ConfirmEvent(r.Context(), sessionID, eventID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(event))
}

// RejectEvent handles POST /sessions/:id/events/:eventId/reject.
func (h *SessionHandler) RejectEvent(w http.ResponseWriter, r *http.Request, sessionID, eventID string) {
	event, err := h.reconcileService.RejectEvent(r.Context(), sessionID, eventID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(event))
}

// ConfirmAll handles POST /sessions/:id/confirm-all.
func (h *SessionHandler) ConfirmAll(w http.ResponseWriter, r *http.Request, sessionID string) {
	resp, err := h.reconcileService.ConfirmAll(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// RejectAll handles POST /sessions/:id/reject-all.
func (h *SessionHandler) RejectAll(w http.ResponseWriter, r *http.Request, sessionID string) {
	resp, err := h.reconcileService.RejectAll(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Commit handles POST /sessions/:id/commit.
func (h *SessionHandler) Commit(w http.ResponseWriter, r *http.Request, sessionID string) {
	resp, err := h.reconcileService.CommitSession(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("CommitSession failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}
