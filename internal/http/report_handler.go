package httpapi

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"nestlog-reconcile/internal/service"

	"go.uber.org/zap"
)

// ReportHandler covers report ingestion and the offline queue.
type ReportHandler struct {
	reconcileService service.ReconcileService
	logger           *zap.Logger
}

func NewReportHandler(reconcileService service.ReconcileService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reconcileService: reconcileService,
		logger:           logger,
	}
}

// ingestRequest is the JSON body for POST /reconcile/api/v1/reports.
// Text reports go in `text`; image reports go in `data_base64`.
type ingestRequest struct {
	ChildID     string `json:"child_id"`
	ContentType string `json:"content_type"`
	Text        string `json:"text,omitempty"`
	DataBase64  string `json:"data_base64,omitempty"`
}

// Ingest handles POST /reconcile/api/v1/reports.
func (h *ReportHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body ingestRequest
	if err := readBodyJSON(r, 10<<20, &body); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body: "+err.Error()))
		return
	}

	source := []byte(body.Text)
	if body.DataBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(body.DataBase64)
		if err != nil {
			writeJSON(w, http.StatusOK, Fail("data_base64 is not valid base64"))
			return
		}
		source = decoded
	}

	resp, err := h.reconcileService.IngestReport(ctx, service.IngestReportRequest{
		ChildID:     body.ChildID,
		ContentType: body.ContentType,
		Source:      source,
	})
	if err != nil {
		h.logger.Error("Ingest failed",
			zap.String("child_id", body.ChildID),
			zap.String("content_type", body.ContentType),
			zap.Error(err),
		)
		status := http.StatusOK
		if errors.Is(err, service.ErrUnsupportedFormat) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(resp))
}

// ListPending handles GET /reconcile/api/v1/reports/pending?child_id=...
func (h *ReportHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	childID := r.URL.Query().Get("child_id")

	pending, err := h.reconcileService.ListPending(ctx, childID)
	if err != nil {
		h.logger.Error("ListPending failed",
			zap.String("child_id", childID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": pending}))
}

// ServePending routes /reconcile/api/v1/reports/pending/:id and
// /reconcile/api/v1/reports/pending/:id/retry.
func (h *ReportHandler) ServePending(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	pendingID := extractPendingIDFromPath(path)
	if pendingID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if strings.HasSuffix(path, "/retry") {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.RetryPending(w, r, pendingID)
		return
	}

	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.DiscardPending(w, r, pendingID)
}

// RetryPending handles POST /reconcile/api/v1/reports/pending/:id/retry.
func (h *ReportHandler) RetryPending(w http.ResponseWriter, r *http.Request, pendingID string) {
	ctx := r.Context()

	resp, err := h.reconcileService.RetryPending(ctx, pendingID)
	if err != nil {
		h.logger.Warn("RetryPending failed",
			zap.String("pending_id", pendingID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(resp))
}

// DiscardPending handles DELETE /reconcile/api/v1/reports/pending/:id.
func (h *ReportHandler) DiscardPending(w http.ResponseWriter, r *http.Request, pendingID string) {
	ctx := r.Context()

	if err := h.reconcileService.DiscardPending(ctx, pendingID); err != nil {
		h.logger.Warn("DiscardPending failed",
			zap.String("pending_id", pendingID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"discarded": true}))
}

// extractPendingIDFromPath pulls the id out of
// /reconcile/api/v1/reports/pending/:id[/retry].
func extractPendingIDFromPath(path string) string {
	prefix := "/reconcile/api/v1/reports/pending/"
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	pendingID := strings.TrimPrefix(path, prefix)
	pendingID = strings.TrimSuffix(pendingID, "/retry")
	pendingID = strings.TrimSuffix(pendingID, "/")
	if strings.Contains(pendingID, "/") {
		return ""
	}
	return pendingID
}
