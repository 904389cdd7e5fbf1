package httpapi

import (
	"net/http"

	"nestlog-reconcile/internal/service"

	"go.uber.org/zap"
)

// HistoryExportHandler serves committed history as a spreadsheet.
type HistoryExportHandler struct {
	reconcileService service.ReconcileService
	logger           *zap.Logger
}

func NewHistoryExportHandler(reconcileService service.ReconcileService, logger *zap.Logger) *HistoryExportHandler {
	return &HistoryExportHandler{
		reconcileService: reconcileService,
		logger:           logger,
	}
}

// Export handles GET /reconcile/api/v1/history/export?child_id=...&from=...&to=...
// from/to are RFC3339 timestamps.
func (h *HistoryExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	childID := r.URL.Query().Get("child_id")
	if childID == "" {
		writeJSON(w, http.StatusOK, Fail("child_id parameter is required"))
		return
	}

	from, err := parseTimeQuery(r, "from")
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	to, err := parseTimeQuery(r, "to")
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	data, err := h.reconcileService.ExportHistory(ctx, service.ExportHistoryRequest{
		ChildID: childID,
		From:    from,
		To:      to,
	})
	if err != nil {
		h.logger.Error("ExportHistory failed",
			zap.String("child_id", childID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=care-history-export.xlsx")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
