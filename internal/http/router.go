package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router wraps the standard library http.ServeMux (no third-party routing
// dependency needed for a path surface this small).
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler accepts the http.Handler interface (used for pprof).
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterReconcileRoutes wires the report, review session and export
// endpoints.
func (r *Router) RegisterReconcileRoutes(reports *ReportHandler, sessions *SessionHandler, export *HistoryExportHandler) {
	// ingest
	r.Handle("/reconcile/api/v1/reports", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		reports.Ingest(w, req)
	})

	// offline queue
	r.Handle("/reconcile/api/v1/reports/pending", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		reports.ListPending(w, req)
	})
	r.Handle("/reconcile/api/v1/reports/pending/", reports.ServePending)

	// review sessions (get / edit / confirm / reject / commit)
	r.Handle("/reconcile/api/v1/sessions/", sessions.ServeHTTP)

	// history export
	r.Handle("/reconcile/api/v1/history/export", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		export.Export(w, req)
	})
}
