package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nestlog-reconcile/internal/dedup"
	"nestlog-reconcile/internal/domain"
	"nestlog-reconcile/internal/export"
	"nestlog-reconcile/internal/extraction"
	"nestlog-reconcile/internal/history"
	"nestlog-reconcile/internal/queue"
	"nestlog-reconcile/internal/review"
	"nestlog-reconcile/internal/stream"
)

// ErrUnsupportedFormat rejects reports that are neither an accepted image
// type nor plain text / CSV. Unsupported uploads are a caller error and never
// reach the offline queue.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// Ingest outcome statuses.
const (
	IngestStatusReview = "ready_for_review"
	IngestStatusQueued = "queued"
)

// extractionClient is the slice of the extraction service the pipeline needs
// (interface so tests can substitute a fake).
type extractionClient interface {
	Extract(ctx context.Context, text string) ([]byte, error)
	OCR(ctx context.Context, imageBytes []byte, contentType string) (string, error)
}

// committedPublisher announces commits downstream (interface for tests; nil
// disables publishing).
type committedPublisher interface {
	PublishCommitted(ctx context.Context, childID string, outcomes []domain.CommitOutcome)
}

// eventCommitter routes confirmed events into the domain stores.
type eventCommitter interface {
	Commit(ctx context.Context, childID string, events []domain.CandidateEvent) domain.CommitResult
}

// historySource supplies committed records for duplicate detection and
// export.
type historySource interface {
	Records(ctx context.Context, childID string, from, to time.Time) ([]domain.ExistingRecord, error)
	Invalidate(ctx context.Context, childID string) error
}

// ReconcileService is the reconciliation pipeline: ingest a report, review
// the extracted candidates, commit the confirmed ones.
type ReconcileService interface {
	// IngestReport runs extraction over an uploaded report and opens a review
	// session, or parks the report on the offline queue when extraction
	// cannot complete.
	IngestReport(ctx context.Context, req IngestReportRequest) (*IngestReportResponse, error)

	// GetSession returns a snapshot of one review session.
	GetSession(ctx context.Context, sessionID string) (*review.Session, error)

	// UpdateEvent patches a candidate's fields and moves it to edited.
	UpdateEvent(ctx context.Context, req UpdateEventRequest) (*domain.CandidateEvent, error)

	// ConfirmEvent / RejectEvent move one candidate through review.
	ConfirmEvent(ctx context.Context, sessionID, eventID string) (*domain.CandidateEvent, error)
	RejectEvent(ctx context.Context, sessionID, eventID string) (*domain.CandidateEvent, error)

	// ConfirmAll confirms every confirmable event; RejectAll rejects
	// everything including previously confirmed events.
	ConfirmAll(ctx context.Context, sessionID string) (*BulkReviewResponse, error)
	RejectAll(ctx context.Context, sessionID string) (*BulkReviewResponse, error)

	// CommitSession writes every confirmed event to its domain store and
	// removes the committed ones from the session.
	CommitSession(ctx context.Context, sessionID string) (*CommitSessionResponse, error)

	// ListPending / RetryPending / DiscardPending manage the offline queue.
	ListPending(ctx context.Context, childID string) ([]domain.PendingReport, error)
	RetryPending(ctx context.Context, pendingID string) (*IngestReportResponse, error)
	DiscardPending(ctx context.Context, pendingID string) error

	// ExportHistory renders committed records in the window as an Excel
	// workbook.
	ExportHistory(ctx context.Context, req ExportHistoryRequest) ([]byte, error)
}

type reconcileService struct {
	extraction extractionClient
	history    historySource
	dispatcher eventCommitter
	queue      *queue.OfflineQueue
	sessions   *review.SessionStore
	publisher  committedPublisher
	windowDays int
	logger     *zap.Logger
}

// NewReconcileService wires the pipeline. publisher may be nil when no stream
// is configured.
func NewReconcileService(
	extractionClient *extraction.Client,
	historyProvider *history.Provider,
	dispatcher eventCommitter,
	offlineQueue *queue.OfflineQueue,
	sessions *review.SessionStore,
	publisher *stream.Publisher,
	windowDays int,
	logger *zap.Logger,
) ReconcileService {
	s := &reconcileService{
		history:    historyProvider,
		dispatcher: dispatcher,
		queue:      offlineQueue,
		sessions:   sessions,
		windowDays: windowDays,
		logger:     logger,
	}
	if extractionClient != nil {
		s.extraction = extractionClient
	}
	if publisher != nil {
		s.publisher = publisher
	}
	return s
}

// SetExtractionClientForTest swaps the extraction client (tests only).
func (s *reconcileService) SetExtractionClientForTest(client extractionClient) {
	s.extraction = client
}

// ============================================
// Request/Response DTOs
// ============================================

type IngestReportRequest struct {
	ChildID     string
	ContentType string
	Source      []byte
}

type IngestReportResponse struct {
	Status  string                `json:"status"`
	Session *review.Session       `json:"session,omitempty"`
	Pending *domain.PendingReport `json:"pending,omitempty"`
}

type UpdateEventRequest struct {
	SessionID string
	EventID   string
	Patch     review.EventPatch
}

type BulkReviewResponse struct {
	Session *review.Session `json:"session"`
	Skipped []string        `json:"skipped,omitempty"`
}

// CommitOutcomeDTO is one event's commit result with the error flattened for
// the wire.
type CommitOutcomeDTO struct {
	EventID   string           `json:"event_id"`
	Kind      domain.EventKind `json:"kind"`
	Reference string           `json:"reference,omitempty"`
	Error     string           `json:"error,omitempty"`
}

type CommitSessionResponse struct {
	Committed []CommitOutcomeDTO `json:"committed"`
	Failed    []CommitOutcomeDTO `json:"failed"`
	Session   *review.Session    `json:"session"`
}

type ExportHistoryRequest struct {
	ChildID string
	From    time.Time
	To      time.Time
}

// ============================================
// Ingestion
// ============================================

func (s *reconcileService) IngestReport(ctx context.Context, req IngestReportRequest) (*IngestReportResponse, error) {
	if req.ChildID == "" {
		return nil, fmt.Errorf("child_id is required")
	}
	if len(req.Source) == 0 {
		return nil, fmt.Errorf("report source is empty")
	}
	contentType, err := normalizeContentType(req.ContentType)
	if err != nil {
		return nil, err
	}

	candidates, err := s.extractCandidates(ctx, contentType, req.Source)
	if err != nil {
		if extraction.IsTransient(err) || extraction.IsMalformed(err) {
			return s.parkReport(ctx, req.ChildID, contentType, req.Source, err)
		}
		return nil, err
	}

	session, err := s.openSession(ctx, req.ChildID, candidates)
	if err != nil {
		return nil, err
	}
	return &IngestReportResponse{Status: IngestStatusReview, Session: session}, nil
}

// extractCandidates turns source bytes into candidate events: OCR for images,
// the text as-is otherwise, then the extraction call and the wire parse.
func (s *reconcileService) extractCandidates(ctx context.Context, contentType string, source []byte) ([]domain.CandidateEvent, error) {
	if s.extraction == nil {
		return nil, fmt.Errorf("extraction client not initialized")
	}

	text := string(source)
	if isImage(contentType) {
		ocrText, err := s.extraction.OCR(ctx, source, contentType)
		if err != nil {
			return nil, err
		}
		text = ocrText
	}

	raw, err := s.extraction.Extract(ctx, text)
	if err != nil {
		return nil, err
	}
	return extraction.ParseCandidates(raw, s.logger)
}

// parkReport enqueues the source for a later retry and reports the queued
// entry back to the caller.
func (s *reconcileService) parkReport(ctx context.Context, childID, contentType string, source []byte, cause error) (*IngestReportResponse, error) {
	s.logger.Warn("Extraction failed, queueing report",
		zap.String("child_id", childID),
		zap.String("content_type", contentType),
		zap.Error(cause),
	)
	report, err := s.queue.Enqueue(ctx, childID, contentType, source, cause.Error())
	if err != nil {
		return nil, fmt.Errorf("extraction failed and the report could not be queued: %w", err)
	}
	return &IngestReportResponse{Status: IngestStatusQueued, Pending: &report}, nil
}

// openSession annotates the candidates against committed history and stores a
// new review session. Zero candidates still open a session.
func (s *reconcileService) openSession(ctx context.Context, childID string, candidates []domain.CandidateEvent) (*review.Session, error) {
	if len(candidates) > 0 {
		from, to := detectionWindow(candidates, s.windowDays)
		records, err := s.history.Records(ctx, childID, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to load history for duplicate detection: %w", err)
		}
		candidates = dedup.Detect(candidates, records)
	}

	session := &review.Session{
		ID:        uuid.New().String(),
		ChildID:   childID,
		CreatedAt: time.Now().UTC(),
		Events:    candidates,
	}
	s.sessions.Put(session)

	s.logger.Info("Opened review session",
		zap.String("session_id", session.ID),
		zap.String("child_id", childID),
		zap.Int("candidates", len(candidates)),
	)
	return s.sessions.Snapshot(session.ID)
}

// detectionWindow pads the candidate span by a day on each side and caps it
// so one bad timestamp cannot trigger an unbounded history query.
func detectionWindow(events []domain.CandidateEvent, maxDays int) (time.Time, time.Time) {
	minStart := events[0].StartTime
	maxEnd := events[0].StartTime
	for _, ev := range events {
		if ev.StartTime.Before(minStart) {
			minStart = ev.StartTime
		}
		last := ev.StartTime
		if ev.EndTime != nil && ev.EndTime.After(last) {
			last = *ev.EndTime
		}
		if last.After(maxEnd) {
			maxEnd = last
		}
	}

	from := minStart.Add(-24 * time.Hour)
	to := maxEnd.Add(24 * time.Hour)
	if maxDays > 0 {
		if limit := from.Add(time.Duration(maxDays) * 24 * time.Hour); to.After(limit) {
			to = limit
		}
	}
	return from, to
}

// ============================================
// Review session operations
// ============================================

func (s *reconcileService) GetSession(ctx context.Context, sessionID string) (*review.Session, error) {
	return s.sessions.Snapshot(sessionID)
}

func (s *reconcileService) UpdateEvent(ctx context.Context, req UpdateEventRequest) (*domain.CandidateEvent, error) {
	var updated domain.CandidateEvent
	err := s.sessions.WithSession(req.SessionID, func(session *review.Session) error {
		ev, err := session.UpdateEvent(req.EventID, req.Patch)
		if err != nil {
			return err
		}
		updated = copyEvent(ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *reconcileService) ConfirmEvent(ctx context.Context, sessionID, eventID string) (*domain.CandidateEvent, error) {
	var confirmed domain.CandidateEvent
	err := s.sessions.WithSession(sessionID, func(session *review.Session) error {
		ev, err := session.ConfirmEvent(eventID)
		if err != nil {
			return err
		}
		confirmed = copyEvent(ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &confirmed, nil
}

func (s *reconcileService) RejectEvent(ctx context.Context, sessionID, eventID string) (*domain.CandidateEvent, error) {
	var rejected domain.CandidateEvent
	err := s.sessions.WithSession(sessionID, func(session *review.Session) error {
		ev, err := session.RejectEvent(eventID)
		if err != nil {
			return err
		}
		rejected = copyEvent(ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rejected, nil
}

func (s *reconcileService) ConfirmAll(ctx context.Context, sessionID string) (*BulkReviewResponse, error) {
	var skipped []string
	err := s.sessions.WithSession(sessionID, func(session *review.Session) error {
		skipped = session.ConfirmAll()
		return nil
	})
	if err != nil {
		return nil, err
	}
	snapshot, err := s.sessions.Snapshot(sessionID)
	if err != nil {
		return nil, err
	}
	return &BulkReviewResponse{Session: snapshot, Skipped: skipped}, nil
}

func (s *reconcileService) RejectAll(ctx context.Context, sessionID string) (*BulkReviewResponse, error) {
	err := s.sessions.WithSession(sessionID, func(session *review.Session) error {
		session.RejectAll()
		return nil
	})
	if err != nil {
		return nil, err
	}
	snapshot, err := s.sessions.Snapshot(sessionID)
	if err != nil {
		return nil, err
	}
	return &BulkReviewResponse{Session: snapshot}, nil
}

// ============================================
// Commit
// ============================================

func (s *reconcileService) CommitSession(ctx context.Context, sessionID string) (*CommitSessionResponse, error) {
	var result domain.CommitResult
	var childID string

	// commit runs under the session lock, so a concurrent commit of the same
	// session waits and then finds the committed events already removed
	err := s.sessions.WithSession(sessionID, func(session *review.Session) error {
		childID = session.ChildID
		confirmed := session.ConfirmedEvents()
		if len(confirmed) == 0 {
			return nil
		}
		result = s.dispatcher.Commit(ctx, session.ChildID, confirmed)

		committed := result.Succeeded()
		ids := make([]string, 0, len(committed))
		for _, outcome := range committed {
			ids = append(ids, outcome.EventID)
		}
		session.RemoveEvents(ids)
		return nil
	})
	if err != nil {
		return nil, err
	}

	succeeded := result.Succeeded()
	if len(succeeded) > 0 {
		if err := s.history.Invalidate(ctx, childID); err != nil {
			s.logger.Warn("Failed to invalidate history cache after commit",
				zap.String("child_id", childID), zap.Error(err))
		}
		if s.publisher != nil {
			s.publisher.PublishCommitted(ctx, childID, succeeded)
		}
	}

	snapshot, err := s.sessions.Snapshot(sessionID)
	if err != nil {
		return nil, err
	}
	response := &CommitSessionResponse{
		Committed: make([]CommitOutcomeDTO, 0, len(succeeded)),
		Failed:    make([]CommitOutcomeDTO, 0),
		Session:   snapshot,
	}
	for _, outcome := range result.Outcomes {
		dto := CommitOutcomeDTO{
			EventID:   outcome.EventID,
			Kind:      outcome.Kind,
			Reference: outcome.Reference,
		}
		if outcome.Err != nil {
			dto.Error = outcome.Err.Error()
			response.Failed = append(response.Failed, dto)
			continue
		}
		response.Committed = append(response.Committed, dto)
	}

	s.logger.Info("Committed review session",
		zap.String("session_id", sessionID),
		zap.String("child_id", childID),
		zap.Int("committed", len(response.Committed)),
		zap.Int("failed", len(response.Failed)),
	)
	return response, nil
}

// ============================================
// Offline queue
// ============================================

func (s *reconcileService) ListPending(ctx context.Context, childID string) ([]domain.PendingReport, error) {
	reports, err := s.queue.List(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reports: %w", err)
	}
	return reports, nil
}

// RetryPending re-runs the pipeline over the stored source. The queue entry
// is removed only when a session opens; any failure leaves it untouched.
func (s *reconcileService) RetryPending(ctx context.Context, pendingID string) (*IngestReportResponse, error) {
	var response *IngestReportResponse
	err := s.queue.Retry(ctx, pendingID, func(ctx context.Context, report domain.PendingReport, source []byte) error {
		candidates, err := s.extractCandidates(ctx, report.ContentType, source)
		if err != nil {
			return err
		}
		session, err := s.openSession(ctx, report.ChildID, candidates)
		if err != nil {
			return err
		}
		response = &IngestReportResponse{Status: IngestStatusReview, Session: session}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

func (s *reconcileService) DiscardPending(ctx context.Context, pendingID string) error {
	return s.queue.Discard(ctx, pendingID)
}

// ============================================
// Export
// ============================================

func (s *reconcileService) ExportHistory(ctx context.Context, req ExportHistoryRequest) ([]byte, error) {
	if req.ChildID == "" {
		return nil, fmt.Errorf("child_id is required")
	}
	if req.From.IsZero() || req.To.IsZero() || !req.To.After(req.From) {
		return nil, fmt.Errorf("a from/to window with to after from is required")
	}

	records, err := s.history.Records(ctx, req.ChildID, req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for export: %w", err)
	}
	data, err := export.BuildHistoryWorkbook(records)
	if err != nil {
		return nil, fmt.Errorf("failed to build history workbook: %w", err)
	}
	return data, nil
}

// ============================================
// Helpers
// ============================================

var acceptedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"text/plain": true,
	"text/csv":   true,
}

// normalizeContentType strips parameters (charset and friends) and checks the
// type against the accepted set.
func normalizeContentType(contentType string) (string, error) {
	if contentType == "" {
		return "", fmt.Errorf("%w: content type is empty", ErrUnsupportedFormat)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, contentType)
	}
	if !acceptedContentTypes[mediaType] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, mediaType)
	}
	return mediaType, nil
}

func isImage(contentType string) bool {
	return contentType == "image/jpeg" || contentType == "image/png"
}

func copyEvent(ev *domain.CandidateEvent) domain.CandidateEvent {
	out := *ev
	if ev.EndTime != nil {
		end := *ev.EndTime
		out.EndTime = &end
	}
	return out
}
