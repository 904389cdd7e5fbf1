// Package queue is the durable offline queue for reports whose extraction
// could not complete. The source bytes live in blob storage, the metadata row
// in the pending reports repo; an entry only leaves the queue on a successful
// retry or an explicit discard.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nestlog-reconcile/internal/blob"
	"nestlog-reconcile/internal/domain"
	"nestlog-reconcile/internal/repository"
)

var ErrNotFound = errors.New("pending report not found")

// RetryFunc re-runs the pipeline over the stored source bytes. The queue
// entry is removed only when it returns nil.
type RetryFunc func(ctx context.Context, report domain.PendingReport, source []byte) error

type OfflineQueue struct {
	blobs  blob.Store
	repo   repository.PendingReportsRepo
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewOfflineQueue(blobs blob.Store, repo repository.PendingReportsRepo, logger *zap.Logger) *OfflineQueue {
	return &OfflineQueue{
		blobs:  blobs,
		repo:   repo,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Enqueue stores the source bytes and the metadata row, in that order. It
// runs detached from the caller's cancellation: once enqueueing starts, a
// cancelled request must not leave a half-written entry. The report is
// durable when this returns nil.
func (q *OfflineQueue) Enqueue(ctx context.Context, childID, contentType string, source []byte, failureReason string) (domain.PendingReport, error) {
	if childID == "" {
		return domain.PendingReport{}, fmt.Errorf("child_id is required")
	}

	ctx = context.WithoutCancel(ctx)
	report := domain.PendingReport{
		ID:            uuid.New().String(),
		ChildID:       childID,
		ContentType:   contentType,
		SourceRef:     uuid.New().String(),
		FailureReason: failureReason,
		CreatedAt:     time.Now().UTC(),
	}

	if err := q.blobs.Put(ctx, report.SourceRef, source); err != nil {
		return domain.PendingReport{}, fmt.Errorf("failed to store report source: %w", err)
	}
	if err := q.repo.Insert(ctx, report); err != nil {
		if delErr := q.blobs.Delete(ctx, report.SourceRef); delErr != nil {
			q.logger.Warn("Orphaned source blob after failed enqueue",
				zap.String("source_ref", report.SourceRef), zap.Error(delErr))
		}
		return domain.PendingReport{}, fmt.Errorf("failed to enqueue pending report: %w", err)
	}
	return report, nil
}

// List returns the queue newest-first, straight from durable state. Empty
// childID lists all children.
func (q *OfflineQueue) List(ctx context.Context, childID string) ([]domain.PendingReport, error) {
	return q.repo.List(ctx, childID)
}

// Retry reloads the stored source and hands it to process. On success the
// entry is removed; on failure it stays exactly as it was. Concurrent retries
// of the same id serialize, so process runs at most once per success.
func (q *OfflineQueue) Retry(ctx context.Context, id string, process RetryFunc) error {
	lock := q.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	report, err := q.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load pending report: %w", err)
	}
	if report == nil {
		return ErrNotFound
	}

	source, err := q.blobs.Get(ctx, report.SourceRef)
	if err != nil {
		return fmt.Errorf("failed to load report source: %w", err)
	}

	if err := process(ctx, *report, source); err != nil {
		return err
	}

	cleanupCtx := context.WithoutCancel(ctx)
	if err := q.repo.Delete(cleanupCtx, id); err != nil {
		return fmt.Errorf("report processed but failed to leave the queue: %w", err)
	}
	if err := q.blobs.Delete(cleanupCtx, report.SourceRef); err != nil {
		q.logger.Warn("Orphaned source blob after retry",
			zap.String("source_ref", report.SourceRef), zap.Error(err))
	}
	return nil
}

// Discard removes an entry without processing it. Only user intent reaches
// here; the pipeline itself never drops queued work.
func (q *OfflineQueue) Discard(ctx context.Context, id string) error {
	lock := q.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	report, err := q.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load pending report: %w", err)
	}
	if report == nil {
		return ErrNotFound
	}

	cleanupCtx := context.WithoutCancel(ctx)
	if err := q.repo.Delete(cleanupCtx, id); err != nil {
		return fmt.Errorf("failed to discard pending report: %w", err)
	}
	if err := q.blobs.Delete(cleanupCtx, report.SourceRef); err != nil {
		q.logger.Warn("Orphaned source blob after discard",
			zap.String("source_ref", report.SourceRef), zap.Error(err))
	}
	return nil
}

// lockFor hands out one mutex per report id. The map grows with the set of
// ids ever retried in this process, which stays small next to the queue
// itself.
func (q *OfflineQueue) lockFor(id string) *sync.Mutex {
	q.mu.Lock()
	defer q.mu.Unlock()
	lock, ok := q.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		q.locks[id] = lock
	}
	return lock
}
