package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"nestlog-reconcile/internal/domain"
)

// MemoryPendingReportsRepo keeps queue metadata in memory. Retrying after a
// restart only works with the Postgres repo; this one is for dev mode and
// tests.
type MemoryPendingReportsRepo struct {
	mu      sync.RWMutex
	reports map[string]domain.PendingReport
}

func NewMemoryPendingReportsRepo() *MemoryPendingReportsRepo {
	return &MemoryPendingReportsRepo{reports: make(map[string]domain.PendingReport)}
}

var _ PendingReportsRepo = (*MemoryPendingReportsRepo)(nil)

func (r *MemoryPendingReportsRepo) Insert(ctx context.Context, report domain.PendingReport) error {
	if report.ID == "" {
		return fmt.Errorf("pending report id is required")
	}
	if report.ChildID == "" {
		return fmt.Errorf("child_id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[report.ID] = report
	return nil
}

func (r *MemoryPendingReportsRepo) Get(ctx context.Context, id string) (*domain.PendingReport, error) {
	if id == "" {
		return nil, fmt.Errorf("pending report id is required")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	report, ok := r.reports[id]
	if !ok {
		return nil, nil
	}
	return &report, nil
}

func (r *MemoryPendingReportsRepo) List(ctx context.Context, childID string) ([]domain.PendingReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reports []domain.PendingReport
	for _, report := range r.reports {
		if childID != "" && report.ChildID != childID {
			continue
		}
		reports = append(reports, report)
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].ID > reports[j].ID
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

func (r *MemoryPendingReportsRepo) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("pending report id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reports, id)
	return nil
}
