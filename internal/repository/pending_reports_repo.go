package repository

import (
	"context"

	"nestlog-reconcile/internal/domain"
)

// PendingReportsRepo persists the retry queue metadata. The source bytes
// themselves live in blob storage under PendingReport.SourceRef; this repo
// only tracks what is waiting and why it failed.
type PendingReportsRepo interface {
	// Insert stores a new pending report. The report must already carry its ID.
	Insert(ctx context.Context, report domain.PendingReport) error

	// Get returns the pending report by ID, or (nil, nil) when absent.
	Get(ctx context.Context, id string) (*domain.PendingReport, error)

	// List returns pending reports newest-first. Empty childID lists all
	// children.
	List(ctx context.Context, childID string) ([]domain.PendingReport, error)

	// Delete removes the metadata row. Deleting an absent ID is not an error.
	Delete(ctx context.Context, id string) error
}
