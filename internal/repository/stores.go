package repository

import (
	"context"
	"time"

	"nestlog-reconcile/internal/domain"
)

// Domain stores are the systems of record, one per event kind. The pipeline
// consumes them through two verbs only: Query feeds duplicate detection with
// a bounded time window, Append commits one confirmed record and returns its
// reference. Postgres backs them in production; in-memory implementations
// serve dev mode and tests.

type SleepStore interface {
	Query(ctx context.Context, childID string, from, to time.Time) ([]domain.ExistingRecord, error)
	Append(ctx context.Context, rec domain.SleepRecord) (string, error)
}

type FeedStore interface {
	Query(ctx context.Context, childID string, from, to time.Time) ([]domain.ExistingRecord, error)
	Append(ctx context.Context, rec domain.FeedRecord) (string, error)
}

type DiaperStore interface {
	Query(ctx context.Context, childID string, from, to time.Time) ([]domain.ExistingRecord, error)
	Append(ctx context.Context, rec domain.DiaperRecord) (string, error)
}

type ActivityStore interface {
	Query(ctx context.Context, childID string, from, to time.Time) ([]domain.ExistingRecord, error)
	Append(ctx context.Context, rec domain.ActivityRecord) (string, error)
}
