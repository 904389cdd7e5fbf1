// Package stream announces committed records on a Redis Stream so downstream
// consumers (stats, timelines) can react without polling Postgres.
package stream

import (
	"context"
	"time"

	"go.uber.org/zap"

	"nestlog-reconcile/internal/domain"
	"nestlog-reconcile/pkg/redis"
)

// StreamCommittedEvents carries one entry per committed record.
const StreamCommittedEvents = "nestlog:events:committed"

// CommittedEvent is the stream payload. Reference points into the per-kind
// domain store.
type CommittedEvent struct {
	ChildID     string           `json:"child_id"`
	EventID     string           `json:"event_id"`
	Kind        domain.EventKind `json:"kind"`
	Reference   string           `json:"reference"`
	CommittedAt time.Time        `json:"committed_at"`
}

type Publisher struct {
	client *redis.Client
	logger *zap.Logger
}

func NewPublisher(client *redis.Client, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// PublishCommitted emits one entry per successful outcome. Publishing is
// best-effort: the records are already committed, so a failure here is logged
// and never surfaces to the caller.
func (p *Publisher) PublishCommitted(ctx context.Context, childID string, outcomes []domain.CommitOutcome) {
	now := time.Now().UTC()
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			continue
		}
		event := CommittedEvent{
			ChildID:     childID,
			EventID:     outcome.EventID,
			Kind:        outcome.Kind,
			Reference:   outcome.Reference,
			CommittedAt: now,
		}
		if _, err := redis.PublishJSONToStream(ctx, p.client, StreamCommittedEvents, event); err != nil {
			p.logger.Warn("Failed to publish committed event",
				zap.String("event_id", outcome.EventID),
				zap.String("stream", StreamCommittedEvents),
				zap.Error(err),
			)
		}
	}
}
