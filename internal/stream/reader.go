package stream

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"nestlog-reconcile/pkg/redis"
)

// Reader consumes committed-event entries as part of a consumer group, so
// several downstream workers can split the stream without double-processing.
type Reader struct {
	client   *redis.Client
	group    string
	consumer string
	logger   *zap.Logger
}

// NewReader registers the consumer group (idempotent) and returns a reader
// bound to one named consumer within it.
func NewReader(ctx context.Context, client *redis.Client, group string, consumer string, logger *zap.Logger) (*Reader, error) {
	if err := redis.CreateConsumerGroup(ctx, client, StreamCommittedEvents, group); err != nil {
		return nil, err
	}
	return &Reader{
		client:   client,
		group:    group,
		consumer: consumer,
		logger:   logger,
	}, nil
}

// Fetch returns up to count undelivered committed events plus their entry ids.
// Callers Ack the ids once the events are handled; unacked entries stay
// pending for redelivery. Entries that do not decode are acked immediately so
// a poison payload cannot wedge the group.
func (r *Reader) Fetch(ctx context.Context, count int64) ([]CommittedEvent, []string, error) {
	messages, err := redis.ReadFromStream(ctx, r.client, StreamCommittedEvents, r.group, r.consumer, count)
	if err != nil {
		return nil, nil, err
	}

	events := make([]CommittedEvent, 0, len(messages))
	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		payload, _ := msg.Values["data"].(string)
		var event CommittedEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			r.logger.Warn("Dropping undecodable committed event",
				zap.String("stream", StreamCommittedEvents),
				zap.String("id", msg.ID),
				zap.Error(err),
			)
			_ = redis.AckMessage(ctx, r.client, StreamCommittedEvents, r.group, msg.ID)
			continue
		}
		events = append(events, event)
		ids = append(ids, msg.ID)
	}

	return events, ids, nil
}

// Ack acknowledges handled entries for the group.
func (r *Reader) Ack(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if err := redis.AckMessage(ctx, r.client, StreamCommittedEvents, r.group, id); err != nil {
			return err
		}
	}
	return nil
}
