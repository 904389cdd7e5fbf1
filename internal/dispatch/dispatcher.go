// Package dispatch routes confirmed candidate events into the per-kind domain
// stores. Each event commits independently; one store failure never blocks
// the rest of the batch.
package dispatch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nestlog-reconcile/internal/domain"
	"nestlog-reconcile/internal/normalizer"
	"nestlog-reconcile/internal/repository"
)

type Dispatcher struct {
	sleep    repository.SleepStore
	feed     repository.FeedStore
	diaper   repository.DiaperStore
	activity repository.ActivityStore
	logger   *zap.Logger
}

func NewDispatcher(
	sleep repository.SleepStore,
	feed repository.FeedStore,
	diaper repository.DiaperStore,
	activity repository.ActivityStore,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		sleep:    sleep,
		feed:     feed,
		diaper:   diaper,
		activity: activity,
		logger:   logger,
	}
}

// Commit writes each confirmed event to its store and reports one outcome per
// event. Events that are not confirmed, or that fail their kind's validation,
// get an error outcome without touching any store.
func (d *Dispatcher) Commit(ctx context.Context, childID string, events []domain.CandidateEvent) domain.CommitResult {
	result := domain.CommitResult{Outcomes: make([]domain.CommitOutcome, 0, len(events))}
	for _, event := range events {
		outcome := domain.CommitOutcome{EventID: event.ID, Kind: event.Kind}
		outcome.Reference, outcome.Err = d.commitOne(ctx, childID, event)
		if outcome.Err != nil {
			d.logger.Warn("Event commit failed",
				zap.String("event_id", event.ID),
				zap.String("kind", string(event.Kind)),
				zap.Error(outcome.Err),
			)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result
}

func (d *Dispatcher) commitOne(ctx context.Context, childID string, event domain.CandidateEvent) (string, error) {
	if event.ReviewState != domain.StateConfirmed {
		return "", fmt.Errorf("event %s is %s, only confirmed events commit", event.ID, event.ReviewState)
	}
	if err := event.CanConfirm(); err != nil {
		return "", err
	}

	switch event.Kind {
	case domain.KindSleep:
		return d.sleep.Append(ctx, domain.SleepRecord{
			ChildID:   childID,
			StartTime: event.StartTime,
			EndTime:   *event.EndTime,
			Details:   event.Details,
		})
	case domain.KindFeed:
		return d.feed.Append(ctx, buildFeedRecord(childID, event))
	case domain.KindDiaper:
		return d.diaper.Append(ctx, domain.DiaperRecord{
			ChildID:    childID,
			StartTime:  event.StartTime,
			DiaperType: diaperType(event),
			Details:    event.Details,
		})
	case domain.KindActivity, domain.KindOther:
		return d.activity.Append(ctx, domain.ActivityRecord{
			ChildID:      childID,
			StartTime:    event.StartTime,
			Details:      event.Details,
			QuantityText: event.QuantityText,
		})
	}
	return "", fmt.Errorf("unknown event kind %q", event.Kind)
}

// buildFeedRecord picks bottle vs nursing from the normalized quantity: a
// volume unit means bottle, anything else is nursing with the duration in
// minutes when one parsed, zero otherwise.
func buildFeedRecord(childID string, event domain.CandidateEvent) domain.FeedRecord {
	quantity := normalizer.Normalize(event.QuantityText)
	record := domain.FeedRecord{
		ChildID:   childID,
		StartTime: event.StartTime,
		Details:   event.Details,
	}
	if quantity.IsVolume() {
		record.FeedType = domain.FeedBottle
		record.Amount = quantity.Amount
		record.AmountUnit = quantity.Unit
		return record
	}
	record.FeedType = domain.FeedNursing
	if quantity.Unit == domain.UnitMinute {
		record.DurationMinutes = quantity.Amount
	}
	return record
}

func diaperType(event domain.CandidateEvent) domain.DiaperType {
	switch {
	case event.Wet && event.Dirty:
		return domain.DiaperBoth
	case event.Dirty:
		return domain.DiaperDirty
	default:
		return domain.DiaperWet
	}
}
