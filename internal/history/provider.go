// Package history loads committed records across all domain stores for
// duplicate detection and export. Results are cached briefly in Redis so a
// review session that triggers several detections does not hammer Postgres.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"nestlog-reconcile/internal/domain"
	"nestlog-reconcile/internal/repository"
	"nestlog-reconcile/internal/store"
)

// Provider fans a window query out to the four domain stores and merges the
// results into one timeline.
type Provider struct {
	sleep    repository.SleepStore
	feed     repository.FeedStore
	diaper   repository.DiaperStore
	activity repository.ActivityStore
	kv       store.KV
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewProvider(
	sleep repository.SleepStore,
	feed repository.FeedStore,
	diaper repository.DiaperStore,
	activity repository.ActivityStore,
	kv store.KV,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *Provider {
	return &Provider{
		sleep:    sleep,
		feed:     feed,
		diaper:   diaper,
		activity: activity,
		kv:       kv,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Records returns every committed record for the child whose start time falls
// in [from, to), sorted by start time. Cache failures are logged and the
// query falls through to the stores.
func (p *Provider) Records(ctx context.Context, childID string, from, to time.Time) ([]domain.ExistingRecord, error) {
	if childID == "" {
		return nil, fmt.Errorf("child_id is required")
	}

	key := cacheKey(childID, from, to)
	if cached, err := p.kv.Get(ctx, key); err == nil {
		var records []domain.ExistingRecord
		if err := json.Unmarshal([]byte(cached), &records); err == nil {
			return records, nil
		}
		p.logger.Warn("Discarding undecodable history cache entry", zap.String("key", key))
	} else if err != store.ErrMiss {
		p.logger.Warn("History cache read failed", zap.String("key", key), zap.Error(err))
	}

	var merged []domain.ExistingRecord
	queries := []struct {
		name  string
		query func(context.Context, string, time.Time, time.Time) ([]domain.ExistingRecord, error)
	}{
		{"sleep", p.sleep.Query},
		{"feed", p.feed.Query},
		{"diaper", p.diaper.Query},
		{"activity", p.activity.Query},
	}
	for _, q := range queries {
		records, err := q.query(ctx, childID, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s history: %w", q.name, err)
		}
		merged = append(merged, records...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].StartTime.Before(merged[j].StartTime)
	})

	if data, err := json.Marshal(merged); err == nil {
		if err := p.kv.Set(ctx, key, string(data), p.cacheTTL); err != nil {
			p.logger.Warn("History cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return merged, nil
}

// Invalidate drops every cached window for the child. Called after a commit
// so the next detection sees the new records.
func (p *Provider) Invalidate(ctx context.Context, childID string) error {
	pattern := fmt.Sprintf("history:%s:*", childID)
	keys, err := p.kv.ScanKeys(ctx, pattern)
	if err != nil {
		return fmt.Errorf("failed to scan history cache keys: %w", err)
	}
	if err := p.kv.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to delete history cache keys: %w", err)
	}
	return nil
}

func cacheKey(childID string, from, to time.Time) string {
	return fmt.Sprintf("history:%s:%d:%d", childID, from.Unix(), to.Unix())
}
