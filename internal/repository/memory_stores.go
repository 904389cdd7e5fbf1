package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"nestlog-reconcile/internal/domain"

	"github.com/google/uuid"
)

// In-memory domain stores for DB_ENABLED=false dev mode and tests. Same
// contract as the Postgres stores, nothing survives a restart.

type memorySleepRecord struct {
	id  string
	rec domain.SleepRecord
}

type MemorySleepStore struct {
	mu      sync.RWMutex
	records []memorySleepRecord
}

func NewMemorySleepStore() *MemorySleepStore { return &MemorySleepStore{} }

var _ SleepStore = (*MemorySleepStore)(nil)

func (s *MemorySleepStore) Query(ctx context.Context, childID string, from, to time.Time) ([]domain.ExistingRecord, error) {
	if childID == "" {
		return nil, fmt.Errorf("child_id is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ExistingRecord
	for _, r := range s.records {
		if r.rec.ChildID != childID || r.rec.StartTime.Before(from) || !r.rec.StartTime.Before(to) {
			continue
		}
		end := r.rec.EndTime
		out = append(out, domain.ExistingRecord{
			Kind:      domain.KindSleep,
			StartTime: r.rec.StartTime,
			EndTime:   &end,
		})
	}
	sortRecords(out)
	return out, nil
}

func (s *MemorySleepStore) Append(ctx context.Context, rec domain.SleepRecord) (string, error) {
	if rec.ChildID == "" {
		return "", fmt.Errorf("child_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	s.records = append(s.records, memorySleepRecord{id: id, rec: rec})
	return id, nil
}

type memoryFeedRecord struct {
	id  string
	rec domain.FeedRecord
}

type MemoryFeedStore struct {
	mu      sync.RWMutex
	records []memoryFeedRecord
}

func NewMemoryFeedStore() *MemoryFeedStore { return &MemoryFeedStore{} }

var _ FeedStore = (*MemoryFeedStore)(nil)

func (s *MemoryFeedStore) Query(ctx context.Context, childID string, from, to time.Time) ([]domain.ExistingRecord, error) {
	if childID == "" {
		return nil, fmt.Errorf("child_id is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ExistingRecord
	for _, r := range s.records {
		if r.rec.ChildID != childID || r.rec.StartTime.Before(from) || !r.rec.StartTime.Before(to) {
			continue
		}
		out = append(out, domain.ExistingRecord{
			Kind:         domain.KindFeed,
			StartTime:    r.rec.StartTime,
			QuantityText: feedQuantityText(r.rec.FeedType, r.rec.Amount, r.rec.AmountUnit, r.rec.DurationMinutes),
		})
	}
	sortRecords(out)
	return out, nil
}

func (s *MemoryFeedStore) Append(ctx context.Context, rec domain.FeedRecord) (string, error) {
	if rec.ChildID == "" {
		return "", fmt.Errorf("child_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	s.records = append(s.records, memoryFeedRecord{id: id, rec: rec})
	return id, nil
}

type memoryDiaperRecord struct {
	id  string
	rec domain.DiaperRecord
}

type MemoryDiaperStore struct {
	mu      sync.RWMutex
	records []memoryDiaperRecord
}

func NewMemoryDiaperStore() *MemoryDiaperStore { return &MemoryDiaperStore{} }

var _ DiaperStore = (*MemoryDiaperStore)(nil)

func (s *MemoryDiaperStore) Query(ctx context.Context, childID string, from, to time.Time) ([]domain.ExistingRecord, error) {
	if childID == "" {
		return nil, fmt.Errorf("child_id is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ExistingRecord
	for _, r := range s.records {
		if r.rec.ChildID != childID || r.rec.StartTime.Before(from) || !r.rec.StartTime.Before(to) {
			continue
		}
		out = append(out, domain.ExistingRecord{
			Kind:      domain.KindDiaper,
			StartTime: r.rec.StartTime,
		})
	}
	sortRecords(out)
	return out, nil
}

func (s *MemoryDiaperStore) Append(ctx context.Context, rec domain.DiaperRecord) (string, error) {
	if rec.ChildID == "" {
		return "", fmt.Errorf("child_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	s.records = append(s.records, memoryDiaperRecord{id: id, rec: rec})
	return id, nil
}

type memoryActivityRecord struct {
	id  string
	rec domain.ActivityRecord
}

type MemoryActivityStore struct {
	mu      sync.RWMutex
	records []memoryActivityRecord
}

func NewMemoryActivityStore() *MemoryActivityStore { return &MemoryActivityStore{} }

var _ ActivityStore = (*MemoryActivityStore)(nil)

func (s *MemoryActivityStore) Query(ctx context.Context, childID string, from, to time.Time) ([]domain.ExistingRecord, error) {
	if childID == "" {
		return nil, fmt.Errorf("child_id is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ExistingRecord
	for _, r := range s.records {
		if r.rec.ChildID != childID || r.rec.StartTime.Before(from) || !r.rec.StartTime.Before(to) {
			continue
		}
		out = append(out, domain.ExistingRecord{
			Kind:         domain.KindActivity,
			StartTime:    r.rec.StartTime,
			QuantityText: r.rec.QuantityText,
		})
	}
	sortRecords(out)
	return out, nil
}

func (s *MemoryActivityStore) Append(ctx context.Context, rec domain.ActivityRecord) (string, error) {
	if rec.ChildID == "" {
		return "", fmt.Errorf("child_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	s.records = append(s.records, memoryActivityRecord{id: id, rec: rec})
	return id, nil
}

func sortRecords(records []domain.ExistingRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartTime.Before(records[j].StartTime)
	})
}
