package domain

import "time"

// ExistingRecord is a read-only view of one committed record, used only as
// duplicate-detection input. The domain stores own it; the pipeline never
// mutates it.
type ExistingRecord struct {
	Kind         EventKind  `json:"kind"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	QuantityText string     `json:"quantity_text,omitempty"`
}

// FeedType disambiguates feed records at commit time.
type FeedType string

const (
	FeedBottle  FeedType = "bottle"
	FeedNursing FeedType = "nursing"
)

// DiaperType is resolved from the wet/dirty flags at commit time.
type DiaperType string

const (
	DiaperWet   DiaperType = "wet"
	DiaperDirty DiaperType = "dirty"
	DiaperBoth  DiaperType = "both"
)

// SleepRecord is the committed shape for kind=sleep.
type SleepRecord struct {
	ChildID   string    `json:"child_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Details   string    `json:"details,omitempty"`
}

// FeedRecord is the committed shape for kind=feed. Bottle feeds carry an
// amount with its volume unit; nursing feeds carry a duration in minutes.
type FeedRecord struct {
	ChildID         string    `json:"child_id"`
	StartTime       time.Time `json:"start_time"`
	FeedType        FeedType  `json:"feed_type"`
	Amount          float64   `json:"amount,omitempty"`
	AmountUnit      Unit      `json:"amount_unit,omitempty"`
	DurationMinutes float64   `json:"duration_minutes,omitempty"`
	Details         string    `json:"details,omitempty"`
}

// DiaperRecord is the committed shape for kind=diaper.
type DiaperRecord struct {
	ChildID    string     `json:"child_id"`
	StartTime  time.Time  `json:"start_time"`
	DiaperType DiaperType `json:"diaper_type"`
	Details    string     `json:"details,omitempty"`
}

// ActivityRecord is the committed shape for kind=activity and kind=other.
type ActivityRecord struct {
	ChildID      string    `json:"child_id"`
	StartTime    time.Time `json:"start_time"`
	Details      string    `json:"details,omitempty"`
	QuantityText string    `json:"quantity_text,omitempty"`
}
