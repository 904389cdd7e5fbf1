package domain

import (
	"errors"
	"fmt"
	"time"
)

// EventKind classifies a caregiving event.
type EventKind string

const (
	KindSleep    EventKind = "sleep"
	KindFeed     EventKind = "feed"
	KindDiaper   EventKind = "diaper"
	KindActivity EventKind = "activity"
	KindOther    EventKind = "other"
)

// ParseEventKind maps a wire string onto a known kind.
func ParseEventKind(s string) (EventKind, bool) {
	switch EventKind(s) {
	case KindSleep, KindFeed, KindDiaper, KindActivity, KindOther:
		return EventKind(s), true
	}
	return "", false
}

// ReviewState tracks where a candidate sits in the review workflow.
type ReviewState string

const (
	StateDetected  ReviewState = "detected"
	StateEdited    ReviewState = "edited"
	StateConfirmed ReviewState = "confirmed"
	StateRejected  ReviewState = "rejected"
)

var (
	ErrMissingStartTime = errors.New("start time is required")
	ErrEndBeforeStart   = errors.New("end time must be after start time")
	ErrSleepWithoutEnd  = errors.New("sleep event has no end time")
)

// CandidateEvent is one extracted, not-yet-committed caregiving event. The
// review workflow mutates it in place; everything else treats it as a value.
type CandidateEvent struct {
	ID              string      `json:"id"`
	Kind            EventKind   `json:"kind"`
	StartTime       time.Time   `json:"start_time"`
	EndTime         *time.Time  `json:"end_time,omitempty"`
	QuantityText    string      `json:"quantity_text,omitempty"`
	Details         string      `json:"details,omitempty"`
	Wet             bool        `json:"wet"`
	Dirty           bool        `json:"dirty"`
	ReviewState     ReviewState `json:"review_state"`
	DuplicateFlag   bool        `json:"duplicate_flag"`
	DuplicateReason string      `json:"duplicate_reason,omitempty"`
}

// Validate checks the structural invariants that hold regardless of review
// state: a known kind, a start time, and an end strictly after the start.
func (e *CandidateEvent) Validate() error {
	if _, ok := ParseEventKind(string(e.Kind)); !ok {
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.StartTime.IsZero() {
		return ErrMissingStartTime
	}
	if e.EndTime != nil && !e.EndTime.After(e.StartTime) {
		return ErrEndBeforeStart
	}
	return nil
}

// CanConfirm reports whether the event is eligible for confirmation. A sleep
// without an end time is incomplete and stays unconfirmable until edited.
func (e *CandidateEvent) CanConfirm() error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.Kind == KindSleep && e.EndTime == nil {
		return ErrSleepWithoutEnd
	}
	return nil
}
