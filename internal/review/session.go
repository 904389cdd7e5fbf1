package review

import (
	"errors"
	"fmt"
	"time"

	"nestlog-reconcile/internal/domain"
)

var ErrEventNotFound = errors.New("event not found in session")

// Session holds the candidate list produced by one ingest or retry while the
// user reviews it. Callers mutate it only inside SessionStore.WithSession.
type Session struct {
	ID        string                  `json:"id"`
	ChildID   string                  `json:"child_id"`
	CreatedAt time.Time               `json:"created_at"`
	Events    []domain.CandidateEvent `json:"events"`
}

// EventPatch carries the editable candidate fields. Nil means "leave as is";
// ClearEndTime removes the end time explicitly since a nil pointer cannot.
type EventPatch struct {
	Kind         *domain.EventKind `json:"kind,omitempty"`
	StartTime    *time.Time        `json:"start_time,omitempty"`
	EndTime      *time.Time        `json:"end_time,omitempty"`
	ClearEndTime bool              `json:"clear_end_time,omitempty"`
	QuantityText *string           `json:"quantity_text,omitempty"`
	Details      *string           `json:"details,omitempty"`
	Wet          *bool             `json:"wet,omitempty"`
	Dirty        *bool             `json:"dirty,omitempty"`
}

func (s *Session) find(eventID string) (*domain.CandidateEvent, error) {
	for i := range s.Events {
		if s.Events[i].ID == eventID {
			return &s.Events[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
}

// UpdateEvent applies a field patch, validates the result, and moves the
// event to edited. The event is untouched when validation or the transition
// fails.
func (s *Session) UpdateEvent(eventID string, patch EventPatch) (*domain.CandidateEvent, error) {
	ev, err := s.find(eventID)
	if err != nil {
		return nil, err
	}

	next, err := Transition(ev.ReviewState, ActionEdit)
	if err != nil {
		return nil, err
	}

	updated := *ev
	if patch.Kind != nil {
		updated.Kind = *patch.Kind
	}
	if patch.StartTime != nil {
		updated.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		end := *patch.EndTime
		updated.EndTime = &end
	} else if patch.ClearEndTime {
		updated.EndTime = nil
	}
	if patch.QuantityText != nil {
		updated.QuantityText = *patch.QuantityText
	}
	if patch.Details != nil {
		updated.Details = *patch.Details
	}
	if patch.Wet != nil {
		updated.Wet = *patch.Wet
	}
	if patch.Dirty != nil {
		updated.Dirty = *patch.Dirty
	}

	if err := updated.Validate(); err != nil {
		return nil, err
	}

	updated.ReviewState = next
	*ev = updated
	return ev, nil
}

// ConfirmEvent marks one event confirmed. Incomplete events (sleep without an
// end time) stay where they are.
func (s *Session) ConfirmEvent(eventID string) (*domain.CandidateEvent, error) {
	ev, err := s.find(eventID)
	if err != nil {
		return nil, err
	}
	if err := ev.CanConfirm(); err != nil {
		return nil, err
	}
	next, err := Transition(ev.ReviewState, ActionConfirm)
	if err != nil {
		return nil, err
	}
	ev.ReviewState = next
	return ev, nil
}

// RejectEvent marks one event rejected.
func (s *Session) RejectEvent(eventID string) (*domain.CandidateEvent, error) {
	ev, err := s.find(eventID)
	if err != nil {
		return nil, err
	}
	next, err := Transition(ev.ReviewState, ActionReject)
	if err != nil {
		return nil, err
	}
	ev.ReviewState = next
	return ev, nil
}

// ConfirmAll confirms every non-rejected event in one pass and returns the
// ids it had to skip because they are not confirmable yet. Rejected events
// stay rejected.
func (s *Session) ConfirmAll() (skipped []string) {
	for i := range s.Events {
		ev := &s.Events[i]
		if ev.ReviewState == domain.StateRejected {
			continue
		}
		if err := ev.CanConfirm(); err != nil {
			skipped = append(skipped, ev.ID)
			continue
		}
		ev.ReviewState = domain.StateConfirmed
	}
	return skipped
}

// RejectAll rejects every event in one pass, including previously confirmed
// ones.
func (s *Session) RejectAll() {
	for i := range s.Events {
		s.Events[i].ReviewState = domain.StateRejected
	}
}

// ConfirmedEvents returns copies of the events eligible for commit.
func (s *Session) ConfirmedEvents() []domain.CandidateEvent {
	var confirmed []domain.CandidateEvent
	for _, ev := range s.Events {
		if ev.ReviewState == domain.StateConfirmed {
			confirmed = append(confirmed, ev)
		}
	}
	return confirmed
}

// RemoveEvents drops the given ids from the session, used after those events
// were durably committed.
func (s *Session) RemoveEvents(ids []string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.Events[:0]
	for _, ev := range s.Events {
		if !drop[ev.ID] {
			kept = append(kept, ev)
		}
	}
	s.Events = kept
}

// Clone returns a deep copy safe to hand outside the session lock.
func (s *Session) Clone() *Session {
	out := &Session{
		ID:        s.ID,
		ChildID:   s.ChildID,
		CreatedAt: s.CreatedAt,
		Events:    make([]domain.CandidateEvent, len(s.Events)),
	}
	copy(out.Events, s.Events)
	for i := range out.Events {
		if out.Events[i].EndTime != nil {
			end := *out.Events[i].EndTime
			out.Events[i].EndTime = &end
		}
	}
	return out
}
