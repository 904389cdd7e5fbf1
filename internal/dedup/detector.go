// Package dedup flags candidate events that likely duplicate records already
// committed to the child's history.
//
// Detection only annotates: it sets duplicate_flag and a human-readable
// duplicate_reason on the candidate and leaves every other field alone. The
// review workflow decides what happens to a flagged candidate; nothing is
// removed or auto-resolved here.
package dedup

import (
	"fmt"
	"time"

	"nestlog-reconcile/internal/domain"
)

const (
	// DefaultSleepWindow substitutes for a missing sleep end time during
	// comparison. It is never written back to the candidate.
	DefaultSleepWindow = time.Hour

	// InstantWindow is the tolerance around instant events (feed, diaper,
	// activity): history within +/-15 minutes of the start counts as the
	// same real-world occurrence.
	InstantWindow = 15 * time.Minute
)

// Detect annotates each candidate against same-kind history and returns the
// same slice. Flags and reasons are recomputed from scratch, so repeated runs
// over unmodified input produce identical output. O(n*m); callers bound the
// history to a recent window before invoking.
func Detect(candidates []domain.CandidateEvent, history []domain.ExistingRecord) []domain.CandidateEvent {
	for i := range candidates {
		annotate(&candidates[i], history)
	}
	return candidates
}

func annotate(c *domain.CandidateEvent, history []domain.ExistingRecord) {
	c.DuplicateFlag = false
	c.DuplicateReason = ""

	var best *domain.ExistingRecord
	var bestDist time.Duration
	for i := range history {
		h := &history[i]
		if !sameKind(c.Kind, h.Kind) {
			continue
		}
		var match bool
		if c.Kind == domain.KindSleep {
			match = sleepOverlaps(c, h)
		} else {
			match = absDuration(h.StartTime.Sub(c.StartTime)) <= InstantWindow
		}
		if !match {
			continue
		}
		dist := absDuration(h.StartTime.Sub(c.StartTime))
		if best == nil || dist < bestDist {
			best = h
			bestDist = dist
		}
	}

	if best == nil {
		return
	}
	c.DuplicateFlag = true
	c.DuplicateReason = reasonFor(c.Kind, best, bestDist)
}

// sameKind compares candidate and history kinds. kind=other commits into the
// activity store, so for detection purposes the two are one kind.
func sameKind(c, h domain.EventKind) bool {
	if c == domain.KindOther {
		c = domain.KindActivity
	}
	if h == domain.KindOther {
		h = domain.KindActivity
	}
	return c == h
}

// sleepOverlaps applies the half-open interval test: touching boundaries are
// not overlap. Missing end times on either side compare with the default
// window.
func sleepOverlaps(c *domain.CandidateEvent, h *domain.ExistingRecord) bool {
	cEnd := c.StartTime.Add(DefaultSleepWindow)
	if c.EndTime != nil {
		cEnd = *c.EndTime
	}
	hEnd := h.StartTime.Add(DefaultSleepWindow)
	if h.EndTime != nil {
		hEnd = *h.EndTime
	}
	return c.StartTime.Before(hEnd) && h.StartTime.Before(cEnd)
}

func reasonFor(kind domain.EventKind, h *domain.ExistingRecord, dist time.Duration) string {
	if kind == domain.KindSleep {
		if h.EndTime != nil {
			return fmt.Sprintf("Overlaps existing sleep log from %s to %s",
				formatTime(h.StartTime), formatTime(*h.EndTime))
		}
		return fmt.Sprintf("Overlaps existing sleep log starting at %s", formatTime(h.StartTime))
	}
	return fmt.Sprintf("Existing %s log at %s, %d min away",
		kind, formatTime(h.StartTime), int(dist.Minutes()))
}

func formatTime(t time.Time) string {
	return t.Format("Jan 2 15:04")
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
