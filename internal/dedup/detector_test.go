package dedup

import (
	"testing"
	"time"

	"nestlog-reconcile/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
}

func tp(t time.Time) *time.Time { return &t }

func sleepCandidate(start, end time.Time) domain.CandidateEvent {
	return domain.CandidateEvent{
		ID:          "c1",
		Kind:        domain.KindSleep,
		StartTime:   start,
		EndTime:     tp(end),
		ReviewState: domain.StateDetected,
	}
}

func TestDetect_SleepExactIntervalFlagged(t *testing.T) {
	candidates := []domain.CandidateEvent{sleepCandidate(at(19, 0), at(20, 30))}
	history := []domain.ExistingRecord{
		{Kind: domain.KindSleep, StartTime: at(19, 0), EndTime: tp(at(20, 30))},
	}

	out := Detect(candidates, history)
	require.Len(t, out, 1)
	assert.True(t, out[0].DuplicateFlag)
	assert.Contains(t, out[0].DuplicateReason, "Overlaps existing sleep log")
	assert.Contains(t, out[0].DuplicateReason, "19:00")
	assert.Contains(t, out[0].DuplicateReason, "20:30")
}

func TestDetect_TouchingBoundariesNotFlagged(t *testing.T) {
	// candidate starts exactly when the existing record ends
	candidates := []domain.CandidateEvent{sleepCandidate(at(20, 30), at(21, 30))}
	history := []domain.ExistingRecord{
		{Kind: domain.KindSleep, StartTime: at(19, 0), EndTime: tp(at(20, 30))},
	}
	out := Detect(candidates, history)
	assert.False(t, out[0].DuplicateFlag)
	assert.Empty(t, out[0].DuplicateReason)

	// candidate ends exactly when the existing record starts
	candidates = []domain.CandidateEvent{sleepCandidate(at(18, 0), at(19, 0))}
	out = Detect(candidates, history)
	assert.False(t, out[0].DuplicateFlag)
}

func TestDetect_PartialOverlapFlagged(t *testing.T) {
	candidates := []domain.CandidateEvent{sleepCandidate(at(20, 0), at(21, 0))}
	history := []domain.ExistingRecord{
		{Kind: domain.KindSleep, StartTime: at(19, 0), EndTime: tp(at(20, 30))},
	}
	out := Detect(candidates, history)
	assert.True(t, out[0].DuplicateFlag)
}

func TestDetect_MissingEndTimeUsesDefaultWindowWithoutWriteback(t *testing.T) {
	candidate := domain.CandidateEvent{
		ID:          "c1",
		Kind:        domain.KindSleep,
		StartTime:   at(19, 0),
		ReviewState: domain.StateDetected,
	}
	history := []domain.ExistingRecord{
		{Kind: domain.KindSleep, StartTime: at(19, 30), EndTime: tp(at(20, 30))},
	}

	out := Detect([]domain.CandidateEvent{candidate}, history)
	assert.True(t, out[0].DuplicateFlag)
	// the one-hour comparison window must not materialize on the candidate
	assert.Nil(t, out[0].EndTime)

	// outside the default window: history starting 1h after the open start
	history = []domain.ExistingRecord{
		{Kind: domain.KindSleep, StartTime: at(20, 0), EndTime: tp(at(21, 0))},
	}
	out = Detect([]domain.CandidateEvent{candidate}, history)
	assert.False(t, out[0].DuplicateFlag)
}

func TestDetect_InstantWindow(t *testing.T) {
	feed := domain.CandidateEvent{ID: "c1", Kind: domain.KindFeed, StartTime: at(21, 15)}

	within := []domain.ExistingRecord{{Kind: domain.KindFeed, StartTime: at(21, 5)}}
	out := Detect([]domain.CandidateEvent{feed}, within)
	assert.True(t, out[0].DuplicateFlag)
	assert.Contains(t, out[0].DuplicateReason, "Existing feed log at")

	boundary := []domain.ExistingRecord{{Kind: domain.KindFeed, StartTime: at(21, 0)}}
	out = Detect([]domain.CandidateEvent{feed}, boundary)
	assert.True(t, out[0].DuplicateFlag, "exactly 15 minutes is inside the window")

	outside := []domain.ExistingRecord{{Kind: domain.KindFeed, StartTime: at(20, 59)}}
	out = Detect([]domain.CandidateEvent{feed}, outside)
	assert.False(t, out[0].DuplicateFlag)
}

func TestDetect_KindFilter(t *testing.T) {
	diaper := domain.CandidateEvent{ID: "c1", Kind: domain.KindDiaper, StartTime: at(22, 0)}
	history := []domain.ExistingRecord{
		{Kind: domain.KindFeed, StartTime: at(22, 0)},
		{Kind: domain.KindActivity, StartTime: at(22, 0)},
	}
	out := Detect([]domain.CandidateEvent{diaper}, history)
	assert.False(t, out[0].DuplicateFlag)
}

func TestDetect_OtherMatchesActivityHistory(t *testing.T) {
	other := domain.CandidateEvent{ID: "c1", Kind: domain.KindOther, StartTime: at(10, 0)}
	history := []domain.ExistingRecord{{Kind: domain.KindActivity, StartTime: at(10, 5)}}
	out := Detect([]domain.CandidateEvent{other}, history)
	assert.True(t, out[0].DuplicateFlag)
}

func TestDetect_ClosestMatchReported(t *testing.T) {
	feed := domain.CandidateEvent{ID: "c1", Kind: domain.KindFeed, StartTime: at(21, 15)}
	history := []domain.ExistingRecord{
		{Kind: domain.KindFeed, StartTime: at(21, 1)},
		{Kind: domain.KindFeed, StartTime: at(21, 10)},
	}
	out := Detect([]domain.CandidateEvent{feed}, history)
	require.True(t, out[0].DuplicateFlag)
	assert.Contains(t, out[0].DuplicateReason, "21:10")
	assert.Contains(t, out[0].DuplicateReason, "5 min away")
}

func TestDetect_Idempotent(t *testing.T) {
	candidates := []domain.CandidateEvent{
		sleepCandidate(at(19, 0), at(20, 30)),
		{ID: "c2", Kind: domain.KindFeed, StartTime: at(21, 15)},
	}
	history := []domain.ExistingRecord{
		{Kind: domain.KindSleep, StartTime: at(19, 30), EndTime: tp(at(20, 0))},
		{Kind: domain.KindFeed, StartTime: at(21, 10)},
	}

	first := Detect(append([]domain.CandidateEvent(nil), candidates...), history)
	second := Detect(append([]domain.CandidateEvent(nil), first...), history)
	assert.Equal(t, first, second)
}

func TestDetect_StaleAnnotationCleared(t *testing.T) {
	candidate := sleepCandidate(at(19, 0), at(20, 30))
	candidate.DuplicateFlag = true
	candidate.DuplicateReason = "stale"

	out := Detect([]domain.CandidateEvent{candidate}, nil)
	assert.False(t, out[0].DuplicateFlag)
	assert.Empty(t, out[0].DuplicateReason)
}
