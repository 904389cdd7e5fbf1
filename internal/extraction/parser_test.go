package extraction

import (
	"testing"
	"time"

	"nestlog-reconcile/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseCandidates_ValidPayload(t *testing.T) {
	raw := []byte(`[
		{"kind":"sleep","start_time":"2026-03-10T19:00:00Z","end_time":"2026-03-10T20:30:00Z"},
		{"kind":"feed","start_time":"2026-03-10T21:15:00Z","quantity_text":"4oz","details":"bottle"},
		{"kind":"diaper","start_time":"2026-03-10T22:00:00Z","wet":true,"dirty":false}
	]`)

	events, err := ParseCandidates(raw, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, domain.KindSleep, events[0].Kind)
	require.NotNil(t, events[0].EndTime)
	assert.Equal(t, time.Date(2026, 3, 10, 20, 30, 0, 0, time.UTC), *events[0].EndTime)

	assert.Equal(t, "4oz", events[1].QuantityText)
	assert.Equal(t, "bottle", events[1].Details)

	assert.True(t, events[2].Wet)
	assert.False(t, events[2].Dirty)

	seen := map[string]bool{}
	for _, ev := range events {
		assert.Equal(t, domain.StateDetected, ev.ReviewState)
		assert.NotEmpty(t, ev.ID)
		assert.False(t, seen[ev.ID], "ids must be unique")
		seen[ev.ID] = true
	}
}

func TestParseCandidates_MarkdownFences(t *testing.T) {
	raw := []byte("```json\n[{\"kind\":\"feed\",\"start_time\":\"2026-03-10T21:15:00Z\"}]\n```")
	events, err := ParseCandidates(raw, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestParseCandidates_GarbageIsMalformed(t *testing.T) {
	_, err := ParseCandidates([]byte("the baby slept well"), zap.NewNop())
	assert.ErrorIs(t, err, ErrMalformed)
	assert.True(t, IsMalformed(err))
	assert.False(t, IsTransient(err))
}

func TestParseCandidates_EmptyListIsValid(t *testing.T) {
	events, err := ParseCandidates([]byte("[]"), zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParseCandidates_DropsUnknownKind(t *testing.T) {
	raw := []byte(`[
		{"kind":"teleport","start_time":"2026-03-10T19:00:00Z"},
		{"kind":"activity","start_time":"2026-03-10T19:00:00Z","details":"tummy time"}
	]`)
	events, err := ParseCandidates(raw, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.KindActivity, events[0].Kind)
}

func TestParseCandidates_DropsMissingOrBadStart(t *testing.T) {
	raw := []byte(`[
		{"kind":"feed"},
		{"kind":"feed","start_time":"sometime after lunch"},
		{"kind":"feed","start_time":"2026-03-10T21:15:00Z"}
	]`)
	events, err := ParseCandidates(raw, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestParseCandidates_EndBeforeStartDroppedButEventKept(t *testing.T) {
	raw := []byte(`[{"kind":"sleep","start_time":"2026-03-10T19:00:00Z","end_time":"2026-03-10T18:00:00Z"}]`)
	events, err := ParseCandidates(raw, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].EndTime)
}

func TestParseCandidates_EndTimeIgnoredForInstantKinds(t *testing.T) {
	raw := []byte(`[
		{"kind":"feed","start_time":"2026-03-10T21:15:00Z","end_time":"2026-03-10T21:30:00Z","quantity_text":"4oz"},
		{"kind":"diaper","start_time":"2026-03-10T22:00:00Z","end_time":"2026-03-10T22:05:00Z","wet":true},
		{"kind":"activity","start_time":"2026-03-10T23:00:00Z","end_time":"2026-03-10T23:20:00Z"}
	]`)
	events, err := ParseCandidates(raw, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.Nil(t, ev.EndTime, "kind %s is an instant", ev.Kind)
	}
}

func TestParseCandidates_NaiveTimestampAccepted(t *testing.T) {
	raw := []byte(`[{"kind":"diaper","start_time":"2026-03-10 22:00"}]`)
	events, err := ParseCandidates(raw, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC), events[0].StartTime)
}
