package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"nestlog-reconcile/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// rawCandidate is the loose wire shape the extraction service emits. Every
// field is untrusted: strings where the model should have produced
// timestamps, kinds it invented, flags it omitted.
type rawCandidate struct {
	Kind         string `json:"kind"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	QuantityText string `json:"quantity_text"`
	Details      string `json:"details"`
	Wet          *bool  `json:"wet"`
	Dirty        *bool  `json:"dirty"`
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func parseWireTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, domain.ErrMissingStartTime
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// stripCodeFences removes markdown code blocks the generative service tends
// to wrap its JSON in.
func stripCodeFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return []byte(strings.TrimSpace(s))
}

// ParseCandidates validates raw extraction output into candidate events.
// Undecodable payloads return ErrMalformed; individually broken items are
// dropped with a warning and the rest survive. An empty list is a valid
// result, not an error.
func ParseCandidates(raw []byte, logger *zap.Logger) ([]domain.CandidateEvent, error) {
	var items []rawCandidate
	if err := json.Unmarshal(stripCodeFences(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	events := make([]domain.CandidateEvent, 0, len(items))
	for i, item := range items {
		kind, ok := domain.ParseEventKind(strings.ToLower(strings.TrimSpace(item.Kind)))
		if !ok {
			logger.Warn("Dropping candidate with unknown kind",
				zap.Int("index", i),
				zap.String("kind", item.Kind),
			)
			continue
		}

		start, err := parseWireTime(item.StartTime)
		if err != nil {
			logger.Warn("Dropping candidate with unusable start time",
				zap.Int("index", i),
				zap.String("start_time", item.StartTime),
				zap.Error(err),
			)
			continue
		}

		// only sleep carries a duration; feed/diaper/activity are instants
		var end *time.Time
		if kind == domain.KindSleep && strings.TrimSpace(item.EndTime) != "" {
			e, err := parseWireTime(item.EndTime)
			if err != nil || !e.After(start) {
				// keep the event, drop the unusable end; start is the anchor
				logger.Warn("Dropping unusable end time",
					zap.Int("index", i),
					zap.String("end_time", item.EndTime),
				)
			} else {
				end = &e
			}
		}

		ev := domain.CandidateEvent{
			ID:           uuid.New().String(),
			Kind:         kind,
			StartTime:    start,
			EndTime:      end,
			QuantityText: strings.TrimSpace(item.QuantityText),
			Details:      strings.TrimSpace(item.Details),
			ReviewState:  domain.StateDetected,
		}
		if item.Wet != nil {
			ev.Wet = *item.Wet
		}
		if item.Dirty != nil {
			ev.Dirty = *item.Dirty
		}
		events = append(events, ev)
	}

	return events, nil
}
