package domain

import "time"

// PendingReport is the durable record of an ingestion attempt that could not
// complete. It is the only pipeline entity that survives a restart; candidate
// lists are rebuilt from the stored source bytes on retry.
type PendingReport struct {
	ID            string    `json:"id"`
	ChildID       string    `json:"child_id"`
	ContentType   string    `json:"content_type"`
	SourceRef     string    `json:"source_ref"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
