package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nestlog-reconcile/internal/domain"

	"github.com/google/uuid"
)

// PostgresSleepStore persists sleep records.
type PostgresSleepStore struct {
	db *sql.DB
}

func NewPostgresSleepStore(db *sql.DB) *PostgresSleepStore {
	return &PostgresSleepStore{db: db}
}

var _ SleepStore = (*PostgresSleepStore)(nil)

func (s *PostgresSleepStore) Query(ctx context.Context, childID string, from, to time.Time) ([]domain.ExistingRecord, error) {
	if childID == "" {
		return nil, fmt.Errorf("child_id is required")
	}

	query := `
		SELECT start_time, end_time
		FROM sleep_records
		WHERE child_id = $1::uuid
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time
	`
	rows, err := s.db.QueryContext(ctx, query, childID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query sleep records: %w", err)
	}
	defer rows.Close()

	var records []domain.ExistingRecord
	for rows.Next() {
		var start, end time.Time
		if err := rows.Scan(&start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan sleep record: %w", err)
		}
		endCopy := end
		records = append(records, domain.ExistingRecord{
			Kind:      domain.KindSleep,
			StartTime: start,
			EndTime:   &endCopy,
		})
	}
	return records, rows.Err()
}

func (s *PostgresSleepStore) Append(ctx context.Context, rec domain.SleepRecord) (string, error) {
	if rec.ChildID == "" {
		return "", fmt.Errorf("child_id is required")
	}

	recordID := uuid.New().String()
	query := `
		INSERT INTO sleep_records (record_id, child_id, start_time, end_time, details)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, query, recordID, rec.ChildID, rec.StartTime, rec.EndTime, rec.Details); err != nil {
		return "", fmt.Errorf("failed to append sleep record: %w", err)
	}
	return recordID, nil
}

// PostgresFeedStore persists bottle and nursing feed records.
type PostgresFeedStore struct {
	db *sql.DB
}

func NewPostgresFeedStore(db *sql.DB) *PostgresFeedStore {
	return &PostgresFeedStore{db: db}
}

var _ FeedStore = (*PostgresFeedStore)(nil)

func (s *PostgresFeedStore) Query(ctx context.Context, childID string, from, to time.Time) ([]domain.ExistingRecord, error) {
	if childID == "" {
		return nil, fmt.Errorf("child_id is required")
	}

	query := `
		SELECT start_time, feed_type, amount, amount_unit, duration_minutes
		FROM feed_records
		WHERE child_id = $1::uuid
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time
	`
	rows, err := s.db.QueryContext(ctx, query, childID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed records: %w", err)
	}
	defer rows.Close()

	var records []domain.ExistingRecord
	for rows.Next() {
		var start time.Time
		var feedType, amountUnit string
		var amount, durationMinutes float64
		if err := rows.Scan(&start, &feedType, &amount, &amountUnit, &durationMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan feed record: %w", err)
		}
		records = append(records, domain.ExistingRecord{
			Kind:         domain.KindFeed,
			StartTime:    start,
			QuantityText: feedQuantityText(domain.FeedType(feedType), amount, domain.Unit(amountUnit), durationMinutes),
		})
	}
	return records, rows.Err()
}

func (s *PostgresFeedStore) Append(ctx context.Context, rec domain.FeedRecord) (string, error) {
	if rec.ChildID == "" {
		return "", fmt.Errorf("child_id is required")
	}

	recordID := uuid.New().String()
	query := `
		INSERT INTO feed_records (record_id, child_id, start_time, feed_type, amount, amount_unit, duration_minutes, details)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8)
	`
	if _, err := s.db.ExecContext(ctx, query,
		recordID, rec.ChildID, rec.StartTime, string(rec.FeedType),
		rec.Amount, string(rec.AmountUnit), rec.DurationMinutes, rec.Details,
	); err != nil {
		return "", fmt.Errorf("failed to append feed record: %w", err)
	}
	return recordID, nil
}

// feedQuantityText reconstructs a human-readable quantity for duplicate
// reporting and export.
func feedQuantityText(feedType domain.FeedType, amount float64, unit domain.Unit, durationMinutes float64) string {
	if feedType == domain.FeedNursing {
		return fmt.Sprintf("%g min", durationMinutes)
	}
	switch unit {
	case domain.UnitOunce:
		return fmt.Sprintf("%g oz", amount)
	case domain.UnitMilliliter:
		return fmt.Sprintf("%g ml", amount)
	}
	return ""
}

// PostgresDiaperStore persists diaper records.
type PostgresDiaperStore struct {
	db *sql.DB
}

func NewPostgresDiaperStore(db *sql.DB) *PostgresDiaperStore {
	return &PostgresDiaperStore{db: db}
}

var _ DiaperStore = (*PostgresDiaperStore)(nil)

func (s *PostgresDiaperStore) Query(ctx context.Context, childID string, from, to time.Time) ([]domain.ExistingRecord, error) {
	if childID == "" {
		return nil, fmt.Errorf("child_id is required")
	}

	query := `
		SELECT start_time
		FROM diaper_records
		WHERE child_id = $1::uuid
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time
	`
	rows, err := s.db.QueryContext(ctx, query, childID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query diaper records: %w", err)
	}
	defer rows.Close()

	var records []domain.ExistingRecord
	for rows.Next() {
		var start time.Time
		if err := rows.Scan(&start); err != nil {
			return nil, fmt.Errorf("failed to scan diaper record: %w", err)
		}
		records = append(records, domain.ExistingRecord{
			Kind:      domain.KindDiaper,
			StartTime: start,
		})
	}
	return records, rows.Err()
}

func (s *PostgresDiaperStore) Append(ctx context.Context, rec domain.DiaperRecord) (string, error) {
	if rec.ChildID == "" {
		return "", fmt.Errorf("child_id is required")
	}

	recordID := uuid.New().String()
	query := `
		INSERT INTO diaper_records (record_id, child_id, start_time, diaper_type, details)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, query, recordID, rec.ChildID, rec.StartTime, string(rec.DiaperType), rec.Details); err != nil {
		return "", fmt.Errorf("failed to append diaper record: %w", err)
	}
	return recordID, nil
}

// PostgresActivityStore persists activity records, including kind=other
// commits.
type PostgresActivityStore struct {
	db *sql.DB
}

func NewPostgresActivityStore(db *sql.DB) *PostgresActivityStore {
	return &PostgresActivityStore{db: db}
}

var _ ActivityStore = (*PostgresActivityStore)(nil)

func (s *PostgresActivityStore) Query(ctx context.Context, childID string, from, to time.Time) ([]domain.ExistingRecord, error) {
	if childID == "" {
		return nil, fmt.Errorf("child_id is required")
	}

	query := `
		SELECT start_time, COALESCE(quantity_text, '') as quantity_text
		FROM activity_records
		WHERE child_id = $1::uuid
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time
	`
	rows, err := s.db.QueryContext(ctx, query, childID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity records: %w", err)
	}
	defer rows.Close()

	var records []domain.ExistingRecord
	for rows.Next() {
		var start time.Time
		var quantityText string
		if err := rows.Scan(&start, &quantityText); err != nil {
			return nil, fmt.Errorf("failed to scan activity record: %w", err)
		}
		records = append(records, domain.ExistingRecord{
			Kind:         domain.KindActivity,
			StartTime:    start,
			QuantityText: quantityText,
		})
	}
	return records, rows.Err()
}

func (s *PostgresActivityStore) Append(ctx context.Context, rec domain.ActivityRecord) (string, error) {
	if rec.ChildID == "" {
		return "", fmt.Errorf("child_id is required")
	}

	recordID := uuid.New().String()
	query := `
		INSERT INTO activity_records (record_id, child_id, start_time, details, quantity_text)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, query, recordID, rec.ChildID, rec.StartTime, rec.Details, rec.QuantityText); err != nil {
		return "", fmt.Errorf("failed to append activity record: %w", err)
	}
	return recordID, nil
}
