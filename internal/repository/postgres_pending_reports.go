package repository

import (
	"context"
	"database/sql"
	"fmt"

	"nestlog-reconcile/internal/domain"
)

// PostgresPendingReportsRepo implements PendingReportsRepo on Postgres.
type PostgresPendingReportsRepo struct {
	db *sql.DB
}

func NewPostgresPendingReportsRepo(db *sql.DB) *PostgresPendingReportsRepo {
	return &PostgresPendingReportsRepo{db: db}
}

var _ PendingReportsRepo = (*PostgresPendingReportsRepo)(nil)

func (r *PostgresPendingReportsRepo) Insert(ctx context.Context, report domain.PendingReport) error {
	if report.ID == "" {
		return fmt.Errorf("pending report id is required")
	}
	if report.ChildID == "" {
		return fmt.Errorf("child_id is required")
	}

	query := `
		INSERT INTO pending_reports (
			pending_report_id, child_id, content_type, source_ref,
			failure_reason, created_at
		) VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		report.ID, report.ChildID, report.ContentType, report.SourceRef,
		report.FailureReason, report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pending report: %w", err)
	}
	return nil
}

func (r *PostgresPendingReportsRepo) Get(ctx context.Context, id string) (*domain.PendingReport, error) {
	if id == "" {
		return nil, fmt.Errorf("pending report id is required")
	}

	query := `
		SELECT pending_report_id, child_id, content_type, source_ref,
		       failure_reason, created_at
		FROM pending_reports
		WHERE pending_report_id = $1::uuid
	`
	var report domain.PendingReport
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&report.ID, &report.ChildID, &report.ContentType, &report.SourceRef,
		&report.FailureReason, &report.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending report: %w", err)
	}
	return &report, nil
}

func (r *PostgresPendingReportsRepo) List(ctx context.Context, childID string) ([]domain.PendingReport, error) {
	query := `
		SELECT pending_report_id, child_id, content_type, source_ref,
		       failure_reason, created_at
		FROM pending_reports
		ORDER BY created_at DESC
	`
	args := []interface{}{}
	if childID != "" {
		query = `
			SELECT pending_report_id, child_id, content_type, source_ref,
			       failure_reason, created_at
			FROM pending_reports
			WHERE child_id = $1::uuid
			ORDER BY created_at DESC
		`
		args = append(args, childID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.PendingReport
	for rows.Next() {
		var report domain.PendingReport
		if err := rows.Scan(
			&report.ID, &report.ChildID, &report.ContentType, &report.SourceRef,
			&report.FailureReason, &report.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pending report: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending reports: %w", err)
	}
	return reports, nil
}

func (r *PostgresPendingReportsRepo) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("pending report id is required")
	}

	query := `DELETE FROM pending_reports WHERE pending_report_id = $1::uuid`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete pending report: %w", err)
	}
	return nil
}
