package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"osintbot/database"
	"osintbot/models"

	"github.com/jackc/pgx/v5"
)

// ReportRepository implements the service.ReportRepository interface
type ReportRepository struct {
	q queryable
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{q: db.Pool}
}

// newReportRepositoryWithTx creates a new report repository with a transaction
func newReportRepositoryWithTx(tx queryable) *ReportRepository {
	return &ReportRepository{q: tx}
}

// Store saves a report's pages under its query token, replacing any report
// already stored under the same token.
func (r *ReportRepository) Store(ctx context.Context, report *models.Report) error {
	pagesJSON, err := json.Marshal(report.Pages)
	if err != nil {
		return fmt.Errorf("failed to marshal report pages: %w", err)
	}

	query := `
		INSERT INTO search_results (query_id, user_id, report_data)
		VALUES ($1, $2, $3)
		ON CONFLICT (query_id) DO UPDATE
		SET report_data = EXCLUDED.report_data, created_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, report.QueryID, report.UserID, pagesJSON); err != nil {
		return fmt.Errorf("failed to store report %s: %w", report.QueryID, err)
	}

	return nil
}

// Get retrieves a cached report by its query token
func (r *ReportRepository) Get(ctx context.Context, queryID string) (*models.Report, error) {
	query := `
		SELECT query_id, user_id, report_data, created_at
		FROM search_results
		WHERE query_id = $1
	`

	var report models.Report
	var pagesJSON []byte
	err := r.q.QueryRow(ctx, query, queryID).Scan(
		&report.QueryID,
		&report.UserID,
		&pagesJSON,
		&report.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", queryID, err)
	}

	if err := json.Unmarshal(pagesJSON, &report.Pages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report pages for %s: %w", queryID, err)
	}

	return &report, nil
}

// DeleteOlderThan evicts reports created before the cutoff and returns the
// number of rows removed.
func (r *ReportRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM search_results
		WHERE created_at < $1
	`

	result, err := r.q.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to evict reports older than %v: %w", cutoff, err)
	}

	return result.RowsAffected(), nil
}
