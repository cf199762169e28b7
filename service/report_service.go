package service

import (
	"context"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"osintbot/models"
	"osintbot/search"

	"github.com/google/uuid"
)

// Display page limits. Pages are truncated at construction time so every
// stored page is safe to send as-is.
const (
	maxPageLength    = 3500
	truncationNotice = "\n\n⚠️ Data truncated."
)

// reportService implements the ReportService interface
type reportService struct {
	uowFactory UnitOfWorkFactory
	ttl        time.Duration
	now        func() time.Time
}

// NewReportService creates a new report service. Reports older than ttl are
// removed by EvictExpired.
func NewReportService(uowFactory UnitOfWorkFactory, ttl time.Duration) ReportService {
	return &reportService{
		uowFactory: uowFactory,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Store caches the pages under a fresh collision-resistant query token
func (s *reportService) Store(ctx context.Context, userID int64, pages []string) (string, error) {
	queryID := uuid.NewString()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	report := &models.Report{
		QueryID: queryID,
		UserID:  userID,
		Pages:   pages,
	}
	if err := uow.ReportRepository().Store(ctx, report); err != nil {
		return "", fmt.Errorf("failed to store report: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return queryID, nil
}

// Fetch retrieves a cached report by its query token
func (s *reportService) Fetch(ctx context.Context, queryID string) (*models.Report, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	report, err := uow.ReportRepository().Get(ctx, queryID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch report: %w", err)
	}
	if report == nil || len(report.Pages) == 0 {
		return nil, ErrReportNotFound
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return report, nil
}

// EvictExpired removes reports older than the retention TTL
func (s *reportService) EvictExpired(ctx context.Context) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	evicted, err := uow.ReportRepository().DeleteOlderThan(ctx, s.now().Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to evict reports: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return evicted, nil
}

// RenderPages turns a provider result into pre-rendered display pages, one
// per record, with field names sorted for stable output.
func RenderPages(sources []search.Source) []string {
	var pages []string

	for _, src := range sources {
		if src.Name == "No results found" {
			pages = append(pages, "<b>No data found for this query.</b>")
			continue
		}

		if len(src.Records) == 0 {
			pages = append(pages, fmt.Sprintf("<b>🔍 Source: %s</b>\n\nNo detailed data available.", src.Name))
			continue
		}

		for _, record := range src.Records {
			page := fmt.Sprintf("<b>🔍 Source: %s</b>\n", src.Name)

			fields := make([]string, 0, len(record))
			for field := range record {
				fields = append(fields, field)
			}
			sort.Strings(fields)

			for _, field := range fields {
				page += fmt.Sprintf("\n<b>%s:</b> %s", field, record[field])
			}

			pages = append(pages, truncatePage(page))
		}
	}

	return pages
}

// truncatePage bounds a page to maxPageLength, backing off to a rune
// boundary before appending the truncation marker.
func truncatePage(page string) string {
	if len(page) <= maxPageLength {
		return page
	}

	cut := maxPageLength
	for cut > 0 && !utf8.RuneStart(page[cut]) {
		cut--
	}

	return page[:cut] + truncationNotice
}

// WrapPage maps a requested page index onto the cyclic page ring: -1 is the
// last page, count is the first.
func WrapPage(requested, count int) int {
	if count <= 0 {
		return 0
	}
	return ((requested % count) + count) % count
}
