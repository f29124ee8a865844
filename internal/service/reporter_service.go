package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
	"github.com/classtrack/classtrack-api/pkg/export"
)

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type reporterMetrics interface {
	IncCacheHit()
	IncCacheMiss()
}

// Export formats accepted by ExportSummary.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// ReporterService derives read-only views from the attendance document.
// It never mutates: per-record identities are fabricated at read time by
// expanding each counter, so they are stable within one response only.
type ReporterService struct {
	store    attendanceDocumentStore
	cache    summaryCache
	metrics  reporterMetrics
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewReporterService constructs the reporter.
func NewReporterService(store attendanceDocumentStore, cache summaryCache, metrics reporterMetrics, logger *zap.Logger, cacheTTL time.Duration) *ReporterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	return &ReporterService{store: store, cache: cache, metrics: metrics, logger: logger, cacheTTL: cacheTTL}
}

// Records expands the whole document into flat synthetic records. A user
// without a document gets an empty slice, not an error. Record order is
// unspecified; callers must not rely on it.
func (s *ReporterService) Records(ctx context.Context, userID string) ([]models.AttendanceRecord, error) {
	doc, _, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance document")
	}

	records := []models.AttendanceRecord{}
	for subject, dates := range doc.Subjects {
		for date, count := range dates {
			records = append(records, expand(subject, date, count)...)
		}
	}
	return records, nil
}

// Summary returns one rollup per subject, zero-date subjects included.
// Responses are cached per user and invalidated by every ledger mutation.
func (s *ReporterService) Summary(ctx context.Context, userID string) ([]models.SubjectSummary, error) {
	key := summaryCacheKey(userID)
	if s.cache != nil {
		var cached []models.SubjectSummary
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.IncCacheHit()
			}
			return cached, nil
		}
		if s.metrics != nil {
			s.metrics.IncCacheMiss()
		}
	}

	doc, _, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance document")
	}

	summaries := make([]models.SubjectSummary, 0, len(doc.Subjects))
	for subject, dates := range doc.Subjects {
		summaries = append(summaries, summarise(subject, dates))
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Subject < summaries[j].Subject
	})

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summaries, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache summary", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return summaries, nil
}

// ExportSummary renders the summary table as CSV or PDF bytes.
func (s *ReporterService) ExportSummary(ctx context.Context, userID, format string) ([]byte, string, error) {
	summaries, err := s.Summary(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Subject", "Present", "Absent", "Total", "Percentage"},
	}
	for _, summary := range summaries {
		dataset.Rows = append(dataset.Rows, []string{
			summary.Subject,
			fmt.Sprintf("%d", summary.Present),
			fmt.Sprintf("%d", summary.Absent),
			fmt.Sprintf("%d", summary.Total),
			fmt.Sprintf("%d%%", summary.Percentage),
		})
	}

	switch strings.ToLower(format) {
	case ExportFormatCSV:
		payload, err := export.RenderCSV(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "attendance-summary.csv", nil
	case ExportFormatPDF:
		payload, err := export.RenderPDF(dataset, "Attendance Summary")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "attendance-summary.pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func expand(subject, date string, count models.DateCount) []models.AttendanceRecord {
	records := make([]models.AttendanceRecord, 0, count.Present+count.Absent)
	for i := 0; i < count.Present; i++ {
		records = append(records, models.AttendanceRecord{
			ID:      fmt.Sprintf("%s-%s-%s-%d", subject, date, models.StatusPresent, i),
			Subject: subject,
			Date:    date,
			Status:  models.StatusPresent,
		})
	}
	for i := 0; i < count.Absent; i++ {
		records = append(records, models.AttendanceRecord{
			ID:      fmt.Sprintf("%s-%s-%s-%d", subject, date, models.StatusAbsent, i),
			Subject: subject,
			Date:    date,
			Status:  models.StatusAbsent,
		})
	}
	return records
}

func summarise(subject string, dates models.SubjectDates) models.SubjectSummary {
	summary := models.SubjectSummary{
		Subject:    subject,
		Attendance: []models.AttendanceRecord{},
	}
	for date, count := range dates {
		summary.Present += count.Present
		summary.Absent += count.Absent
		summary.Attendance = append(summary.Attendance, expand(subject, date, count)...)
	}
	summary.Total = summary.Present + summary.Absent
	if summary.Total > 0 {
		summary.Percentage = int(math.Round(float64(summary.Present) / float64(summary.Total) * 100))
	}

	// Most recent first; same-date relative order is unspecified.
	sort.SliceStable(summary.Attendance, func(i, j int) bool {
		return summary.Attendance[i].Date > summary.Attendance[j].Date
	})
	return summary
}

func summaryCacheKey(userID string) string {
	return fmt.Sprintf("attendance:%s:summary", userID)
}

func summaryCachePattern(userID string) string {
	return fmt.Sprintf("attendance:%s:*", userID)
}
