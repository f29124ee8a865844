package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type memorySummaryCache struct {
	entries map[string][]models.SubjectSummary
	sets    int
}

func (m *memorySummaryCache) Get(ctx context.Context, key string, dest interface{}) error {
	cached, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	out, ok := dest.(*[]models.SubjectSummary)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*out = cached
	return nil
}

func (m *memorySummaryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = map[string][]models.SubjectSummary{}
	}
	summaries, ok := value.([]models.SubjectSummary)
	if !ok {
		return nil
	}
	m.entries[key] = summaries
	m.sets++
	return nil
}

type countingReporterMetrics struct {
	hits   int
	misses int
}

func (c *countingReporterMetrics) IncCacheHit()  { c.hits++ }
func (c *countingReporterMetrics) IncCacheMiss() { c.misses++ }

func newTestReporter(store *memoryDocumentStore, cache summaryCache, metrics reporterMetrics) *ReporterService {
	return NewReporterService(store, cache, metrics, zap.NewNop(), time.Minute)
}

func TestReporterRecordsEmptyForMissingUser(t *testing.T) {
	store := newMemoryDocumentStore()
	svc := newTestReporter(store, nil, nil)

	records, err := svc.Records(context.Background(), "ghost")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestReporterRecordsExpandCounters(t *testing.T) {
	store := newMemoryDocumentStore()
	store.seed(t, "user-1", docWith(map[string]models.SubjectDates{
		"Physics": {"2024-03-01": {Present: 2, Absent: 1}},
	}))
	svc := newTestReporter(store, nil, nil)

	records, err := svc.Records(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, records, 3)

	ids := make(map[string]models.AttendanceRecord, len(records))
	for _, record := range records {
		ids[record.ID] = record
		assert.Equal(t, "Physics", record.Subject)
		assert.Equal(t, "2024-03-01", record.Date)
	}
	assert.Contains(t, ids, "Physics-2024-03-01-present-0")
	assert.Contains(t, ids, "Physics-2024-03-01-present-1")
	assert.Contains(t, ids, "Physics-2024-03-01-absent-0")
}

func TestReporterSummaryPercentages(t *testing.T) {
	store := newMemoryDocumentStore()
	store.seed(t, "user-1", docWith(map[string]models.SubjectDates{
		"Physics":   {"2024-03-01": {Present: 3, Absent: 1}},
		"Math":      {"2024-03-01": {Present: 1, Absent: 2}},
		"Chemistry": {"2024-03-01": {Present: 2, Absent: 1}},
		"History":   {},
	}))
	svc := newTestReporter(store, nil, nil)

	summaries, err := svc.Summary(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, summaries, 4)

	// Sorted by subject name.
	bySubject := map[string]models.SubjectSummary{}
	var order []string
	for _, summary := range summaries {
		bySubject[summary.Subject] = summary
		order = append(order, summary.Subject)
	}
	assert.Equal(t, []string{"Chemistry", "History", "Math", "Physics"}, order)

	assert.Equal(t, 75, bySubject["Physics"].Percentage)
	assert.Equal(t, 33, bySubject["Math"].Percentage)
	assert.Equal(t, 67, bySubject["Chemistry"].Percentage)

	// Zero-date subjects stay visible with all counters zero.
	history := bySubject["History"]
	assert.Equal(t, 0, history.Total)
	assert.Equal(t, 0, history.Percentage)
	assert.Empty(t, history.Attendance)
}

func TestReporterSummaryHistoryMostRecentFirst(t *testing.T) {
	store := newMemoryDocumentStore()
	store.seed(t, "user-1", docWith(map[string]models.SubjectDates{
		"Physics": {
			"2024-03-01": {Present: 1},
			"2024-03-15": {Absent: 1},
			"2024-02-20": {Present: 1},
		},
	}))
	svc := newTestReporter(store, nil, nil)

	summaries, err := svc.Summary(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	attendance := summaries[0].Attendance
	require.Len(t, attendance, 3)
	assert.Equal(t, "2024-03-15", attendance[0].Date)
	assert.Equal(t, "2024-03-01", attendance[1].Date)
	assert.Equal(t, "2024-02-20", attendance[2].Date)
}

func TestReporterSummaryUsesCache(t *testing.T) {
	store := newMemoryDocumentStore()
	store.seed(t, "user-1", docWith(map[string]models.SubjectDates{
		"Physics": {"2024-03-01": {Present: 1}},
	}))
	cache := &memorySummaryCache{}
	metrics := &countingReporterMetrics{}
	svc := newTestReporter(store, cache, metrics)

	first, err := svc.Summary(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 1, cache.sets)

	// Second read is served from cache even if storage changed underneath.
	store.seed(t, "user-1", docWith(map[string]models.SubjectDates{
		"Physics": {"2024-03-01": {Present: 5}},
	}))
	second, err := svc.Summary(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, first, second)
}

func TestReporterExportCSV(t *testing.T) {
	store := newMemoryDocumentStore()
	store.seed(t, "user-1", docWith(map[string]models.SubjectDates{
		"Physics": {"2024-03-01": {Present: 3, Absent: 1}},
	}))
	svc := newTestReporter(store, nil, nil)

	payload, filename, err := svc.ExportSummary(context.Background(), "user-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "attendance-summary.csv", filename)

	body := string(payload)
	assert.True(t, strings.HasPrefix(body, "Subject,Present,Absent,Total,Percentage"))
	assert.Contains(t, body, "Physics,3,1,4,75%")
}

func TestReporterExportPDF(t *testing.T) {
	store := newMemoryDocumentStore()
	store.seed(t, "user-1", docWith(map[string]models.SubjectDates{
		"Physics": {"2024-03-01": {Present: 1}},
	}))
	svc := newTestReporter(store, nil, nil)

	payload, filename, err := svc.ExportSummary(context.Background(), "user-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "attendance-summary.pdf", filename)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestReporterExportRejectsUnknownFormat(t *testing.T) {
	store := newMemoryDocumentStore()
	svc := newTestReporter(store, nil, nil)

	_, _, err := svc.ExportSummary(context.Background(), "user-1", "xlsx")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
