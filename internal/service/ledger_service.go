package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	"github.com/classtrack/classtrack-api/internal/repository"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type attendanceDocumentStore interface {
	Load(ctx context.Context, userID string) (*models.AttendanceDocument, int64, error)
	Save(ctx context.Context, userID string, doc *models.AttendanceDocument, expectedVersion int64) error
	Exists(ctx context.Context, userID string) (bool, error)
}

type summaryCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type ledgerMetrics interface {
	ObserveLedgerTx(op string, attempts int)
	IncLedgerConflict(op string)
}

// LedgerConfig bounds the optimistic retry loop.
type LedgerConfig struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

// LedgerService owns every write path against a user's attendance
// document. Each operation is one optimistic read-modify-write unit: load
// a snapshot with its version, mutate a copy, write conditionally, and
// retry from a fresh snapshot on version conflict. Documents are
// partitioned by user id, so only same-user writes ever contend.
type LedgerService struct {
	store   attendanceDocumentStore
	cache   summaryCacheInvalidator
	metrics ledgerMetrics
	logger  *zap.Logger

	maxAttempts int
	retryDelay  time.Duration
}

// NewLedgerService constructs the ledger.
func NewLedgerService(store attendanceDocumentStore, cache summaryCacheInvalidator, metrics ledgerMetrics, logger *zap.Logger, cfg LedgerConfig) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 25 * time.Millisecond
	}
	return &LedgerService{
		store:       store,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
	}
}

// AddSubject registers a new subject for the user, creating the document
// lazily. Duplicate names (case-sensitive) fail, including when a
// concurrent call created the subject between snapshot and write: the
// retry re-reads and observes the key.
func (s *LedgerService) AddSubject(ctx context.Context, userID, subject string) (*dto.AddSubjectResponse, error) {
	err := s.runTx(ctx, userID, "add_subject", func(doc *models.AttendanceDocument, _ bool) error {
		if _, ok := doc.Subjects[subject]; ok {
			return appErrors.Clone(appErrors.ErrSubjectExists, "Subject already exists")
		}
		doc.Subjects[subject] = models.SubjectDates{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return &dto.AddSubjectResponse{Subject: subject}, nil
}

// MarkAttendance adds one present or absent mark for (subject, date).
// Marking is additive, never idempotent: two marks yield count 2. An
// unknown subject or date is created on the fly, so quick-marking a
// subject that was never explicitly added behaves like add-then-mark.
func (s *LedgerService) MarkAttendance(ctx context.Context, userID, subject, date, status string) (*dto.MarkAttendanceResponse, error) {
	if status != models.StatusPresent && status != models.StatusAbsent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be present or absent")
	}

	err := s.runTx(ctx, userID, "mark_attendance", func(doc *models.AttendanceDocument, _ bool) error {
		dates, ok := doc.Subjects[subject]
		if !ok {
			dates = models.SubjectDates{}
			doc.Subjects[subject] = dates
		}
		count := dates[date]
		if status == models.StatusPresent {
			count.Present++
		} else {
			count.Absent++
		}
		dates[date] = count
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return &dto.MarkAttendanceResponse{Date: date, Status: status}, nil
}

// ResetDate deletes every mark for (subject, date). A subject left with
// no dates is pruned entirely; freshly added empty subjects are kept only
// until their first reset, matching add-then-immediately-track workflows.
func (s *LedgerService) ResetDate(ctx context.Context, userID, subject, date string) error {
	err := s.runTx(ctx, userID, "reset_date", func(doc *models.AttendanceDocument, exists bool) error {
		if !exists {
			return appErrors.Clone(appErrors.ErrNotFound, "User document not found")
		}
		dates, ok := doc.Subjects[subject]
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "No records found for this date")
		}
		if _, ok := dates[date]; !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "No records found for this date")
		}
		delete(dates, date)
		if len(dates) == 0 {
			delete(doc.Subjects, subject)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// DeleteSubject removes a subject and all of its records. The flow is a
// non-transactional existence pre-check, the transactional delete, then a
// verification read confirming the key is gone. A key that survives the
// commit signals storage inconsistency and is surfaced, not retried.
func (s *LedgerService) DeleteSubject(ctx context.Context, userID, subject string) (*dto.DeleteSubjectResponse, error) {
	doc, version, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance document")
	}
	if version == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "User document not found")
	}
	if _, ok := doc.Subjects[subject]; !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Subject not found")
	}

	err = s.runTx(ctx, userID, "delete_subject", func(doc *models.AttendanceDocument, exists bool) error {
		if !exists {
			return appErrors.Clone(appErrors.ErrNotFound, "User document not found")
		}
		delete(doc.Subjects, subject)
		return nil
	})
	if err != nil {
		return nil, err
	}

	verified, _, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify deletion")
	}
	if _, ok := verified.Subjects[subject]; ok {
		s.logger.Error("subject still present after delete commit",
			zap.String("user_id", userID),
			zap.String("subject", subject),
		)
		return nil, appErrors.Clone(appErrors.ErrVerificationFailed, "Deletion verification failed")
	}

	remaining := make([]string, 0, len(verified.Subjects))
	for name := range verified.Subjects {
		remaining = append(remaining, name)
	}
	sort.Strings(remaining)

	s.invalidate(ctx, userID)
	return &dto.DeleteSubjectResponse{DeletedSubject: subject, RemainingSubjects: remaining}, nil
}

// runTx executes one optimistic transaction: snapshot read, pure mutation
// of a deep copy, conditional write, bounded retry on version conflict.
// Domain errors from fn abort immediately without retrying.
func (s *LedgerService) runTx(ctx context.Context, userID, op string, fn func(doc *models.AttendanceDocument, exists bool) error) error {
	var conflict error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		doc, version, err := s.store.Load(ctx, userID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance document")
		}

		work := doc.Clone()
		if err := fn(work, version > 0); err != nil {
			return err
		}
		work.LastUpdated = time.Now().UTC()

		err = s.store.Save(ctx, userID, work, version)
		if err == nil {
			if s.metrics != nil {
				s.metrics.ObserveLedgerTx(op, attempt)
			}
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance document")
		}

		conflict = err
		if s.metrics != nil {
			s.metrics.IncLedgerConflict(op)
		}
		s.logger.Debug("attendance tx conflict, retrying",
			zap.String("user_id", userID),
			zap.String("op", op),
			zap.Int("attempt", attempt),
		)

		if attempt < s.maxAttempts {
			timer := time.NewTimer(time.Duration(attempt) * s.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "transaction cancelled")
			case <-timer.C:
			}
		}
	}
	return appErrors.Wrap(conflict, appErrors.ErrTxConflict.Code, appErrors.ErrTxConflict.Status, appErrors.ErrTxConflict.Message)
}

func (s *LedgerService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, summaryCachePattern(userID)); err != nil {
		s.logger.Warn("failed to invalidate summary cache", zap.String("user_id", userID), zap.Error(err))
	}
}
