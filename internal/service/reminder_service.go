package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
	"github.com/classtrack/classtrack-api/pkg/mailer"
)

type reminderRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Reminder, error)
	FindByID(ctx context.Context, id string) (*models.Reminder, error)
	Create(ctx context.Context, reminder *models.Reminder) error
	Delete(ctx context.Context, id string) (bool, error)
	ListOnDates(ctx context.Context, dates []string) ([]models.Reminder, error)
}

type reminderUserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ReminderService manages scheduled reminders and their countdown emails.
type ReminderService struct {
	reminders reminderRepository
	users     reminderUserLookup
	mail      mailer.Sender
	logger    *zap.Logger
	location  *time.Location
}

// NewReminderService constructs the service. A nil location falls back
// to UTC.
func NewReminderService(reminders reminderRepository, users reminderUserLookup, mail mailer.Sender, logger *zap.Logger, location *time.Location) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &ReminderService{reminders: reminders, users: users, mail: mail, logger: logger, location: location}
}

// List returns the user's reminders ordered by event date.
func (s *ReminderService) List(ctx context.Context, userID string) ([]models.Reminder, error) {
	reminders, err := s.reminders.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reminders")
	}
	if reminders == nil {
		reminders = []models.Reminder{}
	}
	return reminders, nil
}

// Add schedules a reminder and confirms it by email.
func (s *ReminderService) Add(ctx context.Context, userID string, req dto.AddReminderRequest) (*models.Reminder, error) {
	if _, err := time.ParseInLocation("2006-01-02", req.Date, s.location); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	reminder := &models.Reminder{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     req.Title,
		Date:      req.Date,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.reminders.Create(ctx, reminder); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reminder")
	}

	if err := s.sendReminderEmail(ctx, reminder, "added"); err != nil {
		// Creation already committed; delivery failure is not fatal here.
		s.logger.Warn("failed to send confirmation email", zap.String("reminder_id", reminder.ID), zap.Error(err))
	}
	return reminder, nil
}

// Delete removes a reminder owned by the user.
func (s *ReminderService) Delete(ctx context.Context, userID, reminderID string) error {
	reminder, err := s.reminders.FindByID(ctx, reminderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "reminder not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reminder")
	}
	if reminder.UserID != userID {
		return appErrors.ErrForbidden
	}

	deleted, err := s.reminders.Delete(ctx, reminderID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete reminder")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "reminder not found")
	}
	return nil
}

// SendNow emails a single reminder immediately.
func (s *ReminderService) SendNow(ctx context.Context, userID, reminderID string) error {
	reminder, err := s.reminders.FindByID(ctx, reminderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "reminder not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reminder")
	}
	if reminder.UserID != userID {
		return appErrors.ErrForbidden
	}
	if err := s.sendReminderEmail(ctx, reminder, "manual"); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send reminder email")
	}
	return nil
}

// DispatchDaily scans for reminders falling on the configured lead-day
// offsets from today and sends one countdown email each.
func (s *ReminderService) DispatchDaily(ctx context.Context) (*dto.DispatchResult, error) {
	today := time.Now().In(s.location)
	dates := make([]string, 0, len(models.ReminderLeadDays))
	for _, lead := range models.ReminderLeadDays {
		dates = append(dates, today.AddDate(0, 0, lead).Format("2006-01-02"))
	}

	due, err := s.reminders.ListOnDates(ctx, dates)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan reminders")
	}

	result := &dto.DispatchResult{Scanned: len(due)}
	for _, reminder := range due {
		reminder := reminder
		if err := s.sendReminderEmail(ctx, &reminder, "daily"); err != nil {
			result.Failed++
			s.logger.Error("failed to send daily reminder",
				zap.String("reminder_id", reminder.ID),
				zap.String("user_id", reminder.UserID),
				zap.Error(err),
			)
			continue
		}
		result.Sent++
	}
	return result, nil
}

func (s *ReminderService) sendReminderEmail(ctx context.Context, reminder *models.Reminder, kind string) error {
	user, err := s.users.FindByID(ctx, reminder.UserID)
	if err != nil {
		return fmt.Errorf("resolve reminder recipient: %w", err)
	}

	daysUntil := s.daysUntil(reminder.Date)
	var subject, body string
	switch {
	case kind == "added":
		subject = fmt.Sprintf("Reminder set: %s", reminder.Title)
		body = fmt.Sprintf("Hi %s, your reminder %q is set for %s.", user.Username, reminder.Title, reminder.Date)
	case daysUntil == 0:
		subject = fmt.Sprintf("Today: %s", reminder.Title)
		body = fmt.Sprintf("Hi %s, %q is today (%s).", user.Username, reminder.Title, reminder.Date)
	case daysUntil == 1:
		subject = fmt.Sprintf("Tomorrow: %s", reminder.Title)
		body = fmt.Sprintf("Hi %s, %q is tomorrow (%s).", user.Username, reminder.Title, reminder.Date)
	default:
		subject = fmt.Sprintf("Upcoming: %s", reminder.Title)
		body = fmt.Sprintf("Hi %s, %q is in %d days (%s).", user.Username, reminder.Title, daysUntil, reminder.Date)
	}

	return s.mail.Send(ctx, mailer.Message{
		To:      user.Email,
		ToName:  user.Username,
		Subject: subject,
		Body:    body,
	})
}

func (s *ReminderService) daysUntil(date string) int {
	event, err := time.ParseInLocation("2006-01-02", date, s.location)
	if err != nil {
		return 0
	}
	now := time.Now().In(s.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	return int(event.Sub(today).Hours() / 24)
}
