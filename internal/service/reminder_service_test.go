package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
	"github.com/classtrack/classtrack-api/pkg/mailer"
)

type mockReminderRepo struct {
	reminders map[string]*models.Reminder
}

func newMockReminderRepo(reminders ...*models.Reminder) *mockReminderRepo {
	repo := &mockReminderRepo{reminders: map[string]*models.Reminder{}}
	for _, reminder := range reminders {
		repo.reminders[reminder.ID] = reminder
	}
	return repo
}

func (m *mockReminderRepo) ListByUser(ctx context.Context, userID string) ([]models.Reminder, error) {
	var out []models.Reminder
	for _, reminder := range m.reminders {
		if reminder.UserID == userID {
			out = append(out, *reminder)
		}
	}
	return out, nil
}

func (m *mockReminderRepo) FindByID(ctx context.Context, id string) (*models.Reminder, error) {
	reminder, ok := m.reminders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *reminder
	return &copied, nil
}

func (m *mockReminderRepo) Create(ctx context.Context, reminder *models.Reminder) error {
	copied := *reminder
	m.reminders[reminder.ID] = &copied
	return nil
}

func (m *mockReminderRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.reminders[id]; !ok {
		return false, nil
	}
	delete(m.reminders, id)
	return true, nil
}

func (m *mockReminderRepo) ListOnDates(ctx context.Context, dates []string) ([]models.Reminder, error) {
	wanted := map[string]bool{}
	for _, date := range dates {
		wanted[date] = true
	}
	var out []models.Reminder
	for _, reminder := range m.reminders {
		if wanted[reminder.Date] {
			out = append(out, *reminder)
		}
	}
	return out, nil
}

type mockUserLookup struct {
	users map[string]*models.User
}

func (m *mockUserLookup) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type flakySender struct {
	failFor  map[string]bool
	messages []mailer.Message
}

func (f *flakySender) Send(ctx context.Context, msg mailer.Message) error {
	if f.failFor[msg.To] {
		return errors.New("delivery failed")
	}
	f.messages = append(f.messages, msg)
	return nil
}

func newTestReminders(repo *mockReminderRepo, users *mockUserLookup, mail mailer.Sender) *ReminderService {
	return NewReminderService(repo, users, mail, zap.NewNop(), time.UTC)
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

func TestReminderListEmpty(t *testing.T) {
	svc := newTestReminders(newMockReminderRepo(), &mockUserLookup{}, &capturingSender{})

	reminders, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotNil(t, reminders)
	assert.Empty(t, reminders)
}

func TestReminderAddSendsConfirmation(t *testing.T) {
	repo := newMockReminderRepo()
	users := &mockUserLookup{users: map[string]*models.User{
		"user-1": {ID: "user-1", Username: "asha", Email: "asha@example.com"},
	}}
	mail := &capturingSender{}
	svc := newTestReminders(repo, users, mail)

	reminder, err := svc.Add(context.Background(), "user-1", dto.AddReminderRequest{
		Title: "Physics exam",
		Date:  futureDate(10),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, reminder.ID)
	assert.Equal(t, "user-1", reminder.UserID)
	assert.Contains(t, repo.reminders, reminder.ID)

	require.Len(t, mail.messages, 1)
	assert.Equal(t, "Reminder set: Physics exam", mail.messages[0].Subject)
}

func TestReminderAddRejectsBadDate(t *testing.T) {
	svc := newTestReminders(newMockReminderRepo(), &mockUserLookup{}, &capturingSender{})

	_, err := svc.Add(context.Background(), "user-1", dto.AddReminderRequest{Title: "Exam", Date: "15-03-2024"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestReminderDeleteEnforcesOwnership(t *testing.T) {
	repo := newMockReminderRepo(&models.Reminder{ID: "r1", UserID: "user-1", Title: "Exam", Date: futureDate(3)})
	svc := newTestReminders(repo, &mockUserLookup{}, &capturingSender{})

	err := svc.Delete(context.Background(), "intruder", "r1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	require.NoError(t, svc.Delete(context.Background(), "user-1", "r1"))
	assert.NotContains(t, repo.reminders, "r1")

	err = svc.Delete(context.Background(), "user-1", "r1")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "reminder not found", appErr.Message)
}

func TestReminderSendNow(t *testing.T) {
	repo := newMockReminderRepo(&models.Reminder{ID: "r1", UserID: "user-1", Title: "Exam", Date: futureDate(0)})
	users := &mockUserLookup{users: map[string]*models.User{
		"user-1": {ID: "user-1", Username: "asha", Email: "asha@example.com"},
	}}
	mail := &capturingSender{}
	svc := newTestReminders(repo, users, mail)

	require.NoError(t, svc.SendNow(context.Background(), "user-1", "r1"))
	require.Len(t, mail.messages, 1)
	assert.Equal(t, "Today: Exam", mail.messages[0].Subject)

	err := svc.SendNow(context.Background(), "intruder", "r1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestReminderDispatchDailyLeadDays(t *testing.T) {
	users := &mockUserLookup{users: map[string]*models.User{
		"user-1": {ID: "user-1", Username: "asha", Email: "asha@example.com"},
	}}
	repo := newMockReminderRepo()
	for i, lead := range models.ReminderLeadDays {
		repo.reminders[fmt.Sprintf("r%d", i)] = &models.Reminder{
			ID:     fmt.Sprintf("r%d", i),
			UserID: "user-1",
			Title:  fmt.Sprintf("Event %d", lead),
			Date:   futureDate(lead),
		}
	}
	// Off-schedule reminders are not picked up.
	repo.reminders["skip"] = &models.Reminder{ID: "skip", UserID: "user-1", Title: "Later", Date: futureDate(5)}

	mail := &capturingSender{}
	svc := newTestReminders(repo, users, mail)

	result, err := svc.DispatchDaily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(models.ReminderLeadDays), result.Scanned)
	assert.Equal(t, len(models.ReminderLeadDays), result.Sent)
	assert.Zero(t, result.Failed)
	assert.Len(t, mail.messages, len(models.ReminderLeadDays))

	subjects := map[string]bool{}
	for _, msg := range mail.messages {
		subjects[msg.Subject] = true
	}
	assert.Contains(t, subjects, "Today: Event 0")
	assert.Contains(t, subjects, "Tomorrow: Event 1")
	assert.Contains(t, subjects, "Upcoming: Event 3")
	assert.Contains(t, subjects, "Upcoming: Event 7")
}

func TestReminderDispatchDailyCountsFailures(t *testing.T) {
	users := &mockUserLookup{users: map[string]*models.User{
		"user-1": {ID: "user-1", Username: "asha", Email: "asha@example.com"},
		"user-2": {ID: "user-2", Username: "ravi", Email: "ravi@example.com"},
	}}
	repo := newMockReminderRepo(
		&models.Reminder{ID: "r1", UserID: "user-1", Title: "Exam", Date: futureDate(0)},
		&models.Reminder{ID: "r2", UserID: "user-2", Title: "Quiz", Date: futureDate(1)},
	)
	mail := &flakySender{failFor: map[string]bool{"ravi@example.com": true}}
	svc := newTestReminders(repo, users, mail)

	result, err := svc.DispatchDaily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Failed)
}
