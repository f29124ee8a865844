package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/classtrack/classtrack-api/internal/models"
)

// ReminderRepository persists scheduled reminders.
type ReminderRepository struct {
	db *sqlx.DB
}

// NewReminderRepository constructs the repository.
func NewReminderRepository(db *sqlx.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// ListByUser returns the user's reminders ordered by event date.
func (r *ReminderRepository) ListByUser(ctx context.Context, userID string) ([]models.Reminder, error) {
	const query = `SELECT id, user_id, title, date, created_at FROM reminders WHERE user_id = $1 ORDER BY date ASC`
	var reminders []models.Reminder
	if err := r.db.SelectContext(ctx, &reminders, query, userID); err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

// FindByID fetches one reminder. Returns sql.ErrNoRows when absent.
func (r *ReminderRepository) FindByID(ctx context.Context, id string) (*models.Reminder, error) {
	const query = `SELECT id, user_id, title, date, created_at FROM reminders WHERE id = $1`
	var reminder models.Reminder
	if err := r.db.GetContext(ctx, &reminder, query, id); err != nil {
		return nil, err
	}
	return &reminder, nil
}

// Create inserts a reminder.
func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	const query = `INSERT INTO reminders (id, user_id, title, date, created_at)
VALUES (:id, :user_id, :title, :date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reminder); err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	return nil
}

// Delete removes a reminder and reports whether a row was deleted.
func (r *ReminderRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM reminders WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete reminder: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete reminder rows: %w", err)
	}
	return affected > 0, nil
}

// ListOnDates returns reminders whose event date is one of the provided
// ISO dates. Used by the daily dispatcher to pick up countdown sends.
func (r *ReminderRepository) ListOnDates(ctx context.Context, dates []string) ([]models.Reminder, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, user_id, title, date, created_at FROM reminders WHERE date IN (?) ORDER BY date ASC`, dates)
	if err != nil {
		return nil, fmt.Errorf("build reminder date query: %w", err)
	}
	query = r.db.Rebind(query)
	var reminders []models.Reminder
	if err := r.db.SelectContext(ctx, &reminders, query, args...); err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	return reminders, nil
}
