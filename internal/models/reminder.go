package models

import "time"

// Reminder is a user-scheduled event that triggers countdown emails.
type Reminder struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Title     string    `db:"title" json:"title"`
	Date      string    `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ReminderLeadDays are the day offsets that trigger a countdown email
// during the daily dispatch.
var ReminderLeadDays = []int{0, 1, 3, 7}
