package dto

// AddReminderRequest schedules a new reminder.
type AddReminderRequest struct {
	Title string `json:"title" binding:"required"`
	Date  string `json:"date" binding:"required"`
}

// SendReminderRequest triggers an immediate email for one reminder.
type SendReminderRequest struct {
	ReminderID string `json:"reminderId" binding:"required"`
}

// DispatchResult summarises a daily dispatch run.
type DispatchResult struct {
	Scanned int `json:"scanned"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}
