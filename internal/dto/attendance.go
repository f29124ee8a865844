package dto

// AddSubjectRequest creates a new subject for the authenticated user.
type AddSubjectRequest struct {
	Subject string `json:"subject" binding:"required"`
}

// AddSubjectResponse echoes the created subject name.
type AddSubjectResponse struct {
	Subject string `json:"subject"`
}

// MarkAttendanceRequest records one present/absent mark.
type MarkAttendanceRequest struct {
	Subject string `json:"subject" binding:"required"`
	Date    string `json:"date" binding:"required"`
	Status  string `json:"status" binding:"required,oneof=present absent"`
}

// MarkAttendanceResponse echoes the recorded mark.
type MarkAttendanceResponse struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

// DeleteSubjectResponse reports the deletion outcome.
type DeleteSubjectResponse struct {
	DeletedSubject    string   `json:"deletedSubject"`
	RemainingSubjects []string `json:"remainingSubjects"`
}
