package models

import (
	"encoding/json"
	"time"
)

// Attendance statuses accepted by the ledger.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// DateCount tallies present/absent marks for one subject on one date.
// Multiple marks on the same date accumulate; they model multiple sessions
// per day. Both counters are never zero at the same time in stored state —
// such entries are pruned instead.
type DateCount struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
}

// SubjectDates maps ISO dates (YYYY-MM-DD) to their counts.
type SubjectDates map[string]DateCount

// AttendanceDocument is the single aggregate document holding all of one
// user's subject/date counters. Subject names are case-sensitive keys; a
// subject with no dates yet is legal and stays visible in listings.
type AttendanceDocument struct {
	Subjects    map[string]SubjectDates `json:"subjects"`
	LastUpdated time.Time               `json:"lastUpdated"`
}

// NewAttendanceDocument returns the empty state used when no row exists.
func NewAttendanceDocument() *AttendanceDocument {
	return &AttendanceDocument{Subjects: map[string]SubjectDates{}}
}

// Clone deep-copies the document so a transaction attempt can mutate its
// own snapshot without touching the loaded one.
func (d *AttendanceDocument) Clone() *AttendanceDocument {
	clone := &AttendanceDocument{
		Subjects:    make(map[string]SubjectDates, len(d.Subjects)),
		LastUpdated: d.LastUpdated,
	}
	for subject, dates := range d.Subjects {
		copied := make(SubjectDates, len(dates))
		for date, count := range dates {
			copied[date] = count
		}
		clone.Subjects[subject] = copied
	}
	return clone
}

// MarshalJSON keeps a null subjects map from ever reaching storage.
func (d *AttendanceDocument) MarshalJSON() ([]byte, error) {
	type alias AttendanceDocument
	doc := alias(*d)
	if doc.Subjects == nil {
		doc.Subjects = map[string]SubjectDates{}
	}
	return json.Marshal(doc)
}

// AttendanceRecord is a synthetic, non-persisted expansion of one counted
// mark. IDs are stable within a single read only: earlier count changes
// renumber later records on the next read.
type AttendanceRecord struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Status  string `json:"status"`
}

// SubjectSummary is the derived per-subject rollup.
type SubjectSummary struct {
	Subject    string             `json:"subject"`
	Present    int                `json:"present"`
	Absent     int                `json:"absent"`
	Total      int                `json:"total"`
	Percentage int                `json:"percentage"`
	Attendance []AttendanceRecord `json:"attendance"`
}
