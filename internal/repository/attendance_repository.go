package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/classtrack/classtrack-api/internal/models"
)

// ErrVersionConflict signals that the document changed between the
// snapshot read and the conditional write. The ledger retries on it.
var ErrVersionConflict = errors.New("attendance document version conflict")

// AttendanceDocumentRepository stores one aggregate document per user in
// a JSONB column guarded by a monotonically increasing version. All
// mutations go through Load + Save(expectedVersion), which gives the
// ledger Firestore-style optimistic read-modify-write transactions.
type AttendanceDocumentRepository struct {
	db *sqlx.DB
}

// NewAttendanceDocumentRepository constructs the repository.
func NewAttendanceDocumentRepository(db *sqlx.DB) *AttendanceDocumentRepository {
	return &AttendanceDocumentRepository{db: db}
}

type attendanceRow struct {
	UserID      string    `db:"user_id"`
	Doc         []byte    `db:"doc"`
	Version     int64     `db:"version"`
	LastUpdated time.Time `db:"last_updated"`
}

// Load returns the user's document and its current version. A missing row
// is the valid empty state: an empty document at version 0.
func (r *AttendanceDocumentRepository) Load(ctx context.Context, userID string) (*models.AttendanceDocument, int64, error) {
	const query = `SELECT user_id, doc, version, last_updated FROM attendance_documents WHERE user_id = $1`

	var row attendanceRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewAttendanceDocument(), 0, nil
		}
		return nil, 0, fmt.Errorf("load attendance document: %w", err)
	}

	doc := models.NewAttendanceDocument()
	if err := json.Unmarshal(row.Doc, doc); err != nil {
		return nil, 0, fmt.Errorf("decode attendance document: %w", err)
	}
	if doc.Subjects == nil {
		doc.Subjects = map[string]models.SubjectDates{}
	}
	doc.LastUpdated = row.LastUpdated

	return doc, row.Version, nil
}

// Exists reports whether a document row is present for the user.
func (r *AttendanceDocumentRepository) Exists(ctx context.Context, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM attendance_documents WHERE user_id = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID); err != nil {
		return false, fmt.Errorf("check attendance document: %w", err)
	}
	return exists, nil
}

// Save writes the document conditionally on the version observed at Load.
// expectedVersion 0 inserts a fresh row; anything else updates in place.
// Zero affected rows means another writer got there first and the caller
// must retry from a fresh snapshot.
func (r *AttendanceDocumentRepository) Save(ctx context.Context, userID string, doc *models.AttendanceDocument, expectedVersion int64) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode attendance document: %w", err)
	}
	now := time.Now().UTC()

	if expectedVersion == 0 {
		const insert = `INSERT INTO attendance_documents (user_id, doc, version, last_updated)
VALUES ($1, $2, 1, $3)
ON CONFLICT (user_id) DO NOTHING`
		result, err := r.db.ExecContext(ctx, insert, userID, payload, now)
		if err != nil {
			return fmt.Errorf("insert attendance document: %w", err)
		}
		return requireOneRow(result, ErrVersionConflict)
	}

	const update = `UPDATE attendance_documents
SET doc = $1, version = version + 1, last_updated = $2
WHERE user_id = $3 AND version = $4`
	result, err := r.db.ExecContext(ctx, update, payload, now, userID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update attendance document: %w", err)
	}
	return requireOneRow(result, ErrVersionConflict)
}

func requireOneRow(result sql.Result, conflict error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return conflict
	}
	return nil
}
