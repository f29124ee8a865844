package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
	"github.com/classtrack/classtrack-api/pkg/response"
)

type attendanceLedger interface {
	AddSubject(ctx context.Context, userID, subject string) (*dto.AddSubjectResponse, error)
	MarkAttendance(ctx context.Context, userID, subject, date, status string) (*dto.MarkAttendanceResponse, error)
	ResetDate(ctx context.Context, userID, subject, date string) error
	DeleteSubject(ctx context.Context, userID, subject string) (*dto.DeleteSubjectResponse, error)
}

type attendanceReporter interface {
	Records(ctx context.Context, userID string) ([]models.AttendanceRecord, error)
	Summary(ctx context.Context, userID string) ([]models.SubjectSummary, error)
	ExportSummary(ctx context.Context, userID, format string) ([]byte, string, error)
}

// AttendanceHandler exposes the ledger and reporter over HTTP. The user
// id always comes from the authenticated claims, never the payload.
type AttendanceHandler struct {
	ledger   attendanceLedger
	reporter attendanceReporter
}

// NewAttendanceHandler builds the handler.
func NewAttendanceHandler(ledger attendanceLedger, reporter attendanceReporter) *AttendanceHandler {
	return &AttendanceHandler{ledger: ledger, reporter: reporter}
}

// AddSubject godoc
// @Summary Add a subject
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.AddSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Router /attendance/subjects [post]
func (h *AttendanceHandler) AddSubject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.AddSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subject payload"))
		return
	}
	result, err := h.ledger.AddSubject(c.Request.Context(), claims.UserID, req.Subject)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Mark godoc
// @Summary Mark attendance
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.MarkAttendanceRequest true "Mark payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/mark [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mark payload"))
		return
	}
	result, err := h.ledger.MarkAttendance(c.Request.Context(), claims.UserID, req.Subject, req.Date, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ResetDate godoc
// @Summary Reset attendance for a date
// @Tags Attendance
// @Produce json
// @Param subject path string true "Subject name"
// @Param date path string true "ISO date"
// @Success 204
// @Router /attendance/records/{subject}/{date} [delete]
func (h *AttendanceHandler) ResetDate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.ledger.ResetDate(c.Request.Context(), claims.UserID, c.Param("subject"), c.Param("date")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteSubject godoc
// @Summary Delete a subject and its records
// @Tags Attendance
// @Produce json
// @Param subject path string true "Subject name"
// @Success 200 {object} response.Envelope
// @Router /attendance/subjects/{subject} [delete]
func (h *AttendanceHandler) DeleteSubject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.ledger.DeleteSubject(c.Request.Context(), claims.UserID, c.Param("subject"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Records godoc
// @Summary List expanded attendance records
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/records [get]
func (h *AttendanceHandler) Records(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	records, err := h.reporter.Records(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

// Summary godoc
// @Summary Per-subject attendance summary
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/summary [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summaries, err := h.reporter.Summary(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries)
}

// ExportSummary godoc
// @Summary Export the attendance summary
// @Tags Attendance
// @Produce octet-stream
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Router /attendance/summary/export [get]
func (h *AttendanceHandler) ExportSummary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format := c.DefaultQuery("format", "csv")
	payload, filename, err := h.reporter.ExportSummary(c.Request.Context(), claims.UserID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	contentType := "text/csv"
	if format == "pdf" {
		contentType = "application/pdf"
	}
	c.Data(http.StatusOK, contentType, payload)
}
