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

type reminderService interface {
	List(ctx context.Context, userID string) ([]models.Reminder, error)
	Add(ctx context.Context, userID string, req dto.AddReminderRequest) (*models.Reminder, error)
	Delete(ctx context.Context, userID, reminderID string) error
	SendNow(ctx context.Context, userID, reminderID string) error
	DispatchDaily(ctx context.Context) (*dto.DispatchResult, error)
}

// ReminderHandler exposes reminder CRUD and dispatch endpoints.
type ReminderHandler struct {
	service reminderService
}

// NewReminderHandler builds the handler.
func NewReminderHandler(service reminderService) *ReminderHandler {
	return &ReminderHandler{service: service}
}

// List godoc
// @Summary List reminders
// @Tags Reminders
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reminders [get]
func (h *ReminderHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	reminders, err := h.service.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reminders)
}

// Add godoc
// @Summary Schedule a reminder
// @Tags Reminders
// @Accept json
// @Produce json
// @Param payload body dto.AddReminderRequest true "Reminder payload"
// @Success 201 {object} response.Envelope
// @Router /reminders [post]
func (h *ReminderHandler) Add(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.AddReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reminder payload"))
		return
	}
	reminder, err := h.service.Add(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reminder)
}

// Delete godoc
// @Summary Delete a reminder
// @Tags Reminders
// @Produce json
// @Param id path string true "Reminder id"
// @Success 204
// @Router /reminders/{id} [delete]
func (h *ReminderHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Send godoc
// @Summary Send a reminder email immediately
// @Tags Reminders
// @Accept json
// @Produce json
// @Param payload body dto.SendReminderRequest true "Send payload"
// @Success 204
// @Router /reminders/send [post]
func (h *ReminderHandler) Send(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SendReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid send payload"))
		return
	}
	if err := h.service.SendNow(c.Request.Context(), claims.UserID, req.ReminderID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// TriggerDaily godoc
// @Summary Run the daily dispatch immediately
// @Tags Reminders
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reminders/trigger-daily [post]
func (h *ReminderHandler) TriggerDaily(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.service.DispatchDaily(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
