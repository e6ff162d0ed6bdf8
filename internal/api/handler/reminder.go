package handler

import (
	"net/http"

	"github.com/habitforge/habitforge/internal/api/middleware"
	"github.com/habitforge/habitforge/internal/api/response"
	"github.com/habitforge/habitforge/internal/service"
)

// ReminderHandler handles reminder preview and opt-in endpoints
type ReminderHandler struct {
	reminderService *service.ReminderService
	registry        service.ReminderRegistry
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(reminderService *service.ReminderService, registry service.ReminderRegistry) *ReminderHandler {
	return &ReminderHandler{reminderService: reminderService, registry: registry}
}

// Preview generates the reminder the owner would receive right now
func (h *ReminderHandler) Preview(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	response.OK(w, map[string]string{
		"title":    service.ReminderTitle,
		"reminder": h.reminderService.GenerateReminder(r.Context(), sess),
	})
}

// Enable opts the owner into scheduled reminders
func (h *ReminderHandler) Enable(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := h.registry.Enable(r.Context(), sess.UserID); err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, map[string]bool{"enabled": true})
}

// Disable opts the owner out of scheduled reminders
func (h *ReminderHandler) Disable(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := h.registry.Disable(r.Context(), sess.UserID); err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, map[string]bool{"enabled": false})
}
