package handler

import (
	"net/http"

	"github.com/habitforge/habitforge/internal/api/middleware"
	"github.com/habitforge/habitforge/internal/api/response"
	"github.com/habitforge/habitforge/internal/service"
)

// ProgressHandler handles progress history and streak endpoints
type ProgressHandler struct {
	progressService *service.ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// List returns the owner's progress logs, newest first
func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	logs, err := h.progressService.List(r.Context(), sess)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, logs)
}

// Streak returns the owner's current consecutive-day streak
func (h *ProgressHandler) Streak(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	streak, err := h.progressService.Streak(r.Context(), sess)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, map[string]int{"streak": streak})
}
