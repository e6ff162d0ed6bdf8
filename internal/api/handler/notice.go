package handler

import (
	"net/http"

	"github.com/habitforge/habitforge/internal/api/middleware"
	"github.com/habitforge/habitforge/internal/api/response"
	"github.com/habitforge/habitforge/internal/repository/redis"
)

// NoticeHandler drains pending non-blocking failure notices
type NoticeHandler struct {
	notices *redis.NoticeStore
}

// NewNoticeHandler creates a new notice handler
func NewNoticeHandler(notices *redis.NoticeStore) *NoticeHandler {
	return &NoticeHandler{notices: notices}
}

// Drain returns and clears the owner's pending notices
func (h *NoticeHandler) Drain(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	notices, err := h.notices.Drain(r.Context(), sess.UserID)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}
	if notices == nil {
		notices = []string{}
	}

	response.OK(w, map[string][]string{"notices": notices})
}
