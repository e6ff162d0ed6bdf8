package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/habitforge/habitforge/internal/api/middleware"
	"github.com/habitforge/habitforge/internal/api/response"
	"github.com/habitforge/habitforge/internal/service"
)

var validate = validator.New()

// ChatHandler handles chat and turn endpoints
type ChatHandler struct {
	coachService *service.CoachService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(coachService *service.CoachService) *ChatHandler {
	return &ChatHandler{coachService: coachService}
}

// TurnRequest is one submitted user turn. A nil chat_id starts a new chat.
type TurnRequest struct {
	ChatID *uuid.UUID `json:"chat_id"`
	Text   string     `json:"text" validate:"required,max=4000"`
}

// SubmitTurn handles one conversational exchange
func (h *ChatHandler) SubmitTurn(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.coachService.SubmitTurn(r.Context(), sess, req.ChatID, req.Text)
	if err != nil {
		if errors.Is(err, service.ErrNoSession) {
			response.Unauthorized(w, "unauthorized")
			return
		}
		if errors.Is(err, service.ErrForbidden) {
			response.Forbidden(w, "chat belongs to another owner")
			return
		}
		// A new chat may already exist by the time the completion fails;
		// surface its id alongside the error so the client stays in sync.
		if result != nil && result.ChatID != uuid.Nil {
			response.ErrorWithData(w, http.StatusBadGateway, "completion failed", map[string]any{
				"chat_id": result.ChatID,
			})
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, result)
}

// List returns the owner's chats, newest activity first
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	chats, err := h.coachService.ListChats(r.Context(), sess)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, chats)
}

// Messages returns one chat's messages in chronological order
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	chatID, err := uuid.Parse(chi.URLParam(r, "chatID"))
	if err != nil {
		response.BadRequest(w, "invalid chat ID")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			response.BadRequest(w, "invalid limit")
			return
		}
	}

	messages, err := h.coachService.ChatHistory(r.Context(), sess, chatID, limit)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			response.Forbidden(w, "chat belongs to another owner")
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, messages)
}
