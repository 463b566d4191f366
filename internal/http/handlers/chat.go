package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/student-life-be/internal/http/respond"
)

// Asker answers a free-form question.
type Asker interface {
	Ask(ctx context.Context, message string) (string, error)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// ChatHandler forwards questions to the study assistant.
type ChatHandler struct {
	assistant Asker
}

func NewChatHandler(assistant Asker) *ChatHandler {
	return &ChatHandler{assistant: assistant}
}

func (h *ChatHandler) Register(r chi.Router) {
	r.Post("/api/chat", h.handleChat)
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reply, err := h.assistant.Ask(r.Context(), req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "", chatResponse{Reply: reply})
}
