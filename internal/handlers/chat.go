package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tejaspachgade2315/Voosh/internal/platform/logger"
	"github.com/tejaspachgade2315/Voosh/internal/services"
)

type ChatHandler struct {
	log         *logger.Logger
	chatService services.ChatService
}

func NewChatHandler(log *logger.Logger, chatService services.ChatService) *ChatHandler {
	return &ChatHandler{
		log:         log.With("handler", "ChatHandler"),
		chatService: chatService,
	}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (r *chatRequest) validate() error {
	r.SessionID = strings.TrimSpace(r.SessionID)
	r.Message = strings.TrimSpace(r.Message)
	if r.SessionID == "" {
		return errors.New("session_id required")
	}
	if r.Message == "" {
		return errors.New("message required")
	}
	return nil
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := req.validate(); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := h.chatService.ProcessQuery(c.Request.Context(), req.SessionID, req.Message)
	switch {
	case errors.Is(err, services.ErrSessionInvalid):
		RespondError(c, http.StatusNotFound, "session_not_found", err)
	case errors.Is(err, services.ErrStoreUnavailable):
		h.log.Error("Chat store failure", "error", err, "session_id", req.SessionID)
		RespondError(c, http.StatusServiceUnavailable, "store_unavailable", err)
	case err != nil:
		h.log.Error("Chat failed", "error", err, "session_id", req.SessionID)
		RespondError(c, http.StatusInternalServerError, "chat_failed", err)
	default:
		RespondOK(c, result)
	}
}

// ChatStream answers over server-sent events: one "delta" event per
// generation chunk, then a final "done" event with the answer and sources.
func (h *ChatHandler) ChatStream(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := req.validate(); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	result, err := h.chatService.ProcessQueryStream(c.Request.Context(), req.SessionID, req.Message, func(delta string) {
		c.SSEvent("delta", delta)
		c.Writer.Flush()
	})
	if err != nil {
		code := "chat_failed"
		if errors.Is(err, services.ErrSessionInvalid) {
			code = "session_not_found"
		}
		h.log.Error("ChatStream failed", "error", err, "session_id", req.SessionID)
		c.SSEvent("error", gin.H{"code": code, "message": err.Error()})
		c.Writer.Flush()
		return
	}

	c.SSEvent("done", gin.H{"answer": result.Answer, "sources": result.Sources})
	c.Writer.Flush()
}
