package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tejaspachgade2315/Voosh/internal/services"
)

type HealthHandler struct {
	chatService services.ChatService
	kvBackend   string
}

func NewHealthHandler(chatService services.ChatService, kvBackend string) *HealthHandler {
	return &HealthHandler{chatService: chatService, kvBackend: kvBackend}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	RespondOK(c, gin.H{
		"status":            "ok",
		"kv_backend":        h.kvBackend,
		"indexed_documents": h.chatService.IndexedDocumentCount(),
	})
}
