package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tejaspachgade2315/Voosh/internal/platform/logger"
	"github.com/tejaspachgade2315/Voosh/internal/services"
)

type SessionHandler struct {
	log            *logger.Logger
	sessionService services.SessionService
}

func NewSessionHandler(log *logger.Logger, sessionService services.SessionService) *SessionHandler {
	return &SessionHandler{
		log:            log.With("handler", "SessionHandler"),
		sessionService: sessionService,
	}
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	sess, err := h.sessionService.CreateSession(c.Request.Context())
	if err != nil {
		h.log.Error("CreateSession failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "create_session_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": sess})
}

func (h *SessionHandler) GetHistory(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("id"))
	if sessionID == "" {
		RespondError(c, http.StatusBadRequest, "missing_session_id", errors.New("session id required"))
		return
	}

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	ok, err := h.sessionService.ValidateSession(c.Request.Context(), sessionID)
	if err != nil {
		h.log.Error("GetHistory validate failed", "error", err, "session_id", sessionID)
		RespondError(c, http.StatusServiceUnavailable, "store_unavailable", err)
		return
	}
	if !ok {
		RespondError(c, http.StatusNotFound, "session_not_found", services.ErrSessionInvalid)
		return
	}

	history, err := h.sessionService.GetHistory(c.Request.Context(), sessionID, limit)
	if err != nil {
		h.log.Error("GetHistory failed", "error", err, "session_id", sessionID)
		RespondError(c, http.StatusInternalServerError, "load_history_failed", err)
		return
	}
	RespondOK(c, gin.H{"messages": history})
}

func (h *SessionHandler) ClearHistory(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("id"))
	if sessionID == "" {
		RespondError(c, http.StatusBadRequest, "missing_session_id", errors.New("session id required"))
		return
	}

	err := h.sessionService.ClearHistory(c.Request.Context(), sessionID)
	switch {
	case errors.Is(err, services.ErrSessionInvalid):
		RespondError(c, http.StatusNotFound, "session_not_found", err)
	case err != nil:
		h.log.Error("ClearHistory failed", "error", err, "session_id", sessionID)
		RespondError(c, http.StatusInternalServerError, "clear_history_failed", err)
	default:
		RespondOK(c, gin.H{"cleared": true})
	}
}

func (h *SessionHandler) DeleteSession(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("id"))
	if sessionID == "" {
		RespondError(c, http.StatusBadRequest, "missing_session_id", errors.New("session id required"))
		return
	}

	if err := h.sessionService.DeleteSession(c.Request.Context(), sessionID); err != nil {
		h.log.Error("DeleteSession failed", "error", err, "session_id", sessionID)
		RespondError(c, http.StatusInternalServerError, "delete_session_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
