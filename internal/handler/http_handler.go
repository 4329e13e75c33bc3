package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sethkontny/aaventure/internal/domain"
	"github.com/sethkontny/aaventure/internal/service"
)

// HTTPHandler serves the REST surface next to the websocket: room
// history for late loaders and clients without a live socket.
type HTTPHandler struct {
	chat service.ChatService
	ws   *WSHandler
}

func NewHTTPHandler(chat service.ChatService, ws *WSHandler) *HTTPHandler {
	return &HTTPHandler{chat: chat, ws: ws}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.ws.HandleWebSocket)
	r.GET("/api/rooms/:roomId/messages", h.GetHistory)
}

// GetHistory returns the most recent messages for a room, oldest
// first. Same read path as the in-band message-history delivery.
func (h *HTTPHandler) GetHistory(c *gin.Context) {
	roomID := c.Param("roomId")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	messages, err := h.chat.History(c.Request.Context(), roomID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	payloads := make([]domain.MessagePayload, len(messages))
	for i := range messages {
		payloads[i] = domain.NewMessagePayload(&messages[i])
	}
	c.JSON(http.StatusOK, gin.H{"roomId": roomID, "messages": payloads})
}
