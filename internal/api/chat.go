// chat.go implements the participant-facing chat surface: the access probe
// and the relay endpoint itself.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psych-platform/chatbot-backend/internal/middleware"
	"github.com/psych-platform/chatbot-backend/internal/services"
)

// ChatHandlers handles the chat relay endpoints
type ChatHandlers struct {
	relay *services.RelayService
}

// NewChatHandlers creates a new ChatHandlers instance
func NewChatHandlers(relay *services.RelayService) *ChatHandlers {
	return &ChatHandlers{relay: relay}
}

// @Summary      Probe chat access
// @Description  Returns 200 when the caller's session is valid and an administrator has approved their access. The guard middleware produces every denial; reaching this handler means access is granted.
// @Tags         Chat
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "Access granted"
// @Failure      401  {object}  map[string]interface{}  "Invalid or expired token"
// @Failure      403  {object}  map[string]interface{}  "Access denied"
// @Router       /chatbot-access [get]
func (h *ChatHandlers) AccessCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Access granted"})
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

// @Summary      Send a message to the assistant
// @Description  Relays the message to the completion provider exactly once, records the exchange, and returns the reply. Provider failures surface as a generic error; the detail stays in the server log.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        body  body  chatRequest  true  "Message text"
// @Success      200  {object}  map[string]interface{}  "Assistant reply"
// @Failure      400  {object}  map[string]interface{}  "Message is required"
// @Failure      500  {object}  map[string]interface{}  "Provider or storage failure"
// @Router       /chat [post]
func (h *ChatHandlers) ChatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
			return
		}

		// The guard middleware verified the token and set the username; the
		// request body never names the speaker.
		username := c.GetString(middleware.UsernameKey)

		reply, err := h.relay.Converse(c.Request.Context(), username, req.Message)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrEmptyMessage):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
			case errors.Is(err, services.ErrStorageFailure):
				slog.Error("chat exchange not recorded", "username", username, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record the conversation"})
			default:
				slog.Error("chat relay failed", "username", username, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get response from the chatbot"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"reply": reply})
	}
}
