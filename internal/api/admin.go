// admin.go implements the operator surface: participant listings, the
// approve/revert action, and review/amendment of recorded chat exchanges.
// Every route registered from this file sits behind RequireAdmin.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/psych-platform/chatbot-backend/internal/db/repositories"
)

// AdminHandlers handles operator-only endpoints
type AdminHandlers struct {
	access    *repositories.AccessRepository
	exchanges *repositories.ChatRepository
}

// NewAdminHandlers creates a new AdminHandlers instance
func NewAdminHandlers(access *repositories.AccessRepository, exchanges *repositories.ChatRepository) *AdminHandlers {
	return &AdminHandlers{access: access, exchanges: exchanges}
}

// @Summary      List all participants
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "users array with approval status"
// @Failure      500  {object}  map[string]interface{}  "Error fetching users"
// @Router       /admin/users [get]
func (h *AdminHandlers) ListUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := h.access.ListAll(c.Request.Context())
		if err != nil {
			slog.Error("listing users failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching users"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
	}
}

// @Summary      List participants awaiting approval
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "pendingUsers array"
// @Failure      500  {object}  map[string]interface{}  "Error fetching pending users"
// @Router       /admin/pending-users [get]
func (h *AdminHandlers) ListPendingUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := h.access.ListPending(c.Request.Context())
		if err != nil {
			slog.Error("listing pending users failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching pending users"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"pendingUsers": users})
	}
}

type approveRevertRequest struct {
	UserID string `json:"userId"`
	Action string `json:"action"`
}

// @Summary      Approve or revert a participant's chat access
// @Description  action "approve" grants access; any other action reverts it. Only records still in the registered role are affected.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        body  body  approveRevertRequest  true  "User id and action"
// @Success      200  {object}  map[string]interface{}  "User approved/reverted successfully"
// @Failure      400  {object}  map[string]interface{}  "Missing user id"
// @Failure      500  {object}  map[string]interface{}  "Action failed"
// @Router       /admin/approve-revert [post]
func (h *AdminHandlers) ApproveRevertHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req approveRevertRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}

		if err := h.access.SetApproval(c.Request.Context(), req.UserID, req.Action); err != nil {
			if !errors.Is(err, repositories.ErrActionFailed) {
				slog.Error("approval update failed", "user_id", req.UserID, "error", err)
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Action failed"})
			return
		}

		verb := "reverted"
		if req.Action == repositories.ActionApprove {
			verb = "approved"
		}
		slog.Info("participant access changed", "user_id", req.UserID, "action", req.Action)
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("User %s successfully", verb)})
	}
}

// @Summary      List recorded chat exchanges
// @Description  Returns every exchange newest first, including any operator amendments.
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "userRequests array"
// @Failure      500  {object}  map[string]interface{}  "Error fetching requests"
// @Router       /user-requests [get]
func (h *AdminHandlers) ListExchangesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := h.exchanges.List(c.Request.Context())
		if err != nil {
			slog.Error("listing exchanges failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching requests"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"userRequests": records})
	}
}

type providerReplyRequest struct {
	ChatGPTResponse string `json:"chatGPTResponse"`
}

// @Summary      Overwrite the recorded provider reply of an exchange
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        id    path  int                   true  "Exchange id"
// @Param        body  body  providerReplyRequest  true  "Replacement text"
// @Success      200  {object}  map[string]interface{}  "Response updated"
// @Failure      400  {object}  map[string]interface{}  "Missing or empty text"
// @Failure      404  {object}  map[string]interface{}  "Exchange not found"
// @Router       /user-requests/{id}/chatgpt-response [put]
func (h *AdminHandlers) SetProviderReplyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := exchangeID(c)
		if !ok {
			return
		}
		var req providerReplyRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ChatGPTResponse) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatGPTResponse is required"})
			return
		}
		h.updateExchange(c, id, req.ChatGPTResponse, h.exchanges.SetProviderReply)
	}
}

type adminReplyRequest struct {
	AdminResponse string `json:"adminResponse"`
}

// @Summary      Attach or overwrite the operator's own reply on an exchange
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        id    path  int                true  "Exchange id"
// @Param        body  body  adminReplyRequest  true  "Operator reply text"
// @Success      200  {object}  map[string]interface{}  "Response updated"
// @Failure      400  {object}  map[string]interface{}  "Missing or empty text"
// @Failure      404  {object}  map[string]interface{}  "Exchange not found"
// @Router       /user-requests/{id}/admin-response [put]
func (h *AdminHandlers) SetAdminReplyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := exchangeID(c)
		if !ok {
			return
		}
		var req adminReplyRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.AdminResponse) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "adminResponse is required"})
			return
		}
		h.updateExchange(c, id, req.AdminResponse, h.exchanges.SetAdminReply)
	}
}

func exchangeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request id"})
		return 0, false
	}
	return id, true
}

func (h *AdminHandlers) updateExchange(c *gin.Context, id int64, text string, set func(ctx context.Context, id int64, text string) error) {
	if err := set(c.Request.Context(), id, text); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
			return
		}
		slog.Error("exchange update failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Response updated"})
}
