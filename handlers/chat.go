package handlers

import (
	"net/http"
	"strings"

	"medibot/middleware"
	"medibot/models"
	"medibot/services/agent"
	"medibot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var agentService agent.Service

// SetAgentService injects the dialogue engine used by the chat and session
// handlers.
func SetAgentService(svc agent.Service) {
	agentService = svc
}

// ChatHandler is the main conversation endpoint.
func ChatHandler(c *gin.Context) {
	logger := utils.GetLogger()

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", "message cannot be empty")
		return
	}

	// Identity from the token wins over the body.
	userID := req.UserID
	if uid := c.GetString(middleware.ContextUserID); uid != "" {
		userID = uid
	}
	if strings.TrimSpace(userID) == "" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", "user_id is required")
		return
	}
	token := c.GetString(middleware.ContextToken)

	resp, err := agentService.ProcessMessage(c.Request.Context(), userID, req.Message, token)
	if err != nil {
		// The engine is designed not to fail a turn; this is a last resort.
		logger.Error("chat processing failed", zap.String("userId", userID), zap.Error(err))
		c.JSON(http.StatusOK, models.ChatResponse{
			Response: "I apologize, but I'm having trouble processing your request. Please try again.",
			Success:  false,
			Intent:   string(models.IntentUnknown),
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}
