package handlers

import (
	"net/http"

	"medibot/utils"

	"github.com/gin-gonic/gin"
)

// StartSessionHandler creates (or returns) the session for a user.
func StartSessionHandler(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	sess, err := agentService.StartSession(c.Request.Context(), req.UserID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to start session", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": sess.UserID, "created_at": sess.CreatedAt})
}

// GetSessionHandler returns the current session summary.
func GetSessionHandler(c *gin.Context) {
	userID := c.Param("userID")
	summary, err := agentService.GetSession(c.Request.Context(), userID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load session", err.Error())
		return
	}
	c.JSON(http.StatusOK, summary)
}

// EndSessionHandler deletes the session.
func EndSessionHandler(c *gin.Context) {
	userID := c.Param("userID")
	if err := agentService.EndSession(c.Request.Context(), userID); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to end session", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session ended"})
}

// ClearHistoryHandler empties the conversation history while keeping the
// active flow and its slots.
func ClearHistoryHandler(c *gin.Context) {
	userID := c.Param("userID")
	if err := agentService.ClearHistory(c.Request.Context(), userID); err != nil {
		utils.JSONError(c, http.StatusNotFound, "Failed to clear history", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "history cleared"})
}
