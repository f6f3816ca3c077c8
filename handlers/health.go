package handlers

import (
	"net/http"

	"medibot/config"
	"medibot/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports service status and the latest capability snapshot.
func HealthHandler(c *gin.Context) {
	geminiStatus := "OK"
	if config.AppConfig.GeminiAPIKey == "" {
		geminiStatus = "NOT_CONFIGURED"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"service":      "medibot",
		"gemini_api":   geminiStatus,
		"backend_url":  config.AppConfig.BackendURL,
		"capabilities": utils.GetHealthStatus(),
	})
}
