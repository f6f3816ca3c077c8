package routes

import (
	"time"

	"medibot/config"
	"medibot/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterChatRoutes centralizes registration of the conversation and
// session endpoints plus global CORS.
func RegisterChatRoutes(r *gin.Engine) {
	origin := config.AppConfig.FrontendURL
	if origin == "" {
		origin = "*"
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{origin},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.POST("/chat", handlers.ChatHandler)

		session := api.Group("/session")
		{
			session.POST("/start", handlers.StartSessionHandler)
			session.GET("/:userID", handlers.GetSessionHandler)
			session.DELETE("/:userID", handlers.EndSessionHandler)
			session.POST("/:userID/clear-history", handlers.ClearHistoryHandler)
		}
	}

	r.GET("/health", handlers.HealthHandler)
}
