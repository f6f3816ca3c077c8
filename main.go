// File: medibot/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medibot/config"
	"medibot/cron"
	"medibot/database"
	archiveRepo "medibot/database/repository/archive"
	"medibot/handlers"
	"medibot/middleware"
	"medibot/routes"
	"medibot/services/agent"
	"medibot/services/backend"
	"medibot/services/session"
	"medibot/services/tasks"
	"medibot/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	sessionCache := utils.InitSessionCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(middleware.TokenForwardingMiddleware())

	// Session storage: Redis when reachable, in-memory otherwise.
	ttl := time.Duration(config.AppConfig.SessionTTLMinutes) * time.Minute
	var primary session.Store
	if sessionCache != nil {
		primary = session.NewRedisStore(sessionCache, ttl)
	}
	store := session.NewFailoverStore(primary, session.NewMemoryStore(ttl), logger)

	// Conversation archive is optional; without Mongo the engine runs
	// session-only.
	var archive archiveRepo.ConversationArchiveRepository
	if database.MongoClient != nil {
		archive = archiveRepo.NewMongoArchiveRepo(database.MongoClient)
	}

	// Intent classifier: Gemini-backed when a key is configured, otherwise
	// the keyword fallback carries every turn.
	var model agent.TextModel
	if config.AppConfig.GeminiAPIKey != "" {
		gemini, err := agent.NewGeminiClient(context.Background(), config.AppConfig.GeminiAPIKey, config.AppConfig.GeminiModel)
		if err != nil {
			logger.Sugar().Warnf("main: gemini unavailable, using keyword classification only: %v", err)
		} else {
			model = gemini
		}
	} else {
		logger.Sugar().Warn("main: GEMINI_API_KEY not set, using keyword classification only")
	}

	backendClient := backend.NewHTTPClient(config.AppConfig.BackendURL, logger)
	extractor := agent.NewSlotExtractor()

	var reminders tasks.ReminderScheduler
	if sessionCache != nil {
		reminders = tasks.NewAsynqScheduler(asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisReminderDB,
		})
		cron.InitReminderWorker(archive)
	} else {
		logger.Sugar().Warn("main: redis unavailable, appointment reminders disabled")
	}

	agentService := agent.NewAgentService(agent.DefaultAgentService{
		Store:      store,
		Classifier: agent.NewIntentClassifier(model, logger),
		Extractor:  extractor,
		Flow:       agent.NewStateMachine(backendClient, extractor, logger),
		Triage:     agent.NewTriageEngine(),
		Composer:   agent.NewComposer(),
		Archive:    archive,
		Reminders:  reminders,
		Logger:     logger,
	})
	handlers.SetAgentService(agentService)

	routes.RegisterChatRoutes(router)
	utils.StartHealthMonitor(sessionCache, database.MongoClient, config.AppConfig.BackendURL)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
