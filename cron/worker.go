package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"medibot/config"
	archiveRepo "medibot/database/repository/archive"
	"medibot/models"
	"medibot/services/tasks"

	"github.com/hibiken/asynq"
)

// InitReminderWorker runs the async reminder worker in background. Archive
// may be nil when Mongo is down; reminders then only log.
func InitReminderWorker(archive archiveRepo.ConversationArchiveRepository) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, handleReminderTask(archive))

	go func() {
		log.Println("[ReminderWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ReminderWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Println("[ReminderWorker] max retry attempts reached, reminders disabled")
					return
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleReminderTask(archive archiveRepo.ConversationArchiveRepository) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ReminderHandler] invalid payload: %v", err)
			return err
		}

		log.Printf("[ReminderHandler] reminder for user %s: %s on %s at %s (booking %s)",
			p.UserID, p.DoctorName, p.Date, p.Time, p.BookingRef)

		if archive == nil {
			return nil
		}
		// Record the reminder as an agent turn so it shows up in the
		// user's conversation history.
		turn := models.Turn{
			Role:      models.RoleAgent,
			Text:      fmt.Sprintf("Reminder: you have an appointment with %s on %s at %s.", p.DoctorName, p.Date, p.Time),
			Timestamp: time.Now(),
		}
		if err := archive.AppendTurn(ctx, p.UserID, turn); err != nil {
			log.Printf("[ReminderHandler] failed to archive reminder: %v", err)
			return err
		}
		return nil
	}
}
