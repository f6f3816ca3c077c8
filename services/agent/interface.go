package agent

import (
	"context"

	"medibot/models"
)

// Service is the dialogue engine surface the HTTP handlers consume.
type Service interface {
	// ProcessMessage handles one user turn end to end: load session,
	// classify, extract, step the state machine, render, save. It never
	// fails the conversation; errors degrade into apologetic responses.
	ProcessMessage(ctx context.Context, userID, message, token string) (*models.ChatResponse, error)

	StartSession(ctx context.Context, userID string) (*models.Session, error)
	GetSession(ctx context.Context, userID string) (*models.SessionSummary, error)
	EndSession(ctx context.Context, userID string) error
	ClearHistory(ctx context.Context, userID string) error
}
