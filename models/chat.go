package models

// ChatRequest is the payload coming from the frontend into /api/chat.
type ChatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message" binding:"required"`
}

// ChatResponse is what the chat handler returns to the frontend.
type ChatResponse struct {
	Response    string         `json:"response"`
	Success     bool           `json:"success"`
	Intent      string         `json:"intent,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
}

// SessionSummary is returned by the session inspection endpoint.
type SessionSummary struct {
	UserID         string            `json:"user_id"`
	CreatedAt      string            `json:"created_at"`
	LastActiveAt   string            `json:"last_active_at"`
	TurnCount      int               `json:"turn_count"`
	ArchivedTurns  int64             `json:"archived_turns,omitempty"`
	Flow           FlowState         `json:"flow"`
	Slots          map[string]string `json:"slots,omitempty"`
	PendingBooking *BookingRequest   `json:"pending_booking,omitempty"`
}
