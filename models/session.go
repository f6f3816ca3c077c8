package models

import "time"

// History is bounded so sessions stay small in Redis; the classifier only
// ever sees the most recent window anyway.
const MaxHistoryTurns = 50

// Turn roles.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Turn is a single message in the conversation, user or agent side.
type Turn struct {
	Role      string            `json:"role"`
	Text      string            `json:"text"`
	Timestamp time.Time         `json:"timestamp"`
	Intent    IntentType        `json:"intent,omitempty"`
	Entities  map[string]string `json:"entities,omitempty"`
}

// FlowKind identifies which multi-turn task a session is working on.
type FlowKind string

const (
	FlowNone    FlowKind = ""
	FlowBooking FlowKind = "booking"
	FlowSearch  FlowKind = "search"
	FlowTriage  FlowKind = "triage"
)

// FlowState pairs the active flow kind with its current state. Search and
// triage are single-turn, so only the booking flow carries a real state.
type FlowState struct {
	Kind  FlowKind     `json:"kind"`
	State BookingState `json:"state,omitempty"`
}

// Session is the per-user dialogue state. Only the dialogue state machine
// mutates Slots and Flow; History is append-only.
type Session struct {
	UserID         string            `json:"userId"`
	CreatedAt      time.Time         `json:"createdAt"`
	LastActiveAt   time.Time         `json:"lastActiveAt"`
	History        []Turn            `json:"history,omitempty"`
	Slots          map[string]string `json:"slots,omitempty"`
	Flow           FlowState         `json:"flow"`
	PendingBooking *BookingRequest   `json:"pendingBooking,omitempty"`
}

// NewSession returns a fresh session for the given user.
func NewSession(userID string) *Session {
	now := time.Now()
	return &Session{
		UserID:       userID,
		CreatedAt:    now,
		LastActiveAt: now,
		Slots:        map[string]string{},
	}
}

// AppendTurn adds a turn to the history, trimming the oldest entries once
// the bound is exceeded. Existing turns are never edited or reordered.
func (s *Session) AppendTurn(t Turn) {
	s.History = append(s.History, t)
	if len(s.History) > MaxHistoryTurns {
		s.History = s.History[len(s.History)-MaxHistoryTurns:]
	}
}

// RecentTurns returns up to n most recent turns in chronological order.
func (s *Session) RecentTurns(n int) []Turn {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	if len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// ResetFlow clears the active flow, its slots and any pending booking.
func (s *Session) ResetFlow() {
	s.Flow = FlowState{}
	s.Slots = map[string]string{}
	s.PendingBooking = nil
}
