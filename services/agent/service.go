package agent

import (
	"context"
	"errors"
	"time"

	archiveRepo "medibot/database/repository/archive"
	"medibot/models"
	"medibot/services/session"
	"medibot/services/tasks"

	"go.uber.org/zap"
)

// DefaultAgentService wires the dialogue engine together. Archive and
// Reminders are optional capabilities; a nil value disables them without
// touching flow logic.
type DefaultAgentService struct {
	Store      session.Store
	Classifier *IntentClassifier
	Extractor  *SlotExtractor
	Flow       *StateMachine
	Triage     *TriageEngine
	Composer   *Composer
	Archive    archiveRepo.ConversationArchiveRepository
	Reminders  tasks.ReminderScheduler
	Logger     *zap.Logger

	// Now is the reference instant provider; tests pin it.
	Now func() time.Time

	locks *userLocks
}

// NewAgentService builds the service with a fresh lock table.
func NewAgentService(svc DefaultAgentService) *DefaultAgentService {
	svc.locks = newUserLocks()
	if svc.Now == nil {
		svc.Now = time.Now
	}
	return &svc
}

// ProcessMessage is the single linear unit of work per turn. Turns for the
// same user are serialized; the session is computed fully and saved once at
// the end, so a failed turn never persists a half-applied mutation.
func (s *DefaultAgentService) ProcessMessage(ctx context.Context, userID, message, token string) (*models.ChatResponse, error) {
	release := s.locks.acquire(userID)
	defer release()

	sess, err := s.Store.Load(ctx, userID)
	if err != nil {
		s.Logger.Warn("session load failed, starting fresh", zap.String("userId", userID), zap.Error(err))
	}
	if sess == nil {
		sess = models.NewSession(userID)
	}

	now := s.Now()
	res := s.Classifier.Classify(ctx, message, sess.RecentTurns(historyWindow))
	s.Logger.Info("classified intent",
		zap.String("userId", userID),
		zap.String("intent", string(res.Intent)),
		zap.String("source", res.Source),
		zap.Float64("confidence", res.Confidence))

	view := s.route(ctx, sess, res, message, now, token)
	text, suggestions := s.Composer.Compose(view)

	userTurn := models.Turn{Role: models.RoleUser, Text: message, Timestamp: now, Intent: res.Intent, Entities: res.Entities}
	agentTurn := models.Turn{Role: models.RoleAgent, Text: text, Timestamp: now, Entities: turnEntities(view)}
	sess.AppendTurn(userTurn)
	sess.AppendTurn(agentTurn)
	sess.LastActiveAt = now

	if view.State == models.BookingStateConfirmed && !view.AlreadyConfirmed && view.Booking != nil {
		s.scheduleReminder(userID, view.Booking)
	}

	if res.Intent == models.IntentFarewell {
		if err := s.Store.Delete(ctx, userID); err != nil {
			s.Logger.Warn("failed to end session on farewell", zap.Error(err))
		}
	} else if err := s.Store.Save(ctx, userID, sess); err != nil {
		// The turn still succeeded from the user's point of view.
		s.Logger.Error("failed to save session", zap.String("userId", userID), zap.Error(err))
	}

	s.archiveTurns(userID, userTurn, agentTurn)

	return &models.ChatResponse{
		Response:    text,
		Success:     true,
		Intent:      string(res.Intent),
		Data:        viewData(view),
		Suggestions: suggestions,
	}, nil
}

func bookingFlowActive(sess *models.Session) bool {
	if sess.Flow.Kind != models.FlowBooking {
		return false
	}
	switch sess.Flow.State {
	case models.BookingStateConfirmed, models.BookingStateCancelled:
		return false
	}
	return true
}

// route dispatches one turn to the matching flow. An active booking flow
// keeps consuming turns (that is how a bare "3pm" continues a booking)
// unless the intent is a clear single-turn interruption.
func (s *DefaultAgentService) route(ctx context.Context, sess *models.Session, res models.IntentResult, message string, now time.Time, token string) View {
	if bookingFlowActive(sess) {
		switch res.Intent {
		case models.IntentGreeting, models.IntentSymptomCheck, models.IntentCancelPolicy,
			models.IntentViewAppointments, models.IntentFarewell:
			// Interruptions answer in place; the flow stays where it was.
		default:
			return s.Flow.StepBooking(ctx, sess, res, message, now, token)
		}
	} else if sess.Flow.Kind == models.FlowBooking && sess.Flow.State == models.BookingStateConfirmed &&
		sess.PendingBooking != nil && isAffirmative(message) {
		// A stray "yes" after success replays the confirmation answer
		// instead of starting a new flow.
		return s.Flow.StepBooking(ctx, sess, res, message, now, token)
	}

	switch res.Intent {
	case models.IntentSymptomCheck:
		tr := s.Triage.Triage(message)
		return View{Flow: models.FlowTriage, Intent: res.Intent, Triage: &tr}
	case models.IntentSearchDoctor:
		return s.Flow.SearchDoctors(ctx, sess, res, message)
	case models.IntentCheckAvailability:
		return s.Flow.CheckAvailability(ctx, sess, res, message, now, token)
	case models.IntentBookAppointment:
		return s.Flow.StepBooking(ctx, sess, res, message, now, token)
	case models.IntentViewAppointments:
		return s.Flow.ViewAppointments(ctx, sess, res, token)
	default:
		return View{Intent: res.Intent}
	}
}

// turnEntities records what the agent surfaced this turn, so the extractor
// can later match names the user refers back to.
func turnEntities(v View) map[string]string {
	if len(v.Doctors) == 0 {
		return nil
	}
	names := ""
	for i, d := range v.Doctors {
		if i > 0 {
			names += ", "
		}
		names += d.DisplayName()
	}
	return map[string]string{"doctors": names}
}

// viewData builds the structured payload accompanying the response text.
func viewData(v View) map[string]any {
	data := map[string]any{}
	if v.Triage != nil {
		data["triage"] = v.Triage
	}
	if len(v.Doctors) > 0 {
		data["doctors"] = v.Doctors
	}
	if len(v.Appointments) > 0 {
		data["appointments"] = v.Appointments
	}
	if len(v.SlotTimes) > 0 {
		data["available_slots"] = v.SlotTimes
	}
	if v.Booking != nil {
		data["booking"] = v.Booking
	}
	if len(data) == 0 {
		return nil
	}
	return data
}

func (s *DefaultAgentService) scheduleReminder(userID string, b *models.BookingRequest) {
	if s.Reminders == nil {
		return
	}
	when, err := time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.Time, time.Local)
	if err != nil {
		s.Logger.Warn("cannot parse booking datetime for reminder", zap.Error(err))
		return
	}
	fireAt := when.Add(-time.Hour)
	if fireAt.Before(s.Now()) {
		return
	}
	payload := models.ReminderPayload{
		UserID:     userID,
		BookingRef: b.Reference,
		DoctorName: b.DoctorName,
		Date:       b.Date,
		Time:       b.Time,
	}
	if err := s.Reminders.ScheduleReminder(payload, fireAt); err != nil {
		s.Logger.Warn("failed to schedule appointment reminder", zap.Error(err))
	}
}

// archiveTurns persists the turns past the session TTL, fire and forget.
func (s *DefaultAgentService) archiveTurns(userID string, turns ...models.Turn) {
	if s.Archive == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, t := range turns {
			if err := s.Archive.AppendTurn(ctx, userID, t); err != nil {
				s.Logger.Debug("archive append failed", zap.Error(err))
				return
			}
		}
	}()
}

// StartSession creates the session when absent, or returns the current one.
func (s *DefaultAgentService) StartSession(ctx context.Context, userID string) (*models.Session, error) {
	release := s.locks.acquire(userID)
	defer release()

	sess, err := s.Store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = models.NewSession(userID)
		if err := s.Store.Save(ctx, userID, sess); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

// GetSession returns a summary of the current session, creating one when
// absent, as the chat endpoint would.
func (s *DefaultAgentService) GetSession(ctx context.Context, userID string) (*models.SessionSummary, error) {
	sess, err := s.StartSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &models.SessionSummary{
		UserID:         sess.UserID,
		CreatedAt:      sess.CreatedAt.Format(time.RFC3339),
		LastActiveAt:   sess.LastActiveAt.Format(time.RFC3339),
		TurnCount:      len(sess.History),
		Flow:           sess.Flow,
		Slots:          sess.Slots,
		PendingBooking: sess.PendingBooking,
	}
	if s.Archive != nil {
		if count, err := s.Archive.CountByUser(ctx, userID); err == nil {
			summary.ArchivedTurns = count
		}
	}
	return summary, nil
}

// EndSession deletes the session and its archived turns.
func (s *DefaultAgentService) EndSession(ctx context.Context, userID string) error {
	release := s.locks.acquire(userID)
	defer release()

	if err := s.Store.Delete(ctx, userID); err != nil {
		return err
	}
	if s.Archive != nil {
		if err := s.Archive.DeleteByUser(ctx, userID); err != nil {
			s.Logger.Warn("failed to delete archived turns", zap.Error(err))
		}
	}
	return nil
}

// ClearHistory empties the conversation history but keeps slots, flow and
// any pending booking, so an in-flight booking survives the wipe.
func (s *DefaultAgentService) ClearHistory(ctx context.Context, userID string) error {
	release := s.locks.acquire(userID)
	defer release()

	sess, err := s.Store.Load(ctx, userID)
	if err != nil {
		return err
	}
	if sess == nil {
		return errors.New("no active session")
	}
	sess.History = nil
	return s.Store.Save(ctx, userID, sess)
}
