package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"medibot/models"
	"medibot/services/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeScheduler struct {
	payloads []models.ReminderPayload
	fireAts  []time.Time
}

func (f *fakeScheduler) ScheduleReminder(payload models.ReminderPayload, fireAt time.Time) error {
	f.payloads = append(f.payloads, payload)
	f.fireAts = append(f.fireAts, fireAt)
	return nil
}

func newTestService(fb *fakeBackend, model TextModel) (*DefaultAgentService, *fakeScheduler) {
	logger := zap.NewNop()
	sched := &fakeScheduler{}
	extractor := NewSlotExtractor()
	svc := NewAgentService(DefaultAgentService{
		Store:      session.NewMemoryStore(time.Hour),
		Classifier: NewIntentClassifier(model, logger),
		Extractor:  extractor,
		Flow:       NewStateMachine(fb, extractor, logger),
		Triage:     NewTriageEngine(),
		Composer:   NewComposer(),
		Reminders:  sched,
		Logger:     logger,
		Now:        func() time.Time { return refNow },
	})
	return svc, sched
}

// The canonical happy path: greeting, search, booking with every slot in one
// message, confirmation. Exactly one create call reaches the backend.
func TestConversationEndToEnd(t *testing.T) {
	fb := &fakeBackend{
		doctors:   []models.DoctorInfo{drSmith},
		slots:     []models.SlotInfo{{Time: "15:00", Available: true}},
		createRef: "bk-42",
	}
	svc, sched := newTestService(fb, nil)
	ctx := context.Background()

	resp, err := svc.ProcessMessage(ctx, "u1", "Hi", "tok")
	require.NoError(t, err)
	assert.Equal(t, string(models.IntentGreeting), resp.Intent)

	resp, err = svc.ProcessMessage(ctx, "u1", "I need a cardiologist", "tok")
	require.NoError(t, err)
	assert.Equal(t, string(models.IntentSearchDoctor), resp.Intent)
	assert.Contains(t, resp.Response, "Dr. John Smith")

	resp, err = svc.ProcessMessage(ctx, "u1", "Book with Dr. Smith tomorrow at 3pm", "tok")
	require.NoError(t, err)
	assert.Equal(t, string(models.IntentBookAppointment), resp.Intent)
	assert.Contains(t, resp.Response, "2026-01-29")
	assert.Contains(t, resp.Response, "3:00 PM")
	assert.Contains(t, resp.Suggestions, "Confirm")

	resp, err = svc.ProcessMessage(ctx, "u1", "yes", "tok")
	require.NoError(t, err)
	assert.Contains(t, resp.Response, "booked")
	assert.Equal(t, 1, fb.createCalls)

	booking, ok := resp.Data["booking"].(*models.BookingRequest)
	require.True(t, ok)
	assert.Equal(t, models.BookingConfirmed, booking.Status)
	assert.Equal(t, "bk-42", booking.Reference)

	// A reminder was queued an hour ahead of the appointment.
	require.Len(t, sched.payloads, 1)
	assert.Equal(t, "bk-42", sched.payloads[0].BookingRef)
	assert.Equal(t, "2026-01-29", sched.payloads[0].Date)
}

func TestRepeatedConfirmDoesNotRebook(t *testing.T) {
	fb := &fakeBackend{
		doctors:   []models.DoctorInfo{drSmith},
		slots:     []models.SlotInfo{{Time: "15:00", Available: true}},
		createRef: "bk-42",
	}
	svc, sched := newTestService(fb, nil)
	ctx := context.Background()

	_, err := svc.ProcessMessage(ctx, "u1", "Book with Dr. Smith tomorrow at 3pm", "tok")
	require.NoError(t, err)
	_, err = svc.ProcessMessage(ctx, "u1", "yes", "tok")
	require.NoError(t, err)

	resp, err := svc.ProcessMessage(ctx, "u1", "yes", "tok")
	require.NoError(t, err)
	assert.Contains(t, resp.Response, "already booked")
	assert.Equal(t, 1, fb.createCalls)
	assert.Len(t, sched.payloads, 1, "no second reminder for the replay")
}

func TestClassifierOutageStillAnswers(t *testing.T) {
	fb := &fakeBackend{}
	model := &stubModel{err: errors.New("model down")}
	svc, _ := newTestService(fb, model)

	resp, err := svc.ProcessMessage(context.Background(), "u1", "hello there", "")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, string(models.IntentGreeting), resp.Intent)
}

func TestTriageInterruptsBookingWithoutLosingIt(t *testing.T) {
	fb := &fakeBackend{doctors: []models.DoctorInfo{drSmith}}
	svc, _ := newTestService(fb, nil)
	ctx := context.Background()

	_, err := svc.ProcessMessage(ctx, "u1", "Book with Dr. Smith tomorrow", "tok")
	require.NoError(t, err)

	resp, err := svc.ProcessMessage(ctx, "u1", "by the way I have a mild headache", "tok")
	require.NoError(t, err)
	assert.Equal(t, string(models.IntentSymptomCheck), resp.Intent)
	assert.Contains(t, resp.Response, TriageDisclaimer)

	sess, err := svc.StartSession(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.FlowBooking, sess.Flow.Kind)
	assert.Equal(t, "2026-01-29", sess.Slots[SlotDate])
}

func TestFarewellEndsSession(t *testing.T) {
	fb := &fakeBackend{}
	svc, _ := newTestService(fb, nil)
	ctx := context.Background()

	_, err := svc.ProcessMessage(ctx, "u1", "hello", "")
	require.NoError(t, err)
	_, err = svc.ProcessMessage(ctx, "u1", "goodbye", "")
	require.NoError(t, err)

	sess, err := svc.Store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, sess, "farewell deletes the session")
}

func TestSessionSurvivesReload(t *testing.T) {
	fb := &fakeBackend{doctors: []models.DoctorInfo{drSmith}}
	svc, _ := newTestService(fb, nil)
	ctx := context.Background()

	_, err := svc.ProcessMessage(ctx, "u1", "Book with Dr. Smith tomorrow at 3pm", "tok")
	require.NoError(t, err)

	sess, err := svc.Store.Load(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, models.BookingStateAwaitConfirmation, sess.Flow.State)
	assert.Equal(t, "Dr. John Smith", sess.Slots[SlotDoctor])
	assert.Equal(t, "2026-01-29", sess.Slots[SlotDate])
	assert.Equal(t, "15:00", sess.Slots[SlotTime])
	require.NotNil(t, sess.PendingBooking)
}

func TestClearHistoryKeepsBooking(t *testing.T) {
	fb := &fakeBackend{doctors: []models.DoctorInfo{drSmith}}
	svc, _ := newTestService(fb, nil)
	ctx := context.Background()

	_, err := svc.ProcessMessage(ctx, "u1", "Book with Dr. Smith tomorrow at 3pm", "tok")
	require.NoError(t, err)

	require.NoError(t, svc.ClearHistory(ctx, "u1"))

	sess, err := svc.Store.Load(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Empty(t, sess.History)
	assert.NotNil(t, sess.PendingBooking, "an in-flight booking survives the wipe")
}

func TestGetSessionSummary(t *testing.T) {
	fb := &fakeBackend{}
	svc, _ := newTestService(fb, nil)
	ctx := context.Background()

	_, err := svc.ProcessMessage(ctx, "u1", "hello", "")
	require.NoError(t, err)

	summary, err := svc.GetSession(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", summary.UserID)
	assert.Equal(t, 2, summary.TurnCount, "user turn plus agent turn")
}
