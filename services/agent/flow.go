package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"medibot/models"
	"medibot/services/backend"

	"go.uber.org/zap"
)

// StateMachine owns the per-intent flows and decides the next state given
// session state, the classified intent and the extracted slots. Booking is
// the only multi-step flow; search, triage and history are single-turn.
type StateMachine struct {
	backend   backend.Client
	extractor *SlotExtractor
	logger    *zap.Logger
}

func NewStateMachine(client backend.Client, extractor *SlotExtractor, logger *zap.Logger) *StateMachine {
	return &StateMachine{backend: client, extractor: extractor, logger: logger}
}

var affirmativeWords = []string{"yes", "yeah", "yep", "confirm", "sure", "ok", "okay", "go ahead", "proceed"}
var cancelWords = []string{"cancel", "stop", "never mind", "nevermind", "forget it", "abort"}

func isAffirmative(message string) bool {
	lower := strings.ToLower(strings.Trim(message, " .,!?"))
	for _, w := range affirmativeWords {
		if lower == w || strings.HasPrefix(lower, w+" ") {
			return true
		}
	}
	return false
}

func isCancellation(message string) bool {
	return containsAny(strings.ToLower(message), cancelWords)
}

// bookingSlotOrder is the fixed order in which missing slots are prompted.
var bookingSlotOrder = []struct {
	slot  string
	state models.BookingState
}{
	{SlotDoctor, models.BookingStateAwaitDoctor},
	{SlotDate, models.BookingStateAwaitDate},
	{SlotTime, models.BookingStateAwaitTime},
}

// StepBooking advances the booking flow by one turn. Slots extracted this
// turn are merged eagerly regardless of which state prompted them, so a
// user may supply date and time before naming a doctor.
func (m *StateMachine) StepBooking(ctx context.Context, sess *models.Session, res models.IntentResult, message string, now time.Time, token string) View {
	// A replayed confirmation after success is answered idempotently,
	// without touching the backend or the completed booking.
	if sess.Flow.Kind == models.FlowBooking && sess.Flow.State == models.BookingStateConfirmed &&
		sess.PendingBooking != nil && isAffirmative(message) {
		return View{Flow: models.FlowBooking, State: models.BookingStateConfirmed, Intent: res.Intent, Booking: sess.PendingBooking, AlreadyConfirmed: true}
	}

	// Confirmed and Cancelled are terminal; a new booking starts fresh.
	if sess.Flow.Kind == models.FlowBooking &&
		(sess.Flow.State == models.BookingStateConfirmed || sess.Flow.State == models.BookingStateCancelled) {
		sess.ResetFlow()
	}
	if sess.Flow.Kind != models.FlowBooking {
		sess.Flow = models.FlowState{Kind: models.FlowBooking, State: models.BookingStateStart}
	}

	if isCancellation(message) {
		sess.ResetFlow()
		sess.Flow = models.FlowState{Kind: models.FlowBooking, State: models.BookingStateCancelled}
		return View{Flow: models.FlowBooking, State: models.BookingStateCancelled, Intent: res.Intent}
	}

	m.mergeSlots(sess, res, message, now)

	// An affirmative at AwaitConfirmation triggers the backend calls; an
	// affirmative anywhere else is an invalid transition handled below.
	if isAffirmative(message) {
		if sess.Flow.State == models.BookingStateAwaitConfirmation && sess.PendingBooking != nil {
			return m.confirmBooking(ctx, sess, res, token)
		}
		if sess.PendingBooking == nil && len(sess.Slots) == 0 {
			// Confirmation with nothing pending: reset to the last
			// well-defined state and say so.
			sess.Flow.State = models.BookingStateAwaitDoctor
			return View{Flow: models.FlowBooking, State: sess.Flow.State, Intent: res.Intent, Failure: FailureInvalidTransition}
		}
	}

	return m.advance(ctx, sess, res, message, token)
}

// mergeSlots merges this turn's extracted slots into the session, model
// entities first, deterministic extraction on top.
func (m *StateMachine) mergeSlots(sess *models.Session, res models.IntentResult, message string, now time.Time) {
	if sess.Slots == nil {
		sess.Slots = map[string]string{}
	}

	if res.Source == models.ClassifierSourceModel {
		for key, raw := range res.Entities {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			switch key {
			case SlotDoctor:
				sess.Slots[SlotDoctor] = normalizeDoctorName(raw)
				delete(sess.Slots, SlotDoctorID)
			case SlotSpecialty:
				sess.Slots[SlotSpecialty] = raw
			case SlotDate:
				// Model entities arrive as free text; normalize through
				// the extractor so the flow only ever sees ISO dates.
				if date, ok := m.extractor.ExtractDate(raw, now); ok {
					sess.Slots[SlotDate] = date
				}
			case SlotTime:
				if t, ok := m.extractor.ExtractTime(raw); ok {
					sess.Slots[SlotTime] = t
				}
			}
		}
	}

	for key, value := range m.extractor.Extract(message, now, sess.History) {
		if key == SlotDoctor && sess.Slots[SlotDoctor] != value {
			delete(sess.Slots, SlotDoctorID)
		}
		sess.Slots[key] = value
	}
}

func normalizeDoctorName(raw string) string {
	if strings.HasPrefix(strings.ToLower(raw), "dr") {
		return raw
	}
	return "Dr. " + raw
}

// advance moves to the first state, in fixed order, whose required slot is
// still missing; with everything present the flow reaches AwaitConfirmation.
func (m *StateMachine) advance(ctx context.Context, sess *models.Session, res models.IntentResult, message string, token string) View {
	for _, step := range bookingSlotOrder {
		if sess.Slots[step.slot] != "" {
			continue
		}
		if step.slot == SlotDoctor {
			// A specialty or free-text keyword can seed a doctor search
			// even before a concrete doctor is chosen.
			if keyword := m.doctorKeyword(sess, message); keyword != "" {
				return m.presentDoctorChoices(ctx, sess, res, keyword)
			}
		}
		sess.Flow.State = step.state
		view := View{Flow: models.FlowBooking, State: step.state, Intent: res.Intent, Booking: sess.PendingBooking}
		if step.slot == SlotTime {
			view.SlotTimes = m.availableTimes(ctx, sess)
		}
		return view
	}

	if sess.Slots[SlotDoctorID] == "" {
		if view, ok := m.resolveDoctor(ctx, sess, res); !ok {
			return view
		}
	}

	// All required slots present: build or overwrite the single pending
	// booking and ask for confirmation.
	sess.PendingBooking = &models.BookingRequest{
		DoctorID:   sess.Slots[SlotDoctorID],
		DoctorName: sess.Slots[SlotDoctor],
		Date:       sess.Slots[SlotDate],
		Time:       sess.Slots[SlotTime],
		Status:     models.BookingAwaitingConfirmation,
	}
	sess.Flow.State = models.BookingStateAwaitConfirmation
	return View{Flow: models.FlowBooking, State: sess.Flow.State, Intent: res.Intent, Booking: sess.PendingBooking}
}

// doctorKeyword returns a search keyword when the turn carries one. Free
// text only counts as a keyword when the user was just asked for a doctor;
// on other turns it is usually a date or time, not a name.
func (m *StateMachine) doctorKeyword(sess *models.Session, message string) string {
	if spec := sess.Slots[SlotSpecialty]; spec != "" {
		return spec
	}
	if sess.Flow.State == models.BookingStateAwaitDoctor {
		return m.extractor.SearchKeyword(message)
	}
	return ""
}

// presentDoctorChoices runs a doctor search and renders the options.
func (m *StateMachine) presentDoctorChoices(ctx context.Context, sess *models.Session, res models.IntentResult, keyword string) View {
	sess.Flow.State = models.BookingStateAwaitDoctor
	doctors, err := m.backend.SearchDoctors(ctx, keyword)
	if errors.Is(err, backend.ErrNotFound) || (err == nil && len(doctors) == 0) {
		specialties, specErr := m.backend.GetSpecialties(ctx)
		if specErr != nil {
			m.logger.Warn("specialty lookup failed", zap.Error(specErr))
		}
		return View{Flow: models.FlowBooking, State: sess.Flow.State, Intent: res.Intent, Keyword: keyword, Specialties: specialties, NotFound: true}
	}
	if err != nil {
		m.logger.Warn("doctor search failed", zap.String("keyword", keyword), zap.Error(err))
		return View{Flow: models.FlowBooking, State: sess.Flow.State, Intent: res.Intent, Failure: FailureExternal}
	}
	return View{Flow: models.FlowBooking, State: sess.Flow.State, Intent: res.Intent, Keyword: keyword, Doctors: doctors}
}

// resolveDoctor turns the doctor-name slot into a backend doctor id. The
// second return is false when the flow cannot proceed this turn.
func (m *StateMachine) resolveDoctor(ctx context.Context, sess *models.Session, res models.IntentResult) (View, bool) {
	name := strings.TrimPrefix(sess.Slots[SlotDoctor], "Dr. ")
	doctors, err := m.backend.SearchDoctors(ctx, name)
	if errors.Is(err, backend.ErrNotFound) || (err == nil && len(doctors) == 0) {
		delete(sess.Slots, SlotDoctor)
		sess.Flow.State = models.BookingStateAwaitDoctor
		return View{Flow: models.FlowBooking, State: sess.Flow.State, Intent: res.Intent, Keyword: name, NotFound: true}, false
	}
	if err != nil {
		m.logger.Warn("doctor resolution failed", zap.String("name", name), zap.Error(err))
		return View{Flow: models.FlowBooking, State: sess.Flow.State, Intent: res.Intent, Failure: FailureExternal}, false
	}
	sess.Slots[SlotDoctorID] = doctors[0].DoctorID
	sess.Slots[SlotDoctor] = doctors[0].DisplayName()
	return View{}, true
}

// availableTimes fetches the open slots to suggest; a failure here only
// costs the suggestions, never the turn.
func (m *StateMachine) availableTimes(ctx context.Context, sess *models.Session) []string {
	doctorID := sess.Slots[SlotDoctorID]
	date := sess.Slots[SlotDate]
	if doctorID == "" || date == "" {
		return nil
	}
	slots, err := m.backend.GetAvailability(ctx, doctorID, date)
	if err != nil {
		m.logger.Debug("availability lookup for suggestions failed", zap.Error(err))
		return nil
	}
	var times []string
	for _, s := range slots {
		if s.Available {
			times = append(times, s.Time)
		}
	}
	return times
}

// confirmBooking performs the availability check and the create call.
// Replaying an already-confirmed booking is answered without a backend
// call; failures keep every slot so the user is never re-prompted.
func (m *StateMachine) confirmBooking(ctx context.Context, sess *models.Session, res models.IntentResult, token string) View {
	pending := sess.PendingBooking

	if pending.Status == models.BookingConfirmed {
		sess.Flow.State = models.BookingStateConfirmed
		return View{Flow: models.FlowBooking, State: sess.Flow.State, Intent: res.Intent, Booking: pending, AlreadyConfirmed: true}
	}

	if token == "" {
		return View{Flow: models.FlowBooking, State: sess.Flow.State, Intent: res.Intent, Booking: pending, NeedLogin: true}
	}

	slots, err := m.backend.GetAvailability(ctx, pending.DoctorID, pending.Date)
	if err != nil {
		return m.bookingError(sess, res, err)
	}
	if !timeIsAvailable(slots, pending.Time) {
		delete(sess.Slots, SlotTime)
		pending.Time = ""
		sess.Flow.State = models.BookingStateAwaitTime
		view := View{Flow: models.FlowBooking, State: sess.Flow.State, Intent: res.Intent, Booking: pending, TimeUnavailable: true}
		for _, s := range slots {
			if s.Available {
				view.SlotTimes = append(view.SlotTimes, s.Time)
			}
		}
		return view
	}

	ref, err := m.backend.CreateBooking(ctx, *pending, sess.UserID, token)
	if err != nil {
		return m.bookingError(sess, res, err)
	}

	pending.Status = models.BookingConfirmed
	pending.Reference = ref
	sess.Flow.State = models.BookingStateConfirmed
	return View{Flow: models.FlowBooking, State: sess.Flow.State, Intent: res.Intent, Booking: pending}
}

// bookingError renders the Error state. The flow itself stays at
// AwaitConfirmation with the booking and slots preserved, so the next
// affirmative retries instead of re-collecting anything.
func (m *StateMachine) bookingError(sess *models.Session, res models.IntentResult, err error) View {
	m.logger.Warn("booking backend call failed", zap.Error(err))
	sess.PendingBooking.Status = models.BookingAwaitingConfirmation
	sess.Flow.State = models.BookingStateAwaitConfirmation
	return View{Flow: models.FlowBooking, State: models.BookingStateError, Intent: res.Intent, Booking: sess.PendingBooking, Failure: FailureExternal}
}

func timeIsAvailable(slots []models.SlotInfo, t string) bool {
	if len(slots) == 0 {
		// Backends without slot granularity report nothing; treat the
		// requested time as bookable and let the create call decide.
		return true
	}
	for _, s := range slots {
		if s.Available && strings.HasPrefix(s.Time, t) {
			return true
		}
	}
	return false
}

// SearchDoctors is the single-turn doctor search flow.
func (m *StateMachine) SearchDoctors(ctx context.Context, sess *models.Session, res models.IntentResult, message string) View {
	keyword := m.extractor.SearchKeyword(message)
	if keyword == "" {
		if spec := res.Entities[SlotSpecialty]; spec != "" {
			keyword = spec
		}
	}
	if keyword == "" {
		return View{Flow: models.FlowSearch, Intent: res.Intent, NotFound: false}
	}

	doctors, err := m.backend.SearchDoctors(ctx, keyword)
	if errors.Is(err, backend.ErrNotFound) || (err == nil && len(doctors) == 0) {
		specialties, specErr := m.backend.GetSpecialties(ctx)
		if specErr != nil {
			m.logger.Warn("specialty lookup failed", zap.Error(specErr))
		}
		return View{Flow: models.FlowSearch, Intent: res.Intent, Keyword: keyword, Specialties: specialties, NotFound: true}
	}
	if err != nil {
		m.logger.Warn("doctor search failed", zap.String("keyword", keyword), zap.Error(err))
		return View{Flow: models.FlowSearch, Intent: res.Intent, Failure: FailureExternal}
	}
	return View{Flow: models.FlowSearch, Intent: res.Intent, Keyword: keyword, Doctors: doctors}
}

// CheckAvailability answers an availability question when the conversation
// already pins down a doctor and date; otherwise it routes into booking so
// the missing slots get prompted.
func (m *StateMachine) CheckAvailability(ctx context.Context, sess *models.Session, res models.IntentResult, message string, now time.Time, token string) View {
	m.mergeSlots(sess, res, message, now)
	doctorID := sess.Slots[SlotDoctorID]
	date := sess.Slots[SlotDate]
	if doctorID == "" || date == "" {
		return m.StepBooking(ctx, sess, res, message, now, token)
	}

	slots, err := m.backend.GetAvailability(ctx, doctorID, date)
	if err != nil {
		m.logger.Warn("availability check failed", zap.Error(err))
		return View{Flow: models.FlowSearch, Intent: res.Intent, Failure: FailureExternal}
	}
	view := View{Flow: models.FlowSearch, Intent: res.Intent, Date: date}
	for _, s := range slots {
		if s.Available {
			view.SlotTimes = append(view.SlotTimes, s.Time)
		}
	}
	return view
}

// ViewAppointments lists the user's bookings from the backend.
func (m *StateMachine) ViewAppointments(ctx context.Context, sess *models.Session, res models.IntentResult, token string) View {
	if token == "" {
		return View{Flow: models.FlowNone, Intent: res.Intent, NeedLogin: true}
	}
	appts, err := m.backend.ListBookings(ctx, sess.UserID, token)
	if errors.Is(err, backend.ErrNotFound) {
		return View{Flow: models.FlowNone, Intent: res.Intent}
	}
	if err != nil {
		m.logger.Warn("list bookings failed", zap.Error(err))
		return View{Flow: models.FlowNone, Intent: res.Intent, Failure: FailureExternal}
	}
	return View{Flow: models.FlowNone, Intent: res.Intent, Appointments: appts}
}
