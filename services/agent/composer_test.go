package agent

import (
	"strings"
	"testing"

	"medibot/models"

	"github.com/stretchr/testify/assert"
)

func TestComposeTriageAlwaysCarriesDisclaimer(t *testing.T) {
	c := NewComposer()

	for _, urgency := range []models.UrgencyLevel{models.UrgencyEmergency, models.UrgencyUrgent, models.UrgencyRoutine} {
		tr := models.TriageResult{
			Urgency:    urgency,
			Advice:     "do the sensible thing",
			Disclaimer: TriageDisclaimer,
		}
		text, _ := c.Compose(View{Flow: models.FlowTriage, Intent: models.IntentSymptomCheck, Triage: &tr})
		assert.Contains(t, text, TriageDisclaimer, string(urgency))
	}
}

func TestComposeEmergencySuppressesBookingSuggestions(t *testing.T) {
	c := NewComposer()
	tr := models.TriageResult{
		Urgency:                   models.UrgencyEmergency,
		Advice:                    "EMERGENCY: call emergency services",
		Disclaimer:                TriageDisclaimer,
		SuppressBookingSuggestion: true,
	}

	_, suggestions := c.Compose(View{Flow: models.FlowTriage, Intent: models.IntentSymptomCheck, Triage: &tr})
	for _, s := range suggestions {
		lower := strings.ToLower(s)
		assert.NotContains(t, lower, "book")
		assert.NotContains(t, lower, "appointment")
	}
}

func TestComposeSuggestionCap(t *testing.T) {
	c := NewComposer()
	view := View{
		Flow:        models.FlowSearch,
		Intent:      models.IntentSearchDoctor,
		Keyword:     "podiatrist",
		NotFound:    true,
		Specialties: []string{"A", "B", "C", "D", "E", "F"},
	}
	_, suggestions := c.Compose(view)
	assert.LessOrEqual(t, len(suggestions), maxSuggestions)
}

func TestComposeConfirmationUses12HourClock(t *testing.T) {
	c := NewComposer()
	b := &models.BookingRequest{DoctorName: "Dr. John Smith", Date: "2026-01-29", Time: "15:00"}
	text, suggestions := c.Compose(View{
		Flow: models.FlowBooking, State: models.BookingStateAwaitConfirmation,
		Intent: models.IntentBookAppointment, Booking: b,
	})
	assert.Contains(t, text, "3:00 PM")
	assert.Contains(t, text, "Dr. John Smith")
	assert.Equal(t, []string{"Confirm", "Cancel"}, suggestions)
}

func TestComposeErrorStateOffersRetry(t *testing.T) {
	c := NewComposer()
	b := &models.BookingRequest{DoctorName: "Dr. John Smith", Date: "2026-01-29", Time: "15:00"}
	text, suggestions := c.Compose(View{
		Flow: models.FlowBooking, State: models.BookingStateError,
		Intent: models.IntentBookAppointment, Booking: b, Failure: FailureExternal,
	})
	// The generic external-failure apology wins; details are saved either way.
	assert.Contains(t, strings.ToLower(text), "try again")
	assert.NotEmpty(t, suggestions)
}

func TestFormatTime12h(t *testing.T) {
	cases := []struct{ in, want string }{
		{"00:30", "12:30 AM"},
		{"09:00", "9:00 AM"},
		{"12:00", "12:00 PM"},
		{"15:05", "3:05 PM"},
		{"15:00:00", "3:00 PM"},
		{"oddball", "oddball"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, formatTime12h(c.in), c.in)
	}
}

func TestFormatSlotTimesGroupsMorningAfternoon(t *testing.T) {
	out := formatSlotTimes([]string{"09:00", "10:30", "14:00", "16:00"})
	assert.Contains(t, out, "Morning: 9:00 AM, 10:30 AM")
	assert.Contains(t, out, "Afternoon/Evening: 2:00 PM, 4:00 PM")
}
