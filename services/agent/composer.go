package agent

import (
	"fmt"
	"strconv"
	"strings"

	"medibot/models"
)

// FailureKind tags what went wrong during a step, for rendering only.
type FailureKind string

const (
	FailureNone              FailureKind = ""
	FailureExternal          FailureKind = "external"
	FailureInvalidTransition FailureKind = "invalid_transition"
)

// View is everything the composer needs to render one turn. The state
// machine fills it; rendering itself performs no I/O and no mutation.
type View struct {
	Flow   models.FlowKind
	State  models.BookingState
	Intent models.IntentType

	Failure FailureKind

	Triage       *models.TriageResult
	Booking      *models.BookingRequest
	Doctors      []models.DoctorInfo
	Appointments []models.AppointmentInfo
	SlotTimes    []string
	Specialties  []string

	Keyword          string
	Date             string
	NotFound         bool
	NeedLogin        bool
	AlreadyConfirmed bool
	TimeUnavailable  bool
}

// Composer renders a View into user-facing text plus quick-reply
// suggestions. Rendering is a deterministic lookup over (flow, state,
// intent); disclaimer and suppression flags are applied last so no code
// path can drop a required disclaimer.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

const maxSuggestions = 4

// Compose renders the view.
func (c *Composer) Compose(v View) (string, []string) {
	text, suggestions := c.render(v)

	// Flags are applied after the lookup, unconditionally.
	if v.Triage != nil {
		text += "\n\n_" + v.Triage.Disclaimer + "_"
		if v.Triage.SuppressBookingSuggestion {
			suggestions = dropBookingSuggestions(suggestions)
		}
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return text, suggestions
}

func (c *Composer) render(v View) (string, []string) {
	switch {
	case v.Failure == FailureExternal:
		return "I'm sorry, I couldn't reach the clinic system just now. Everything you've told me is saved - please try again in a moment.",
			[]string{"Try again"}
	case v.Failure == FailureInvalidTransition:
		return "There's nothing waiting for a confirmation right now. Let's start over - which doctor would you like to see?",
			[]string{"Find a doctor", "Check symptoms"}
	case v.NeedLogin:
		return "To manage appointments you need to be logged in. Please log in to your account and try again.",
			[]string{"Log in"}
	}

	switch v.Intent {
	case models.IntentGreeting:
		return "Hello! I'm your medical appointment assistant. I can help you find doctors, book appointments, check symptoms, and review your bookings. How can I help today?",
			[]string{"Find a doctor", "Book appointment", "Check symptoms", "View my appointments"}
	case models.IntentSymptomCheck:
		return c.renderTriage(v)
	case models.IntentCancelPolicy:
		return "Cancellation policy: appointments cancelled more than 24 hours in advance are fully refunded. Cancellations within 24 hours may incur a fee, and no-shows are charged the full consultation fee. Rescheduling is free up to 6 hours before the appointment.",
			[]string{"View my appointments", "Book appointment"}
	case models.IntentViewAppointments:
		return c.renderAppointments(v)
	case models.IntentFarewell:
		return "Thank you for using our service. Take care and feel better soon! If you need anything else, I'm always here.",
			nil
	}

	if v.Flow == models.FlowBooking {
		return c.renderBooking(v)
	}
	if v.Flow == models.FlowSearch {
		return c.renderSearch(v)
	}

	return "I can help you book appointments, find doctors, and check symptoms. What would you like to do?",
		[]string{"Book appointment", "Find a doctor", "Check symptoms"}
}

func (c *Composer) renderTriage(v View) (string, []string) {
	t := v.Triage
	if t == nil {
		return "Could you describe your symptoms for me?", nil
	}
	var sb strings.Builder
	sb.WriteString("Symptom assessment:\n")
	fmt.Fprintf(&sb, "Urgency: %s\n", t.Urgency)
	if t.RecommendedSpecialty != "" {
		fmt.Fprintf(&sb, "Recommended specialty: %s\n", t.RecommendedSpecialty)
	}
	sb.WriteString("Advice: " + t.Advice)

	suggestions := []string{"Book appointment", "Find specialist"}
	if t.Urgency == models.UrgencyEmergency {
		suggestions = []string{"Emergency help"}
	}
	return sb.String(), suggestions
}

func (c *Composer) renderAppointments(v View) (string, []string) {
	if len(v.Appointments) == 0 {
		return "You don't have any upcoming appointments. Would you like to book one?",
			[]string{"Book appointment", "Find a doctor"}
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "You have %d appointment(s):\n", len(v.Appointments))
	for i, a := range v.Appointments {
		fmt.Fprintf(&sb, "%d. %s on %s at %s", i+1, a.DoctorName, a.Date, formatTime12h(a.Time))
		if a.Status != "" {
			fmt.Fprintf(&sb, " (%s)", strings.ToLower(a.Status))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), []string{"Book appointment", "Cancellation policy"}
}

func (c *Composer) renderSearch(v View) (string, []string) {
	if v.Failure != FailureNone {
		return c.render(View{Failure: v.Failure})
	}
	if len(v.SlotTimes) > 0 || v.Date != "" {
		if len(v.SlotTimes) == 0 {
			return fmt.Sprintf("Sorry, there are no open slots on %s. Would you like to try another date?", v.Date),
				[]string{"Tomorrow", "Day after tomorrow", "Next week"}
		}
		return fmt.Sprintf("Available times on %s:\n%s\nWhich one works for you?", v.Date, formatSlotTimes(v.SlotTimes)), nil
	}
	if v.NotFound {
		return c.renderNotFound(v)
	}
	if len(v.Doctors) == 0 {
		return "I'd be happy to help you find a doctor. Which specialty are you looking for, or do you have a doctor's name?",
			[]string{"Cardiologist", "Dermatologist", "Dentist"}
	}
	return c.renderDoctorList(v)
}

func (c *Composer) renderNotFound(v View) (string, []string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "I couldn't find any doctors for %q.", v.Keyword)
	if len(v.Specialties) > 0 {
		sb.WriteString(" Here are some available specialties:\n")
		for _, s := range limitStrings(v.Specialties, 10) {
			sb.WriteString("- " + s + "\n")
		}
		sb.WriteString("Which one would you like?")
		return sb.String(), limitStrings(v.Specialties, maxSuggestions)
	}
	sb.WriteString(" Could you try a different name or specialty?")
	return sb.String(), []string{"Browse specialties"}
}

func (c *Composer) renderDoctorList(v View) (string, []string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "I found %d doctor(s) for %q:\n", len(v.Doctors), v.Keyword)
	var suggestions []string
	for i, d := range v.Doctors {
		if i >= 5 {
			fmt.Fprintf(&sb, "...and %d more.\n", len(v.Doctors)-5)
			break
		}
		fmt.Fprintf(&sb, "%d. %s - %s", i+1, d.DisplayName(), d.Specialty)
		if d.Experience > 0 {
			fmt.Fprintf(&sb, ", %d years experience", d.Experience)
		}
		if d.ClinicName != "" {
			fmt.Fprintf(&sb, " (%s)", d.ClinicName)
		}
		sb.WriteString("\n")
		if len(suggestions) < 3 {
			suggestions = append(suggestions, "Book with "+d.DisplayName())
		}
	}
	sb.WriteString("Would you like to book an appointment with any of them?")
	return sb.String(), suggestions
}

func (c *Composer) renderBooking(v View) (string, []string) {
	switch v.State {
	case models.BookingStateAwaitDoctor:
		if v.NotFound {
			return c.renderNotFound(v)
		}
		if len(v.Doctors) > 0 {
			return c.renderDoctorList(v)
		}
		return "Which doctor would you like to see? You can give me a name or a specialty.",
			[]string{"Cardiologist", "Dermatologist", "Dentist"}

	case models.BookingStateAwaitDate:
		return "When would you like the appointment? You can say 'tomorrow', 'next Monday', or give a date.",
			[]string{"Tomorrow", "Day after tomorrow", "Next week"}

	case models.BookingStateAwaitTime:
		if v.TimeUnavailable {
			text := "That time isn't available."
			if len(v.SlotTimes) > 0 {
				text += " Open slots:\n" + formatSlotTimes(v.SlotTimes)
			}
			return text + "\nWhich time works instead?", nil
		}
		if len(v.SlotTimes) > 0 {
			return "Here are the open times:\n" + formatSlotTimes(v.SlotTimes) + "\nWhich one would you like?", nil
		}
		return "What time would you prefer? For example '3:00 PM' or '15:00'.", nil

	case models.BookingStateAwaitConfirmation:
		b := v.Booking
		return fmt.Sprintf("Let me confirm your appointment:\nDoctor: %s\nDate: %s\nTime: %s\nShall I book it?",
				b.DoctorName, b.Date, formatTime12h(b.Time)),
			[]string{"Confirm", "Cancel"}

	case models.BookingStateConfirmed:
		b := v.Booking
		if v.AlreadyConfirmed {
			return fmt.Sprintf("That appointment is already booked: %s on %s at %s. Say 'book appointment' to start a new one.",
					b.DoctorName, b.Date, formatTime12h(b.Time)),
				[]string{"View my appointments", "Book another"}
		}
		return fmt.Sprintf("Your appointment is booked!\nDoctor: %s\nDate: %s\nTime: %s\nYou'll receive a confirmation shortly, and a reminder before the visit.",
				b.DoctorName, b.Date, formatTime12h(b.Time)),
			[]string{"View my appointments", "Book another"}

	case models.BookingStateCancelled:
		return "No problem, I've cancelled that. Is there anything else I can help with?",
			[]string{"Find a doctor", "Check symptoms"}

	case models.BookingStateError:
		return "I'm sorry, the booking didn't go through - the clinic system seems unavailable. Your details are saved; just say 'confirm' to try again.",
			[]string{"Confirm", "Cancel"}
	}

	return "Let's book an appointment. Which doctor would you like to see?",
		[]string{"Find a doctor"}
}

// formatSlotTimes groups times into morning and afternoon lines, capped at
// five entries each.
func formatSlotTimes(times []string) string {
	var am, pm []string
	for _, t := range times {
		hour, err := strconv.Atoi(strings.SplitN(t, ":", 2)[0])
		if err != nil {
			continue
		}
		if hour < 12 {
			am = append(am, formatTime12h(t))
		} else {
			pm = append(pm, formatTime12h(t))
		}
	}
	var lines []string
	if len(am) > 0 {
		lines = append(lines, "Morning: "+strings.Join(limitStrings(am, 5), ", "))
	}
	if len(pm) > 0 {
		lines = append(lines, "Afternoon/Evening: "+strings.Join(limitStrings(pm, 5), ", "))
	}
	return strings.Join(lines, "\n")
}

// formatTime12h converts "HH:MM" or "HH:MM:SS" to a 12-hour display form.
func formatTime12h(t string) string {
	parts := strings.Split(t, ":")
	if len(parts) < 2 {
		return t
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return t
	}
	minute := parts[1]
	switch {
	case hour == 0:
		return "12:" + minute + " AM"
	case hour < 12:
		return fmt.Sprintf("%d:%s AM", hour, minute)
	case hour == 12:
		return "12:" + minute + " PM"
	default:
		return fmt.Sprintf("%d:%s PM", hour-12, minute)
	}
}

func limitStrings(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func dropBookingSuggestions(suggestions []string) []string {
	var out []string
	for _, s := range suggestions {
		lower := strings.ToLower(s)
		if strings.Contains(lower, "book") || strings.Contains(lower, "appointment") {
			continue
		}
		out = append(out, s)
	}
	return out
}
