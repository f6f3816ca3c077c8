package models

// IntentType is the closed set of conversational intents the agent acts on.
type IntentType string

const (
	IntentGreeting          IntentType = "GREETING"
	IntentSymptomCheck      IntentType = "SYMPTOM_CHECK"
	IntentSearchDoctor      IntentType = "SEARCH_DOCTOR"
	IntentBookAppointment   IntentType = "BOOK_APPOINTMENT"
	IntentCheckAvailability IntentType = "CHECK_AVAILABILITY"
	IntentCancelPolicy      IntentType = "CANCEL_POLICY"
	IntentViewAppointments  IntentType = "VIEW_APPOINTMENTS"
	IntentFarewell          IntentType = "FAREWELL"
	IntentUnknown           IntentType = "UNKNOWN"
)

// AllIntents lists every label the classifier may return. Anything outside
// this set is coerced to UNKNOWN.
var AllIntents = []IntentType{
	IntentGreeting,
	IntentSymptomCheck,
	IntentSearchDoctor,
	IntentBookAppointment,
	IntentCheckAvailability,
	IntentCancelPolicy,
	IntentViewAppointments,
	IntentFarewell,
	IntentUnknown,
}

// IsValid reports whether t is one of the closed intent labels.
func (t IntentType) IsValid() bool {
	for _, v := range AllIntents {
		if t == v {
			return true
		}
	}
	return false
}

// Classification sources.
const (
	ClassifierSourceModel    = "model"
	ClassifierSourceFallback = "fallback-heuristic"
)

// IntentResult is the outcome of classifying one user message.
type IntentResult struct {
	Intent     IntentType        `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities,omitempty"`
	Source     string            `json:"source"`
}
