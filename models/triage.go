package models

// UrgencyLevel classifies symptom severity.
type UrgencyLevel string

const (
	UrgencyEmergency UrgencyLevel = "EMERGENCY"
	UrgencyUrgent    UrgencyLevel = "URGENT"
	UrgencyRoutine   UrgencyLevel = "ROUTINE"
)

// TriageResult is produced fresh per request and never persisted.
// Disclaimer is always set; RecommendedSpecialty may be empty when no
// lookup entry matched.
type TriageResult struct {
	Urgency                   UrgencyLevel `json:"urgency"`
	RecommendedSpecialty      string       `json:"recommended_specialty,omitempty"`
	Advice                    string       `json:"advice"`
	Disclaimer                string       `json:"disclaimer"`
	SuppressBookingSuggestion bool         `json:"-"`
}
