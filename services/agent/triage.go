package agent

import (
	"strings"

	"medibot/models"
)

// TriageDisclaimer accompanies every triage result, without exception.
const TriageDisclaimer = "This is an automated assessment and does not replace professional medical diagnosis. Please consult with a healthcare provider."

// Emergency phrases take absolute precedence over any other match.
var emergencyKeywords = []string{
	"chest pain", "difficulty breathing", "can't breathe", "cannot breathe",
	"severe bleeding", "stroke", "unconscious", "loss of consciousness",
	"seizure", "severe headache", "suicide", "overdose", "severe burn",
	"choking", "heart attack",
}

var urgentKeywords = []string{
	"high fever", "severe pain", "vomiting", "can't eat", "cannot eat",
	"severe", "acute", "worsening",
}

// specialtyTable maps symptom phrases to specialties. Longest matching
// entry wins; ties break on declaration order.
var specialtyTable = []struct {
	symptom   string
	specialty string
}{
	{"chest pain", "Cardiology"},
	{"palpitation", "Cardiology"},
	{"irregular heartbeat", "Cardiology"},
	{"shortness of breath", "Cardiology"},
	{"heart", "Cardiology"},
	{"skin", "Dermatology"},
	{"rash", "Dermatology"},
	{"acne", "Dermatology"},
	{"mole", "Dermatology"},
	{"itching", "Dermatology"},
	{"eczema", "Dermatology"},
	{"bone", "Orthopedics"},
	{"joint", "Orthopedics"},
	{"fracture", "Orthopedics"},
	{"sprain", "Orthopedics"},
	{"back pain", "Orthopedics"},
	{"knee pain", "Orthopedics"},
	{"ear", "ENT"},
	{"nose", "ENT"},
	{"throat", "ENT"},
	{"sinus", "ENT"},
	{"hearing", "ENT"},
	{"tinnitus", "ENT"},
	{"stomach", "Gastroenterology"},
	{"digestion", "Gastroenterology"},
	{"abdominal pain", "Gastroenterology"},
	{"diarrhea", "Gastroenterology"},
	{"constipation", "Gastroenterology"},
	{"headache", "Neurology"},
	{"migraine", "Neurology"},
	{"dizziness", "Neurology"},
	{"numbness", "Neurology"},
	{"tingling", "Neurology"},
	{"eye", "Ophthalmology"},
	{"vision", "Ophthalmology"},
	{"blurry", "Ophthalmology"},
	{"anxiety", "Psychiatry"},
	{"depression", "Psychiatry"},
	{"stress", "Psychiatry"},
	{"mental health", "Psychiatry"},
	{"sleep problems", "Psychiatry"},
}

// TriageEngine is a pure symptom-to-urgency classifier. Stateless; every
// call produces a fresh result.
type TriageEngine struct{}

func NewTriageEngine() *TriageEngine {
	return &TriageEngine{}
}

// Triage classifies symptom text. Precedence is strict and total: any
// emergency match wins outright, then urgent, then routine. Emergency
// results suppress booking suggestions in the composed response.
func (t *TriageEngine) Triage(symptomText string) models.TriageResult {
	lower := strings.ToLower(symptomText)

	if containsAny(lower, emergencyKeywords) {
		return models.TriageResult{
			Urgency:                   models.UrgencyEmergency,
			RecommendedSpecialty:      "Emergency Medicine",
			Advice:                    "EMERGENCY: Please call emergency services immediately or go to the nearest emergency room. Do not wait for an appointment.",
			Disclaimer:                TriageDisclaimer,
			SuppressBookingSuggestion: true,
		}
	}

	specialty := t.lookupSpecialty(lower)

	if containsAny(lower, urgentKeywords) {
		advice := "Please schedule an appointment within 24 hours."
		return models.TriageResult{
			Urgency:              models.UrgencyUrgent,
			RecommendedSpecialty: specialty,
			Advice:               advice,
			Disclaimer:           TriageDisclaimer,
		}
	}

	return models.TriageResult{
		Urgency:              models.UrgencyRoutine,
		RecommendedSpecialty: specialty,
		Advice:               "Please schedule a regular appointment to discuss your symptoms.",
		Disclaimer:           TriageDisclaimer,
	}
}

// lookupSpecialty returns the specialty of the longest matching table
// entry, or empty when nothing matches.
func (t *TriageEngine) lookupSpecialty(lower string) string {
	best := ""
	bestLen := 0
	for _, entry := range specialtyTable {
		if strings.Contains(lower, entry.symptom) && len(entry.symptom) > bestLen {
			best = entry.specialty
			bestLen = len(entry.symptom)
		}
	}
	return best
}
