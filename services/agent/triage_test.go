package agent

import (
	"testing"

	"medibot/models"

	"github.com/stretchr/testify/assert"
)

func TestTriage(t *testing.T) {
	engine := NewTriageEngine()

	cases := []struct {
		name          string
		in            string
		urgency       models.UrgencyLevel
		specialty     string
		suppress      bool
		adviceKeyword string
	}{
		{
			name:          "emergency wins outright",
			in:            "I have chest pain and difficulty breathing",
			urgency:       models.UrgencyEmergency,
			specialty:     "Emergency Medicine",
			suppress:      true,
			adviceKeyword: "EMERGENCY",
		},
		{
			name:          "urgent with specialty",
			in:            "severe pain in my stomach since yesterday",
			urgency:       models.UrgencyUrgent,
			specialty:     "Gastroenterology",
			adviceKeyword: "24 hours",
		},
		{
			name:          "routine headache maps to neurology",
			in:            "I have a mild headache",
			urgency:       models.UrgencyRoutine,
			specialty:     "Neurology",
			adviceKeyword: "regular appointment",
		},
		{
			name:          "longest match beats shorter",
			in:            "I twisted my knee, the knee pain is bad",
			urgency:       models.UrgencyRoutine,
			specialty:     "Orthopedics",
			adviceKeyword: "regular appointment",
		},
		{
			name:          "unknown symptom still routine",
			in:            "I feel a bit off lately",
			urgency:       models.UrgencyRoutine,
			specialty:     "",
			adviceKeyword: "regular appointment",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := engine.Triage(c.in)
			assert.Equal(t, c.urgency, res.Urgency)
			assert.Equal(t, c.specialty, res.RecommendedSpecialty)
			assert.Equal(t, c.suppress, res.SuppressBookingSuggestion)
			assert.Contains(t, res.Advice, c.adviceKeyword)
			assert.Equal(t, TriageDisclaimer, res.Disclaimer)
		})
	}
}

func TestTriageDisclaimerAlwaysPresent(t *testing.T) {
	engine := NewTriageEngine()
	for _, in := range []string{"chest pain", "severe vomiting", "itchy rash", ""} {
		res := engine.Triage(in)
		assert.NotEmpty(t, res.Disclaimer, in)
	}
}
