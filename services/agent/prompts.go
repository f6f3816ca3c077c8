package agent

import (
	"fmt"
	"strings"

	"medibot/models"
)

// classificationPrompt builds the instruction sent to the language model.
// The label set is closed; anything else the model replies is coerced to
// UNKNOWN by the classifier.
func classificationPrompt(message string, history []models.Turn) string {
	var sb strings.Builder
	sb.WriteString(`Classify the user's intent into exactly ONE of these categories:
- GREETING: greetings like hello, hi, good morning
- SYMPTOM_CHECK: describing symptoms or health issues
- SEARCH_DOCTOR: looking for doctors or specialists
- CHECK_AVAILABILITY: asking about doctor availability or open slots
- BOOK_APPOINTMENT: wanting to book or schedule an appointment, or continuing a booking already in progress (e.g. supplying a date or time)
- CANCEL_POLICY: asking about cancellation or refund policy
- VIEW_APPOINTMENTS: wanting to see their appointments
- FAREWELL: goodbye, bye, ending the conversation
- UNKNOWN: anything else

`)

	if len(history) > 0 {
		sb.WriteString("Recent conversation:\n")
		for _, t := range history {
			role := "User"
			if t.Role == models.RoleAgent {
				role = "Assistant"
			}
			fmt.Fprintf(&sb, "%s: %s\n", role, t.Text)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Current message: %q\n\n", message)
	sb.WriteString(`Respond with ONLY a JSON object, no markdown fences:
{"intent": "CATEGORY", "confidence": 0.0, "entities": {"doctor": "", "specialty": "", "date": "", "time": "", "symptom": ""}}
Omit entity keys you did not find. Confidence is your certainty between 0 and 1.`)

	return sb.String()
}
