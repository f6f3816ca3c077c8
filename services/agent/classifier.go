package agent

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"medibot/models"

	"go.uber.org/zap"
)

// historyWindow is how many recent turns the classifier sees for
// conversational disambiguation.
const historyWindow = 6

// IntentClassifier maps a message plus recent history to an IntentResult.
// The primary path asks the language model; any failure degrades to the
// deterministic keyword matcher. Classification never hard-fails a turn.
type IntentClassifier struct {
	model   TextModel // nil means fallback-only
	logger  *zap.Logger
	timeout time.Duration
}

// NewIntentClassifier builds a classifier. model may be nil when no API key
// is configured; every turn then uses the keyword fallback.
func NewIntentClassifier(model TextModel, logger *zap.Logger) *IntentClassifier {
	return &IntentClassifier{
		model:   model,
		logger:  logger,
		timeout: 8 * time.Second,
	}
}

type modelClassification struct {
	Intent     string            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities"`
}

// Classify returns the intent for message given the last turns of history.
func (c *IntentClassifier) Classify(ctx context.Context, message string, history []models.Turn) models.IntentResult {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	if c.model != nil {
		if res, ok := c.classifyWithModel(ctx, message, history); ok {
			return res
		}
	}
	return c.fallbackClassify(message, history)
}

func (c *IntentClassifier) classifyWithModel(ctx context.Context, message string, history []models.Turn) (models.IntentResult, bool) {
	prompt := classificationPrompt(message, history)

	// One retry with backoff, then degrade to the keyword matcher.
	var raw string
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(300 * time.Millisecond):
			case <-ctx.Done():
				return models.IntentResult{}, false
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		raw, err = c.model.GenerateContent(callCtx, prompt)
		cancel()
		if err == nil {
			break
		}
	}
	if err != nil {
		c.logger.Warn("intent classification via model failed, using fallback", zap.Error(err))
		return models.IntentResult{}, false
	}

	parsed, ok := parseClassification(raw)
	if !ok {
		c.logger.Warn("malformed classifier output, using fallback", zap.String("raw", raw))
		return models.IntentResult{}, false
	}

	intent := models.IntentType(strings.ToUpper(strings.TrimSpace(parsed.Intent)))
	if !intent.IsValid() {
		intent = models.IntentUnknown
	}
	confidence := parsed.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.9
	}
	entities := parsed.Entities
	if entities == nil {
		entities = map[string]string{}
	}
	// Drop empty entity values the model tends to echo back.
	for k, v := range entities {
		if strings.TrimSpace(v) == "" {
			delete(entities, k)
		}
	}

	return models.IntentResult{
		Intent:     intent,
		Confidence: confidence,
		Entities:   entities,
		Source:     models.ClassifierSourceModel,
	}, true
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// parseClassification accepts the model output with or without fencing.
func parseClassification(raw string) (modelClassification, bool) {
	match := jsonObjectRe.FindString(raw)
	if match == "" {
		return modelClassification{}, false
	}
	var parsed modelClassification
	if err := json.Unmarshal([]byte(match), &parsed); err != nil {
		return modelClassification{}, false
	}
	if parsed.Intent == "" {
		return modelClassification{}, false
	}
	return parsed, true
}

// Keyword tables for the deterministic fallback.
var (
	greetingWords = []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"}
	symptomWords  = []string{"pain", "fever", "sick", "symptom", "ache", "hurt", "cough", "cold", "bleeding", "dizzy", "nausea", "rash", "breathing"}
	bookingWords  = []string{"book", "appointment", "schedule", "reserve"}
	searchWords   = []string{"doctor", "specialist", "find", "search", "cardiologist", "dermatologist", "pediatrician", "dentist", "neurologist", "psychiatrist"}
	availWords    = []string{"available", "availability", "slots", "free", "open"}
	policyWords   = []string{"cancel", "refund", "policy"}
	viewWords     = []string{"my appointments", "view appointments", "upcoming appointment"}
	farewellWords = []string{"bye", "goodbye", "see you", "farewell"}
)

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// fallbackClassify is the rule-based matcher used when the model capability
// is unavailable. Lower confidence, source tagged accordingly.
func (c *IntentClassifier) fallbackClassify(message string, history []models.Turn) models.IntentResult {
	lower := strings.ToLower(message)

	intent := models.IntentUnknown
	switch {
	case containsAny(lower, farewellWords):
		intent = models.IntentFarewell
	case containsAny(lower, greetingWords):
		intent = models.IntentGreeting
	// View phrases contain "appointment" too, so they are checked before
	// the booking words.
	case containsAny(lower, viewWords):
		intent = models.IntentViewAppointments
	case containsAny(lower, bookingWords):
		intent = models.IntentBookAppointment
	case containsAny(lower, symptomWords):
		intent = models.IntentSymptomCheck
	case containsAny(lower, availWords):
		intent = models.IntentCheckAvailability
	case containsAny(lower, policyWords):
		intent = models.IntentCancelPolicy
	case containsAny(lower, searchWords):
		intent = models.IntentSearchDoctor
	}

	// A bare date or time after a search/booking turn is a booking
	// continuation, not a new query.
	if intent == models.IntentUnknown && looksLikeSlotValue(lower) && recentIntentIn(history, models.IntentSearchDoctor, models.IntentBookAppointment, models.IntentCheckAvailability) {
		intent = models.IntentBookAppointment
	}

	return models.IntentResult{
		Intent:     intent,
		Confidence: 0.4,
		Entities:   map[string]string{},
		Source:     models.ClassifierSourceFallback,
	}
}

var slotValueRe = regexp.MustCompile(`^\s*(\d{1,2}(:\d{2})?\s*(am|pm)?|today|tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday|next \w+)\s*$`)

func looksLikeSlotValue(lower string) bool {
	return slotValueRe.MatchString(lower)
}

func recentIntentIn(history []models.Turn, intents ...models.IntentType) bool {
	for i := len(history) - 1; i >= 0; i-- {
		for _, want := range intents {
			if history[i].Intent == want {
				return true
			}
		}
	}
	return false
}
