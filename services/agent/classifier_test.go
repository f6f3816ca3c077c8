package agent

import (
	"context"
	"errors"
	"testing"

	"medibot/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubModel struct {
	out   string
	err   error
	calls int
}

func (s *stubModel) GenerateContent(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.out, s.err
}

func TestClassifyWithModel(t *testing.T) {
	model := &stubModel{out: `{"intent":"BOOK_APPOINTMENT","confidence":0.95,"entities":{"doctor":"Smith","time":"3pm"}}`}
	c := NewIntentClassifier(model, zap.NewNop())

	res := c.Classify(context.Background(), "book me in with Smith at 3pm", nil)
	assert.Equal(t, models.IntentBookAppointment, res.Intent)
	assert.Equal(t, models.ClassifierSourceModel, res.Source)
	assert.InDelta(t, 0.95, res.Confidence, 0.001)
	assert.Equal(t, "Smith", res.Entities["doctor"])
}

func TestClassifyModelOutputFenced(t *testing.T) {
	model := &stubModel{out: "```json\n{\"intent\":\"greeting\",\"confidence\":0.8}\n```"}
	c := NewIntentClassifier(model, zap.NewNop())

	res := c.Classify(context.Background(), "hello", nil)
	assert.Equal(t, models.IntentGreeting, res.Intent)
	assert.Equal(t, models.ClassifierSourceModel, res.Source)
}

func TestClassifyUnknownLabelCoerced(t *testing.T) {
	model := &stubModel{out: `{"intent":"ORDER_PIZZA","confidence":0.9}`}
	c := NewIntentClassifier(model, zap.NewNop())

	res := c.Classify(context.Background(), "whatever", nil)
	assert.Equal(t, models.IntentUnknown, res.Intent)
	assert.Equal(t, models.ClassifierSourceModel, res.Source)
}

func TestClassifyModelFailureFallsBack(t *testing.T) {
	model := &stubModel{err: errors.New("upstream unavailable")}
	c := NewIntentClassifier(model, zap.NewNop())

	res := c.Classify(context.Background(), "I want to book an appointment", nil)
	assert.Equal(t, models.IntentBookAppointment, res.Intent)
	assert.Equal(t, models.ClassifierSourceFallback, res.Source)
	assert.Equal(t, 2, model.calls, "one retry before degrading")
}

func TestClassifyMalformedOutputFallsBack(t *testing.T) {
	model := &stubModel{out: "I think the user wants to say hi"}
	c := NewIntentClassifier(model, zap.NewNop())

	res := c.Classify(context.Background(), "hello there", nil)
	assert.Equal(t, models.IntentGreeting, res.Intent)
	assert.Equal(t, models.ClassifierSourceFallback, res.Source)
}

func TestFallbackClassify(t *testing.T) {
	c := NewIntentClassifier(nil, zap.NewNop())

	cases := []struct {
		in   string
		want models.IntentType
	}{
		{in: "hello", want: models.IntentGreeting},
		{in: "bye for now", want: models.IntentFarewell},
		{in: "book an appointment", want: models.IntentBookAppointment},
		{in: "I have a fever and a cough", want: models.IntentSymptomCheck},
		{in: "what's your cancellation policy", want: models.IntentCancelPolicy},
		{in: "show my appointments please", want: models.IntentViewAppointments},
		{in: "any slots free on friday", want: models.IntentCheckAvailability},
		{in: "find a dermatologist", want: models.IntentSearchDoctor},
		{in: "quux", want: models.IntentUnknown},
	}

	for _, tc := range cases {
		res := c.Classify(context.Background(), tc.in, nil)
		assert.Equal(t, tc.want, res.Intent, tc.in)
		assert.Equal(t, models.ClassifierSourceFallback, res.Source, tc.in)
	}
}

func TestFallbackSlotValueContinuesBooking(t *testing.T) {
	c := NewIntentClassifier(nil, zap.NewNop())
	history := []models.Turn{
		{Role: models.RoleUser, Text: "book an appointment", Intent: models.IntentBookAppointment},
	}

	res := c.Classify(context.Background(), "tomorrow", history)
	assert.Equal(t, models.IntentBookAppointment, res.Intent)

	res = c.Classify(context.Background(), "3pm", history)
	assert.Equal(t, models.IntentBookAppointment, res.Intent)

	// Without a recent search or booking turn the same text stays unknown.
	res = c.Classify(context.Background(), "tomorrow", nil)
	assert.Equal(t, models.IntentUnknown, res.Intent)
}
