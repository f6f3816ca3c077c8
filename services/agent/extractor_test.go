package agent

import (
	"testing"
	"time"

	"medibot/models"

	"github.com/stretchr/testify/assert"
)

// Reference instant: Wednesday 2026-01-28, 10:00 local.
var refNow = time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)

func TestExtractDate(t *testing.T) {
	e := NewSlotExtractor()

	cases := []struct {
		name string
		in   string
		now  time.Time
		want string
		ok   bool
	}{
		{name: "tomorrow", in: "book me for tomorrow", now: refNow, want: "2026-01-29", ok: true},
		{name: "day after tomorrow", in: "day after tomorrow works", now: refNow, want: "2026-01-30", ok: true},
		{name: "today", in: "can I come in today", now: refNow, want: "2026-01-28", ok: true},
		{name: "next week", in: "sometime next week", now: refNow, want: "2026-02-04", ok: true},
		{name: "next monday", in: "next Monday please", now: refNow, want: "2026-02-02", ok: true},
		{name: "next wednesday names today", in: "next wednesday", now: refNow, want: "2026-02-04", ok: true},
		{name: "bare friday this week", in: "friday", now: refNow, want: "2026-01-30", ok: true},
		{name: "bare wednesday while open", in: "wednesday", now: refNow, want: "2026-01-28", ok: true},
		{name: "bare wednesday after close", in: "wednesday", now: time.Date(2026, 1, 28, 19, 0, 0, 0, time.UTC), want: "2026-02-04", ok: true},
		{name: "iso date", in: "on 2026-03-15", now: refNow, want: "2026-03-15", ok: true},
		{name: "numeric day first", in: "on 15/03", now: refNow, want: "2026-03-15", ok: true},
		{name: "numeric past rolls forward", in: "on 05/01", now: refNow, want: "2027-01-05", ok: true},
		{name: "numeric with year", in: "on 15/03/2026", now: refNow, want: "2026-03-15", ok: true},
		{name: "impossible date", in: "on 31/02", now: refNow, want: "", ok: false},
		{name: "no date", in: "hello there", now: refNow, want: "", ok: false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := e.ExtractDate(c.in, c.now)
			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestExtractTime(t *testing.T) {
	e := NewSlotExtractor()

	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{name: "3pm", in: "tomorrow at 3pm", want: "15:00", ok: true},
		{name: "3:30 pm", in: "3:30 pm please", want: "15:30", ok: true},
		{name: "12pm is noon", in: "12pm", want: "12:00", ok: true},
		{name: "12am is midnight", in: "12am", want: "00:00", ok: true},
		{name: "24 hour", in: "at 15:00", want: "15:00", ok: true},
		{name: "bare hour business", in: "at 3", want: "15:00", ok: true},
		{name: "bare hour unambiguous 24h", in: "at 10", want: "10:00", ok: true},
		{name: "bare hour ambiguous", in: "at 7", want: "", ok: false},
		{name: "invalid minute", in: "at 10:79", want: "", ok: false},
		{name: "no time", in: "tomorrow please", want: "", ok: false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := e.ExtractTime(c.in)
			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestExtractSpecialty(t *testing.T) {
	e := NewSlotExtractor()

	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "I need a cardiologist", want: "Cardiology", ok: true},
		{in: "any ENT around?", want: "ENT", ok: true},
		// "ent" must not fire inside "appointment".
		{in: "book an appointment", want: "", ok: false},
		{in: "eye doctor please", want: "Ophthalmology", ok: true},
		{in: "just chatting", want: "", ok: false},
	}

	for _, c := range cases {
		got, ok := e.ExtractSpecialty(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestExtractDoctor(t *testing.T) {
	e := NewSlotExtractor()

	got, ok := e.ExtractDoctor("book with Dr. Smith", nil)
	assert.True(t, ok)
	assert.Equal(t, "Dr. Smith", got)

	got, ok = e.ExtractDoctor("dr patel if possible", nil)
	assert.False(t, ok, "lowercase surname is not a confident name match: %q", got)

	// A name surfaced by an earlier search counts as known vocabulary.
	history := []models.Turn{{
		Role:     models.RoleAgent,
		Entities: map[string]string{"doctors": "Dr. John Smith, Dr. Jane Doe"},
	}}
	got, ok = e.ExtractDoctor("the smith one", history)
	assert.True(t, ok)
	assert.Equal(t, "Dr. John Smith", got)

	_, ok = e.ExtractDoctor("someone else entirely", history)
	assert.False(t, ok)
}

func TestSearchKeyword(t *testing.T) {
	e := NewSlotExtractor()

	cases := []struct {
		in   string
		want string
	}{
		{in: "find me a cardiologist", want: "Cardiology"},
		{in: `search for "back specialist"`, want: "back specialist"},
		{in: "looking for allergies", want: "allergies"},
		{in: "find doctor", want: ""},
		{in: "show me Patel", want: "Patel"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, e.SearchKeyword(c.in), c.in)
	}
}
