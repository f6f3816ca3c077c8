package agent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"medibot/models"
)

// Slot names used across the booking flow.
const (
	SlotDoctor    = "doctor"
	SlotDoctorID  = "doctor_id"
	SlotDate      = "date"
	SlotTime      = "time"
	SlotSpecialty = "specialty"
)

// Business hours used to disambiguate 12-hour clock forms.
const (
	businessOpenHour  = 9
	businessCloseHour = 18
)

// SlotExtractor resolves free-text temporal and entity expressions against a
// reference instant. Unresolvable expressions simply yield no value, so the
// state machine re-prompts instead of aborting the turn.
type SlotExtractor struct{}

func NewSlotExtractor() *SlotExtractor {
	return &SlotExtractor{}
}

// Extract pulls every recognizable slot value out of message. History is
// consulted for previously-seen doctor names.
func (e *SlotExtractor) Extract(message string, now time.Time, history []models.Turn) map[string]string {
	slots := map[string]string{}
	if date, ok := e.ExtractDate(message, now); ok {
		slots[SlotDate] = date
	}
	if t, ok := e.ExtractTime(message); ok {
		slots[SlotTime] = t
	}
	if spec, ok := e.ExtractSpecialty(message); ok {
		slots[SlotSpecialty] = spec
	}
	if doc, ok := e.ExtractDoctor(message, history); ok {
		slots[SlotDoctor] = doc
	}
	return slots
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var (
	nextWeekdayRe = regexp.MustCompile(`next\s+(sunday|monday|tuesday|wednesday|thursday|friday|saturday)`)
	bareWeekdayRe = regexp.MustCompile(`\b(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
	isoDateRe     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?\b`)
)

// ExtractDate resolves a natural-language date expression to YYYY-MM-DD.
// Weekday rules: "next <day>" is the nearest strictly-future occurrence
// (+7 when it names today); a bare weekday resolves within the coming week,
// today included while the clinic is still open, else next week.
func (e *SlotExtractor) ExtractDate(message string, now time.Time) (string, bool) {
	lower := strings.ToLower(message)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case strings.Contains(lower, "day after tomorrow"):
		return today.AddDate(0, 0, 2).Format("2006-01-02"), true
	case strings.Contains(lower, "tomorrow"):
		return today.AddDate(0, 0, 1).Format("2006-01-02"), true
	case strings.Contains(lower, "today"):
		return today.Format("2006-01-02"), true
	case strings.Contains(lower, "next week"):
		return today.AddDate(0, 0, 7).Format("2006-01-02"), true
	}

	if m := nextWeekdayRe.FindStringSubmatch(lower); m != nil {
		target := weekdays[m[1]]
		ahead := (int(target) - int(now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return today.AddDate(0, 0, ahead).Format("2006-01-02"), true
	}

	if m := bareWeekdayRe.FindStringSubmatch(lower); m != nil {
		target := weekdays[m[1]]
		ahead := (int(target) - int(now.Weekday()) + 7) % 7
		if ahead == 0 && now.Hour() >= businessCloseHour {
			ahead = 7
		}
		return today.AddDate(0, 0, ahead).Format("2006-01-02"), true
	}

	if m := isoDateRe.FindStringSubmatch(message); m != nil {
		if d, err := time.Parse("2006-01-02", m[0]); err == nil {
			return d.Format("2006-01-02"), true
		}
	}

	// Day-first numeric dates; the year defaults to the next occurrence.
	if m := numericDateRe.FindStringSubmatch(message); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
			if d.Day() == day { // reject impossible dates like 31/02
				if m[3] == "" && d.Before(today) {
					d = d.AddDate(1, 0, 0)
				}
				return d.Format("2006-01-02"), true
			}
		}
	}

	return "", false
}

var (
	clock12Re  = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	clock24Re  = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	bareHourRe = regexp.MustCompile(`(?:\bat\s+|^)\s*(\d{1,2})\s*$`)
)

// ExtractTime resolves a clock expression to HH:MM. A 12-hour form without
// am/pm resolves to the reading that falls inside business hours; when no
// such reading exists the expression is ambiguous and yields nothing.
func (e *SlotExtractor) ExtractTime(message string) (string, bool) {
	lower := strings.ToLower(message)

	if m := clock12Re.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 || minute > 59 {
			return "", false
		}
		if m[3] == "pm" && hour != 12 {
			hour += 12
		} else if m[3] == "am" && hour == 12 {
			hour = 0
		}
		return fmt.Sprintf("%02d:%02d", hour, minute), true
	}

	if m := clock24Re.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return "", false
		}
		return fmt.Sprintf("%02d:%02d", hour, minute), true
	}

	if m := bareHourRe.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		switch {
		case hour >= businessOpenHour && hour <= 23:
			// Unambiguous either as a business-hours reading or an
			// explicit 24-hour value.
			return fmt.Sprintf("%02d:00", hour), true
		case hour >= 1 && hour+12 <= businessCloseHour:
			return fmt.Sprintf("%02d:00", hour+12), true
		default:
			return "", false
		}
	}

	return "", false
}

// specialtyVocabulary maps user phrasing to canonical specialty names.
// Order matters: the first matching entry wins.
var specialtyVocabulary = []struct {
	keyword   string
	specialty string
}{
	{"cardiologist", "Cardiology"},
	{"cardiology", "Cardiology"},
	{"dermatologist", "Dermatology"},
	{"dermatology", "Dermatology"},
	{"orthopedic", "Orthopedics"},
	{"pediatrician", "Pediatrics"},
	{"pediatrics", "Pediatrics"},
	{"dentist", "Dentistry"},
	{"dental", "Dentistry"},
	{"gynecologist", "Gynecology"},
	{"neurologist", "Neurology"},
	{"neurology", "Neurology"},
	{"psychiatrist", "Psychiatry"},
	{"psychiatry", "Psychiatry"},
	{"ophthalmologist", "Ophthalmology"},
	{"eye doctor", "Ophthalmology"},
	{"gastroenterologist", "Gastroenterology"},
	{"ent", "ENT"},
	{"general practice", "General Practice"},
}

// ExtractSpecialty matches the known specialty vocabulary, case-insensitively.
func (e *SlotExtractor) ExtractSpecialty(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, entry := range specialtyVocabulary {
		if matchWord(lower, entry.keyword) {
			return entry.specialty, true
		}
	}
	return "", false
}

func matchWord(lower, keyword string) bool {
	idx := strings.Index(lower, keyword)
	if idx < 0 {
		return false
	}
	// Whole-word match so "ent" does not fire inside "appointment".
	before := idx == 0 || !isLetter(lower[idx-1])
	afterIdx := idx + len(keyword)
	after := afterIdx >= len(lower) || !isLetter(lower[afterIdx])
	return before && after
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

var doctorNameRe = regexp.MustCompile(`\b[Dd]r\.?\s+([A-Z][a-zA-Z'-]+)`)

// ExtractDoctor finds a doctor name, either a "Dr. X" mention or a name the
// conversation has already seen. Unmatched free text is not a doctor name;
// the search call handles literal keywords separately.
func (e *SlotExtractor) ExtractDoctor(message string, history []models.Turn) (string, bool) {
	if m := doctorNameRe.FindStringSubmatch(message); m != nil {
		return "Dr. " + m[1], true
	}

	// Names surfaced by earlier search results count as known vocabulary.
	lower := strings.ToLower(message)
	for i := len(history) - 1; i >= 0; i-- {
		for _, key := range []string{"doctor", "doctors"} {
			for _, name := range strings.Split(history[i].Entities[key], ",") {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				bare := strings.ToLower(strings.TrimPrefix(name, "Dr. "))
				if bare != "" && matchWord(lower, bare) {
					return name, true
				}
			}
		}
	}
	return "", false
}

var (
	quotedRe  = regexp.MustCompile(`"([^"]+)"`)
	forWordRe = regexp.MustCompile(`for\s+([a-zA-Z]+)`)
)

var keywordStopwords = map[string]bool{
	"doctor": true, "specialist": true, "find": true, "search": true,
	"need": true, "want": true, "a": true, "an": true, "the": true,
}

// SearchKeyword derives the doctor-search keyword from a message: a known
// specialty, quoted text, the word after "for", or the trailing word as a
// literal passthrough for the backend search.
func (e *SlotExtractor) SearchKeyword(message string) string {
	if spec, ok := e.ExtractSpecialty(message); ok {
		return spec
	}
	if m := quotedRe.FindStringSubmatch(message); m != nil {
		return m[1]
	}
	lower := strings.ToLower(message)
	if m := forWordRe.FindStringSubmatch(lower); m != nil && !keywordStopwords[m[1]] {
		return m[1]
	}
	words := strings.Fields(message)
	if len(words) > 0 {
		last := strings.Trim(words[len(words)-1], ".,!?")
		if !keywordStopwords[strings.ToLower(last)] {
			return last
		}
	}
	return ""
}
