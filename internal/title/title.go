// Package title implements the event-title grammar used by the school's
// calendars. A lesson booking is titled
//
//	"<Teacher> - <Instrument> <Student>[ (Ab. <N>h)]"
//
// where the optional trailing parenthetical is a payment marker recording a
// purchased bundle of N hours ("Ab." = abonament). Matching is
// case-insensitive; extracted names keep their original casing.
package title

import (
	"strings"
	"unicode"
)

// LessonFact is the structured result of parsing one lesson title.
// PaymentHours is nil when the title carries no parseable payment marker.
type LessonFact struct {
	Teacher      string `json:"teacher"`
	Instrument   string `json:"instrument"`
	Student      string `json:"student"`
	PaymentHours *int   `json:"paymentHours"`
}

// Parse extracts a LessonFact from a title, or returns nil when the title
// does not have the "<A> - <B> <C>" lesson shape. It never panics: a payment
// marker with non-numeric content is stripped from the student name and
// PaymentHours stays nil.
func Parse(t string) *LessonFact {
	sep := strings.Index(t, " - ")
	if sep < 0 {
		return nil
	}
	teacher := strings.TrimSpace(t[:sep])
	rest := strings.TrimSpace(t[sep+3:])

	// The grammar requires both an instrument token and a student phrase,
	// so there must be at least one space after the separator.
	space := strings.Index(rest, " ")
	if space < 0 {
		return nil
	}
	instrument := strings.TrimSpace(rest[:space])
	phrase := strings.TrimSpace(rest[space+1:])

	fact := &LessonFact{Teacher: teacher, Instrument: instrument}

	// A valid payment marker counts only when separated from the student by
	// a space; a marker sitting alone in the phrase slot (no student) is
	// stripped but yields no hours, matching the historical behavior.
	if i := trailingMarkerStart(phrase); i > 0 && phrase[i-1] == ' ' {
		if n, ok := parseMarker(phrase[i:]); ok {
			fact.PaymentHours = &n
			phrase = strings.TrimSpace(phrase[:i])
		}
	}

	// Strip any leftover trailing "(Ab. ...)" junk, parseable or not.
	if i := trailingMarkerStart(phrase); i >= 0 {
		phrase = strings.TrimSpace(phrase[:i])
	}

	fact.Student = phrase
	return fact
}

// HasPaymentMarker reports whether the title mentions a payment marker at
// all, parseable or not. Mirrors the loose "(ab" probe used for spotting
// payment sessions.
func HasPaymentMarker(t string) bool {
	return strings.Contains(strings.ToLower(t), "(ab")
}

// PaymentHours extracts the bundle size from the first parseable payment
// marker in the title. Returns (0, false) when no marker parses.
func PaymentHours(t string) (int, bool) {
	lower := strings.ToLower(t)
	for from := 0; ; {
		i := strings.Index(lower[from:], "(ab.")
		if i < 0 {
			return 0, false
		}
		i += from
		if n, ok := parseMarker(t[i:]); ok {
			return n, true
		}
		from = i + 1
	}
}

// trailingMarkerStart returns the index where a trailing "(Ab. ...)" segment
// begins, or -1. The segment must close the string.
func trailingMarkerStart(s string) int {
	if !strings.HasSuffix(s, ")") {
		return -1
	}
	i := strings.LastIndex(s, "(")
	if i < 0 {
		return -1
	}
	if !strings.HasPrefix(strings.ToLower(s[i:]), "(ab.") {
		return -1
	}
	return i
}

// parseMarker parses a "(Ab. <N><unit>)" segment at the start of s.
// The unit suffix (e.g. "h") is optional and ignored.
func parseMarker(s string) (int, bool) {
	if !strings.HasPrefix(strings.ToLower(s), "(ab.") {
		return 0, false
	}
	rest := s[len("(ab."):]
	rest = strings.TrimLeft(rest, " ")

	n := 0
	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		n = n*10 + int(rest[digits]-'0')
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	rest = rest[digits:]

	// Optional unit letters, then the closing paren.
	for len(rest) > 0 && unicode.IsLetter(rune(rest[0])) {
		rest = rest[1:]
	}
	if !strings.HasPrefix(rest, ")") {
		return 0, false
	}
	return n, true
}
