package chunking

import (
	"fmt"
	"regexp"
	"strings"
)

// ContactMatch is one detected contact value.
type ContactMatch struct {
	Kind  string
	Value string
	Start int
	End   int
}

// Order matters: earlier kinds claim their spans before the website pattern runs.
var contactPatterns = []struct {
	kind    string
	pattern *regexp.Regexp
}{
	{"email", regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)},
	{"phone", regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}\b`)},
	{"linkedin", regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?linkedin\.com/in/[\w-]+/?`)},
	{"github", regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?github\.com/[\w-]+/?`)},
	{"website", regexp.MustCompile(`\b(?:https?://)?(?:www\.)?[a-z0-9-]+(?:\.[a-z0-9-]+)*\.(?:com|io|dev|net|org|me|app|co|ai)(?:/[^\s,;]*)?`)},
}

type ContactScanner struct{}

func NewContactScanner() *ContactScanner {
	return &ContactScanner{}
}

// Scan returns each distinct contact value once, at its first occurrence.
func (s *ContactScanner) Scan(text string) []ContactMatch {
	var claimed []Span
	seen := make(map[string]struct{})
	var out []ContactMatch

	for _, entry := range contactPatterns {
		for _, loc := range entry.pattern.FindAllStringIndex(text, -1) {
			span := Span{Start: loc[0], End: loc[1]}
			if overlapsAny(span, claimed) {
				continue
			}
			if entry.kind == "phone" && !plausiblePhone(text, span) {
				continue
			}
			value := strings.TrimRight(text[span.Start:span.End], "/.")
			key := entry.kind + "|" + strings.ToLower(value)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			claimed = append(claimed, span)
			out = append(out, ContactMatch{
				Kind:  entry.kind,
				Value: value,
				Start: span.Start,
				End:   span.Start + len(value),
			})
		}
	}
	return out
}

func (m ContactMatch) Text() string {
	return fmt.Sprintf("%s: %s", m.Kind, m.Value)
}

// plausiblePhone rejects phone-shaped matches cut out of longer digit runs,
// identifiers or decimals such as "1.2345678901".
func plausiblePhone(text string, span Span) bool {
	if span.Start > 0 {
		prev := text[span.Start-1]
		if isDigit(prev) || isWordByte(prev) || prev == '.' {
			return false
		}
	}
	if span.End+1 < len(text) {
		next := text[span.End]
		if (next == '.' || next == '-') && isDigit(text[span.End+1]) {
			return false
		}
	}
	match := text[span.Start:span.End]
	if rest, ok := strings.CutPrefix(match, "1."); ok && strings.Trim(rest, "0123456789") == "" {
		return false
	}
	return true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func overlapsAny(span Span, spans []Span) bool {
	for _, other := range spans {
		if span.Start < other.End && other.Start < span.End {
			return true
		}
	}
	return false
}
