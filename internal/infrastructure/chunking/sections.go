package chunking

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

const maxHeaderLen = 60

// Segment is a labelled, contiguous byte range of the document.
type Segment struct {
	Section domain.Section
	Start   int
	End     int
}

var sectionVocabulary = []struct {
	section domain.Section
	pattern *regexp.Regexp
}{
	{domain.SectionContact, regexp.MustCompile(`^(contact( information| info| details)?|personal (information|details))$`)},
	{domain.SectionExperience, regexp.MustCompile(`^((professional |work |relevant )?experience|employment( history)?|work history|career history)$`)},
	{domain.SectionEducation, regexp.MustCompile(`^(education( and training)?|academic (background|history)|qualifications)$`)},
	{domain.SectionSkills, regexp.MustCompile(`^((technical |core |key )?skills|(core )?competencies|technologies|tech stack)$`)},
	{domain.SectionOther, regexp.MustCompile(`^((professional |career )?summary|(career )?objective|profile|about( me)?|projects|certifications|awards|achievements|publications|references|languages|interests|volunteer( experience)?)$`)},
}

// ParseSections partitions text into segments at header-like lines.
// Text before the first recognised header is tagged header.
func ParseSections(text string) []Segment {
	var segments []Segment
	current := Segment{Section: domain.SectionHeader, Start: 0}

	lineStart := 0
	for lineStart < len(text) {
		lineEnd := strings.IndexByte(text[lineStart:], '\n')
		if lineEnd < 0 {
			lineEnd = len(text)
		} else {
			lineEnd += lineStart
		}

		if section, ok := classifyHeader(text[lineStart:lineEnd]); ok && lineStart > current.Start {
			current.End = lineStart
			segments = append(segments, current)
			current = Segment{Section: section, Start: lineStart}
		} else if ok {
			current.Section = section
		}
		lineStart = lineEnd + 1
	}

	current.End = len(text)
	if current.End > current.Start {
		segments = append(segments, current)
	}
	return segments
}

// classifyHeader recognises standalone headers ("WORK EXPERIENCE") and
// inline labels ("Experience: Engineer at Acme").
func classifyHeader(line string) (domain.Section, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return domain.SectionOther, false
	}

	if len(trimmed) <= maxHeaderLen && punctuationCount(trimmed) <= 1 && isHeaderCase(trimmed) {
		if section, ok := matchVocabulary(strings.TrimSuffix(trimmed, ":")); ok {
			return section, true
		}
	}

	label, _, found := strings.Cut(trimmed, ":")
	if found && len(label) <= maxHeaderLen && isHeaderCase(label) {
		return matchVocabulary(label)
	}
	return domain.SectionOther, false
}

func matchVocabulary(candidate string) (domain.Section, bool) {
	normalized := strings.Join(strings.Fields(strings.ToLower(candidate)), " ")
	normalized = strings.ReplaceAll(normalized, "&", "and")
	for _, entry := range sectionVocabulary {
		if entry.pattern.MatchString(normalized) {
			return entry.section, true
		}
	}
	return domain.SectionOther, false
}

func punctuationCount(s string) int {
	n := 0
	for _, r := range s {
		switch r {
		case '.', ',', ';', ':':
			n++
		}
	}
	return n
}

// isHeaderCase accepts ALL CAPS or Title Case text.
func isHeaderCase(s string) bool {
	allUpper := true
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				allUpper = false
			}
		}
	}
	if !hasLetter {
		return false
	}
	if allUpper {
		return true
	}

	for _, word := range strings.Fields(s) {
		switch strings.ToLower(word) {
		case "and", "of", "&", "in":
			continue
		}
		first := []rune(word)[0]
		if unicode.IsLetter(first) && !unicode.IsUpper(first) {
			return false
		}
	}
	return true
}
