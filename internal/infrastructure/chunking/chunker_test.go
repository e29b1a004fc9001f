package chunking

import (
	"sort"
	"strings"
	"testing"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

const sampleResume = `John Smith
john@x.com
555-123-4567
linkedin.com/in/johnsmith

SUMMARY
Backend engineer focused on payments.

Experience: Engineer at Acme 2019-2023
Built ledger services and on-call tooling.

EDUCATION
B.S. Computer Science, State University, 2018

Skills
Go, PostgreSQL, Kubernetes
`

func TestParseSectionsTagsHeadersAndInlineLabels(t *testing.T) {
	segments := ParseSections(sampleResume)

	got := make([]domain.Section, 0, len(segments))
	for _, s := range segments {
		got = append(got, s.Section)
	}
	want := []domain.Section{
		domain.SectionHeader,
		domain.SectionOther,
		domain.SectionExperience,
		domain.SectionEducation,
		domain.SectionSkills,
	}
	if len(got) != len(want) {
		t.Fatalf("expected sections %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("segment %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	if segments[0].Start != 0 || segments[len(segments)-1].End != len(sampleResume) {
		t.Fatalf("segments do not span the document")
	}
	for i := 1; i < len(segments); i++ {
		if segments[i].Start != segments[i-1].End {
			t.Fatalf("segments %d and %d are not contiguous", i-1, i)
		}
	}
}

func TestClassifyHeaderRejectsProse(t *testing.T) {
	cases := []string{
		"Worked on experience design for the mobile app.",
		"experience",
		"Acme Corporation",
		"",
	}
	for _, line := range cases {
		if section, ok := classifyHeader(line); ok {
			t.Fatalf("line %q classified as %s", line, section)
		}
	}
}

func TestChunkEmitsPriorityContactChunks(t *testing.T) {
	chunker := NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	chunks := chunker.Chunk("s1", sampleResume)

	var contacts []domain.Chunk
	for _, c := range chunks {
		if c.Priority {
			contacts = append(contacts, c)
		}
	}
	want := map[string]bool{
		"email: john@x.com":                   false,
		"phone: 555-123-4567":                 false,
		"linkedin: linkedin.com/in/johnsmith": false,
	}
	for _, c := range contacts {
		if c.Section != domain.SectionContact {
			t.Fatalf("priority chunk %q tagged %s", c.Text, c.Section)
		}
		if _, ok := want[c.Text]; !ok {
			t.Fatalf("unexpected contact chunk %q", c.Text)
		}
		want[c.Text] = true
		if !strings.Contains(c.Text, sampleResume[c.Start:c.End]) {
			t.Fatalf("contact offsets %d..%d do not point at the value in %q", c.Start, c.End, c.Text)
		}
	}
	for text, found := range want {
		if !found {
			t.Fatalf("missing contact chunk %q", text)
		}
	}
}

func TestChunkWindowsReconstructDocument(t *testing.T) {
	text := strings.Repeat("EXPERIENCE\nLed a team of five engineers building internal tooling. ", 40)
	chunker := NewChunker(300, 50)
	chunks := chunker.Chunk("s1", text)

	var windows []domain.Chunk
	for _, c := range chunks {
		if c.Text == "" {
			t.Fatalf("chunk %s has empty text", c.ID)
		}
		if !c.Priority {
			windows = append(windows, c)
		}
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].Start < windows[j].Start })

	var rebuilt strings.Builder
	covered := 0
	for _, c := range windows {
		if c.Text != text[c.Start:c.End] {
			t.Fatalf("chunk %s text does not match its offsets", c.ID)
		}
		if c.Start > covered {
			t.Fatalf("gap at %d..%d", covered, c.Start)
		}
		if c.End > covered {
			rebuilt.WriteString(text[covered:c.End])
			covered = c.End
		}
	}
	if rebuilt.String() != text {
		t.Fatalf("windows do not reconstruct the document")
	}
}

func TestChunkIsDeterministic(t *testing.T) {
	chunker := NewChunker(120, 20)
	first := chunker.Chunk("a", sampleResume)
	second := chunker.Chunk("b", sampleResume)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Section != second[i].Section || first[i].Start != second[i].Start || first[i].End != second[i].End {
			t.Fatalf("chunk %d differs between runs", i)
		}
		if first[i].SessionID != "a" || second[i].SessionID != "b" {
			t.Fatalf("session ids not applied")
		}
	}
}

func TestContactScannerIgnoresDigitRuns(t *testing.T) {
	scanner := NewContactScanner()

	for _, text := range []string{
		"ids 1234567890123",
		"Version 1.2345678901",
		"order #A5551234567",
		"build 555-123-4567.2",
	} {
		for _, m := range scanner.Scan(text) {
			if m.Kind == "phone" {
				t.Fatalf("Scan(%q) found phone %q", text, m.Value)
			}
		}
	}

	for text, want := range map[string]string{
		"Phone: 555-123-4567":    "555-123-4567",
		"call (555) 123-4567":    "(555) 123-4567",
		"+1 555 123 4567, daily": "+1 555 123 4567",
	} {
		var got string
		for _, m := range scanner.Scan(text) {
			if m.Kind == "phone" {
				got = m.Value
			}
		}
		if got != want {
			t.Fatalf("Scan(%q) phone = %q, want %q", text, got, want)
		}
	}
}
