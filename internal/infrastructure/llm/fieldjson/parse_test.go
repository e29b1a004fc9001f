package fieldjson

import (
	"strings"
	"testing"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

func TestParseKeepsAbsentConfidenceNil(t *testing.T) {
	gen, err := Parse("```json\n{\"value\":\"john@x.com\",\"reasoning\":\"contact line\"}\n```")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if gen.Value == nil || *gen.Value != "john@x.com" {
		t.Fatalf("unexpected value %v", gen.Value)
	}
	if gen.Confidence != nil {
		t.Fatalf("expected nil confidence, got %v", *gen.Confidence)
	}
}

func TestParseAcceptsLooseShapes(t *testing.T) {
	cases := []struct {
		raw        string
		value      string
		confidence float64
	}{
		{`{"value": 3.8, "confidence": "0.7", "reasoning": "gpa"}`, "3.8", 0.7},
		{`{"answer": "Acme", "confidence": 0.95}`, "Acme", 0.95},
		{`{"value": ["Go", "SQL"], "confidence": "90%"}`, "Go, SQL", 0.9},
	}
	for _, tc := range cases {
		gen, err := Parse(tc.raw)
		if err != nil {
			t.Fatalf("Parse(%s) error = %v", tc.raw, err)
		}
		if gen.Value == nil || *gen.Value != tc.value {
			t.Fatalf("Parse(%s) value = %v", tc.raw, gen.Value)
		}
		if gen.Confidence == nil || *gen.Confidence != tc.confidence {
			t.Fatalf("Parse(%s) confidence = %v", tc.raw, gen.Confidence)
		}
	}
}

func TestParseNullValue(t *testing.T) {
	gen, err := Parse(`{"value": null, "confidence": 0, "reasoning": "not present"}`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if gen.Value != nil {
		t.Fatalf("expected nil value")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse("I could not find it"); err == nil {
		t.Fatalf("expected error for non-json response")
	}
}

func TestBuildPromptIncludesFieldAndContext(t *testing.T) {
	prompt := BuildPrompt(domain.GenerationRequest{
		FieldKey:   "email",
		FieldLabel: "Email",
		FieldType:  domain.FieldContact,
		Context:    "email: john@x.com",
	})
	for _, want := range []string{"Field key: email", "Field type: contact", "email: john@x.com", "confidence"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "Instruction:") {
		t.Fatalf("field prompt should not carry an instruction line:\n%s", prompt)
	}
}

func TestBuildPromptIncludesQueryInstruction(t *testing.T) {
	prompt := BuildUserPrompt(domain.GenerationRequest{
		FieldKey:    "query",
		FieldLabel:  "List all technical skills",
		FieldType:   domain.FieldOther,
		Context:     "Go, PostgreSQL",
		Instruction: domain.QueryListItems.Instruction(),
	})
	if !strings.Contains(prompt, "Instruction: "+domain.QueryListItems.Instruction()) {
		t.Fatalf("prompt missing instruction:\n%s", prompt)
	}
}
