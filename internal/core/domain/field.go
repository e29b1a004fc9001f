package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

type FieldType uint8

const (
	FieldPersonalInfo FieldType = iota
	FieldContact
	FieldEducation
	FieldExperience
	FieldSkills
	FieldLink
	FieldOther
)

var fieldTypeNames = [...]string{
	FieldPersonalInfo: "personal_info",
	FieldContact:      "contact",
	FieldEducation:    "education",
	FieldExperience:   "experience",
	FieldSkills:       "skills",
	FieldLink:         "link",
	FieldOther:        "other",
}

func (t FieldType) String() string {
	if int(t) < len(fieldTypeNames) {
		return fieldTypeNames[t]
	}
	return fmt.Sprintf("field_type(%d)", uint8(t))
}

// IsContactLike selects the fields that get the contact-priority retrieval strategy.
func (t FieldType) IsContactLike() bool {
	switch t {
	case FieldContact, FieldPersonalInfo:
		return true
	case FieldEducation, FieldExperience, FieldSkills, FieldLink, FieldOther:
		return false
	default:
		return false
	}
}

func AllFieldTypes() []FieldType {
	return []FieldType{FieldPersonalInfo, FieldContact, FieldEducation, FieldExperience, FieldSkills, FieldLink, FieldOther}
}

func ParseFieldType(raw string) (FieldType, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for i, name := range fieldTypeNames {
		if name == normalized {
			return FieldType(i), nil
		}
	}
	return FieldOther, fmt.Errorf("%w: unknown field type %q", ErrInvalidInput, raw)
}

func (t FieldType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *FieldType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseFieldType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Validator checks an extracted value for a field.
type Validator struct {
	Name    string
	Pattern *regexp.Regexp
}

func (v *Validator) Valid(value string) bool {
	if v == nil || v.Pattern == nil {
		return true
	}
	return v.Pattern.MatchString(strings.TrimSpace(value))
}

// FieldDefinition describes one extractable form attribute.
// Queries holds fallback query strings in priority order; the label is always the primary query.
type FieldDefinition struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Type      FieldType  `json:"field_type"`
	Queries   []string   `json:"queries"`
	Aliases   []string   `json:"aliases,omitempty"`
	Examples  []string   `json:"examples,omitempty"`
	Required  bool       `json:"required"`
	Validator *Validator `json:"-"`
}

// QueryVariants returns the label followed by each distinct fallback query.
func (d FieldDefinition) QueryVariants() []string {
	seen := make(map[string]struct{}, len(d.Queries)+1)
	out := make([]string, 0, len(d.Queries)+1)
	for _, q := range append([]string{d.Label}, d.Queries...) {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
	}
	return out
}
