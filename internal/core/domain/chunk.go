package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Section tags the part of a resume a chunk was cut from.
type Section uint8

const (
	SectionHeader Section = iota
	SectionContact
	SectionExperience
	SectionEducation
	SectionSkills
	SectionOther
)

var sectionNames = [...]string{
	SectionHeader:     "header",
	SectionContact:    "contact",
	SectionExperience: "experience",
	SectionEducation:  "education",
	SectionSkills:     "skills",
	SectionOther:      "other",
}

func (s Section) String() string {
	if int(s) < len(sectionNames) {
		return sectionNames[s]
	}
	return fmt.Sprintf("section(%d)", uint8(s))
}

func ParseSection(raw string) (Section, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for i, name := range sectionNames {
		if name == normalized {
			return Section(i), nil
		}
	}
	return SectionOther, fmt.Errorf("%w: unknown section %q", ErrInvalidInput, raw)
}

func (s Section) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Section) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSection(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Chunk is an immutable, embedded span of a session's document.
// Start and End are byte offsets into the source text. Priority contact
// chunks carry a "kind: " label before the value, so their Text is not
// source[Start:End]; the offsets still point at the value itself.
type Chunk struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Text      string    `json:"text"`
	Start     int       `json:"start"`
	End       int       `json:"end"`
	Section   Section   `json:"section"`
	Priority  bool      `json:"priority"`
	Vector    []float32 `json:"-"`
}

type ChunkSet struct {
	SessionID string  `json:"session_id"`
	Chunks    []Chunk `json:"chunks"`
}

func (s ChunkSet) Count() int {
	return len(s.Chunks)
}
