package fieldjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

type rawGeneration struct {
	Value      json.RawMessage `json:"value"`
	Answer     json.RawMessage `json:"answer"`
	Confidence json.RawMessage `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
}

// Parse decodes a model response into a Generation. Missing keys stay nil so
// callers can tell "absent" from "zero". Older prompts used "answer" instead
// of "value"; both are accepted.
func Parse(raw string) (domain.Generation, error) {
	var parsed rawGeneration
	if err := json.Unmarshal([]byte(ExtractJSONObject(raw)), &parsed); err != nil {
		return domain.Generation{}, fmt.Errorf("parse generation json: %w", err)
	}

	valueRaw := parsed.Value
	if len(valueRaw) == 0 {
		valueRaw = parsed.Answer
	}
	value, err := decodeValue(valueRaw)
	if err != nil {
		return domain.Generation{}, err
	}
	confidence, err := decodeConfidence(parsed.Confidence)
	if err != nil {
		return domain.Generation{}, err
	}

	return domain.Generation{
		Value:      value,
		Confidence: confidence,
		Reasoning:  strings.TrimSpace(parsed.Reasoning),
	}, nil
}

func decodeValue(raw json.RawMessage) (*string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s, nil
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, fmt.Sprint(item))
		}
		joined := strings.Join(parts, ", ")
		return &joined, nil
	}
	var scalar any
	if err := json.Unmarshal(raw, &scalar); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	text := fmt.Sprint(scalar)
	return &text, nil
}

func decodeConfidence(raw json.RawMessage) (*float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode confidence: %w", err)
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return nil, fmt.Errorf("decode confidence %q: %w", s, err)
	}
	if strings.HasSuffix(strings.TrimSpace(s), "%") {
		f /= 100
	}
	return &f, nil
}

// ExtractJSONObject trims prose or code fences around the first JSON object.
func ExtractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
