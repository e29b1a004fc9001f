// Package fieldjson holds the structured-answer prompt and parser shared by
// every generation backend.
package fieldjson

import (
	"fmt"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

const SystemPrompt = `You extract form field values from resume excerpts.
Return a strict JSON object with exactly these keys:
value (string, or null when the excerpt does not contain the answer),
confidence (number from 0 to 1),
reasoning (short string).
Never invent values that are not in the excerpts. No markdown, no extra keys.`

func BuildUserPrompt(req domain.GenerationRequest) string {
	var instruction string
	if req.Instruction != "" {
		instruction = "Instruction: " + req.Instruction + "\n"
	}
	return fmt.Sprintf(`Field key: %s
Field label: %s
Field type: %s
%s
Resume excerpts:
%s
`, req.FieldKey, req.FieldLabel, req.FieldType, instruction, req.Context)
}

// BuildPrompt joins system and user prompts for completion-style APIs.
func BuildPrompt(req domain.GenerationRequest) string {
	return SystemPrompt + "\n\n" + BuildUserPrompt(req)
}
