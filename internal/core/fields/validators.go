package fields

import (
	"regexp"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

var validators = map[string]*domain.Validator{
	"email":    {Name: "email", Pattern: regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)},
	"phone":    {Name: "phone", Pattern: regexp.MustCompile(`^(?:\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}$`)},
	"url":      {Name: "url", Pattern: regexp.MustCompile(`^(?i)(?:https?://)?(?:www\.)?[a-z0-9-]+(?:\.[a-z0-9-]+)+(?:/\S*)?$`)},
	"linkedin": {Name: "linkedin", Pattern: regexp.MustCompile(`^(?i)(?:https?://)?(?:www\.)?linkedin\.com/in/[\w-]+/?$`)},
	"github":   {Name: "github", Pattern: regexp.MustCompile(`^(?i)(?:https?://)?(?:www\.)?github\.com/[\w-]+/?$`)},
	"year":     {Name: "year", Pattern: regexp.MustCompile(`^(19|20)\d{2}$`)},
	"gpa":      {Name: "gpa", Pattern: regexp.MustCompile(`^[0-4](\.\d{1,2})?(\s*/\s*4(\.0{1,2})?)?$`)},
	"zip":      {Name: "zip", Pattern: regexp.MustCompile(`^(\d{5}(-\d{4})?|[A-Za-z]\d[A-Za-z] ?\d[A-Za-z]\d)$`)},
}

// ValidatorByName returns nil for unknown names.
func ValidatorByName(name string) *domain.Validator {
	return validators[name]
}
