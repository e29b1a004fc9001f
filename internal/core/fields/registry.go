package fields

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

// Registry resolves form labels to field definitions. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	fields []domain.FieldDefinition
	index  map[string]int
}

// TemplateEntry is a field summary used for form template discovery.
type TemplateEntry struct {
	FieldName    string `json:"field_name"`
	Label        string `json:"label"`
	ExampleValue string `json:"example_value"`
	Required     bool   `json:"required"`
}

const templatesPerType = 3

func NewRegistry() *Registry {
	return newRegistry(builtinCatalog())
}

// NewRegistryWithOverrides replaces built-in entries with the same key and
// appends new ones, keeping catalog order.
func NewRegistryWithOverrides(overrides []domain.FieldDefinition) *Registry {
	fields := builtinCatalog()
	position := make(map[string]int, len(fields))
	for i, f := range fields {
		position[f.Key] = i
	}
	for _, o := range overrides {
		if i, ok := position[o.Key]; ok {
			fields[i] = o
			continue
		}
		position[o.Key] = len(fields)
		fields = append(fields, o)
	}
	return newRegistry(fields)
}

func newRegistry(fields []domain.FieldDefinition) *Registry {
	r := &Registry{
		fields: fields,
		index:  make(map[string]int, len(fields)*6),
	}
	// Aliases first, later entries winning; canonical keys and labels then
	// override any alias that collides with them.
	for i, f := range fields {
		for _, alias := range f.Aliases {
			r.index[normalizeLabel(alias)] = i
		}
	}
	for i, f := range fields {
		r.index[normalizeLabel(f.Key)] = i
		r.index[normalizeLabel(f.Label)] = i
	}
	return r
}

// Resolve never fails: unknown labels get a generic definition of type other
// whose first query is the label itself.
func (r *Registry) Resolve(label string) domain.FieldDefinition {
	if i, ok := r.index[normalizeLabel(label)]; ok {
		return cloneDefinition(r.fields[i])
	}
	return genericDefinition(label)
}

func (r *Registry) Lookup(label string) (domain.FieldDefinition, bool) {
	i, ok := r.index[normalizeLabel(label)]
	if !ok {
		return domain.FieldDefinition{}, false
	}
	return cloneDefinition(r.fields[i]), true
}

func (r *Registry) ListAll() []domain.FieldDefinition {
	out := make([]domain.FieldDefinition, len(r.fields))
	for i, f := range r.fields {
		out[i] = cloneDefinition(f)
	}
	return out
}

// cloneDefinition keeps callers from mutating the catalog through shared
// slices or the validator.
func cloneDefinition(f domain.FieldDefinition) domain.FieldDefinition {
	f.Queries = slices.Clone(f.Queries)
	f.Aliases = slices.Clone(f.Aliases)
	f.Examples = slices.Clone(f.Examples)
	if f.Validator != nil {
		v := *f.Validator
		f.Validator = &v
	}
	return f
}

func (r *Registry) Templates() map[string][]TemplateEntry {
	out := make(map[string][]TemplateEntry)
	for _, ft := range domain.AllFieldTypes() {
		for _, f := range r.fields {
			if f.Type != ft || len(out[ft.String()]) >= templatesPerType {
				continue
			}
			entry := TemplateEntry{FieldName: f.Key, Label: f.Label, Required: f.Required}
			if len(f.Examples) > 0 {
				entry.ExampleValue = f.Examples[0]
			}
			out[ft.String()] = append(out[ft.String()], entry)
		}
	}
	return out
}

// CommonFields lists the labels most forms ask for: every required field,
// then the remaining contact fields.
func (r *Registry) CommonFields() []string {
	var out []string
	for _, f := range r.fields {
		if f.Required {
			out = append(out, f.Label)
		}
	}
	for _, f := range r.fields {
		if !f.Required && f.Type == domain.FieldContact {
			out = append(out, f.Label)
		}
	}
	return out
}

func genericDefinition(label string) domain.FieldDefinition {
	label = strings.TrimSpace(label)
	queries := []string{label}
	if hint := contextualQuery(label); hint != "" {
		queries = append(queries, hint)
	}
	return domain.FieldDefinition{
		Key:     snakeCase(label),
		Label:   label,
		Type:    domain.FieldOther,
		Queries: queries,
	}
}

var sectionHints = []struct {
	terms []string
	hint  string
}{
	{[]string{"company", "employer"}, "Look in the work experience or employment history section."},
	{[]string{"title", "position", "job"}, "Look in the work experience section for job titles."},
	{[]string{"skill", "technology", "programming"}, "Look in the skills or technical competencies section."},
	{[]string{"university", "college", "school", "degree", "education"}, "Look in the education section."},
}

func contextualQuery(label string) string {
	lower := strings.ToLower(label)
	if lower == "" {
		return ""
	}
	for _, h := range sectionHints {
		for _, term := range h.terms {
			if strings.Contains(lower, term) {
				return fmt.Sprintf("What is the person's %s? %s", lower, h.hint)
			}
		}
	}
	return fmt.Sprintf("What is the person's %s? Look for this information in the resume.", lower)
}

func normalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.NewReplacer("_", " ", "-", " ").Replace(label)
	return strings.Join(strings.Fields(label), " ")
}

func snakeCase(label string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
