package fields

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

type catalogFile struct {
	Fields []catalogEntry `yaml:"fields"`
}

type catalogEntry struct {
	Key       string   `yaml:"key"`
	Label     string   `yaml:"label"`
	Type      string   `yaml:"type"`
	Queries   []string `yaml:"queries"`
	Aliases   []string `yaml:"aliases"`
	Examples  []string `yaml:"examples"`
	Required  bool     `yaml:"required"`
	Validator string   `yaml:"validator"`
}

// LoadCatalogFile reads field overrides from a YAML file:
//
//	fields:
//	  - key: visa_status
//	    label: Visa Status
//	    type: other
//	    queries: ["work authorization or visa status"]
func LoadCatalogFile(path string) ([]domain.FieldDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read field catalog: %w", err)
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) ([]domain.FieldDefinition, error) {
	var file catalogFile
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse field catalog", err)
	}

	out := make([]domain.FieldDefinition, 0, len(file.Fields))
	for i, entry := range file.Fields {
		def, err := entry.toDefinition()
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, fmt.Sprintf("field catalog entry %d", i), err)
		}
		out = append(out, def)
	}
	return out, nil
}

func (e catalogEntry) toDefinition() (domain.FieldDefinition, error) {
	key := strings.TrimSpace(e.Key)
	if key == "" {
		return domain.FieldDefinition{}, fmt.Errorf("key is required")
	}
	label := strings.TrimSpace(e.Label)
	if label == "" {
		label = key
	}

	fieldType := domain.FieldOther
	if e.Type != "" {
		parsed, err := domain.ParseFieldType(e.Type)
		if err != nil {
			return domain.FieldDefinition{}, err
		}
		fieldType = parsed
	}

	var validator *domain.Validator
	if e.Validator != "" {
		validator = ValidatorByName(e.Validator)
		if validator == nil {
			return domain.FieldDefinition{}, fmt.Errorf("unknown validator %q", e.Validator)
		}
	}

	return domain.FieldDefinition{
		Key:       key,
		Label:     label,
		Type:      fieldType,
		Queries:   e.Queries,
		Aliases:   e.Aliases,
		Examples:  e.Examples,
		Required:  e.Required,
		Validator: validator,
	}, nil
}
