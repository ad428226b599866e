// Package onboarding implements the multi-step applicant onboarding wizard:
// the step configuration, the wizard state machine and the per-step forms
// that bind inputs and choice controls to it.
package onboarding

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/elevatebox/elevatebox/internal/validate"
)

// FieldKind selects the control used for a field.
type FieldKind string

const (
	KindText        FieldKind = "text"
	KindSelect      FieldKind = "select"
	KindMultiSelect FieldKind = "multiselect"
)

// FieldSchema describes one field of a step.
type FieldSchema struct {
	Name        string    `yaml:"name"`
	Label       string    `yaml:"label"`
	Kind        FieldKind `yaml:"kind"`
	Placeholder string    `yaml:"placeholder,omitempty"`
	Validator   string    `yaml:"validator,omitempty"` // name registered in package validate
	Options     string    `yaml:"options,omitempty"`   // key into Config.Options
	Prefix      string    `yaml:"prefix,omitempty"`    // e.g. "+91" for phone numbers
}

// IsChoice reports whether the field is rendered as a choice input.
func (f FieldSchema) IsChoice() bool {
	return f.Kind == KindSelect || f.Kind == KindMultiSelect
}

// Step is one screen of the wizard and the manifest of fields that belong to it.
type Step struct {
	Name   string        `yaml:"name"`
	Header string        `yaml:"header"`
	Fields []FieldSchema `yaml:"fields"`
}

// FieldNames returns the names of the step's fields in declaration order.
func (s Step) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Config is the complete wizard definition: the ordered steps and the static
// option lists referenced by choice fields.
type Config struct {
	Steps   []Step              `yaml:"steps"`
	Options map[string][]string `yaml:"options"`
}

// ConfigError reports an invalid wizard definition.
type ConfigError struct {
	Step   string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("onboarding: step %q field %q: %s", e.Step, e.Field, e.Reason)
	case e.Step != "":
		return fmt.Sprintf("onboarding: step %q: %s", e.Step, e.Reason)
	default:
		return "onboarding: " + e.Reason
	}
}

// Validate checks the definition for structural mistakes.
func (c *Config) Validate() error {
	if len(c.Steps) == 0 {
		return &ConfigError{Reason: "at least one step is required"}
	}

	steps := make(map[string]bool, len(c.Steps))
	fields := make(map[string]string)
	for _, step := range c.Steps {
		if step.Name == "" {
			return &ConfigError{Reason: "step name is required"}
		}
		if steps[step.Name] {
			return &ConfigError{Step: step.Name, Reason: "duplicate step name"}
		}
		steps[step.Name] = true

		for _, f := range step.Fields {
			if f.Name == "" {
				return &ConfigError{Step: step.Name, Reason: "field name is required"}
			}
			if owner, ok := fields[f.Name]; ok {
				return &ConfigError{Step: step.Name, Field: f.Name, Reason: fmt.Sprintf("already declared in step %q", owner)}
			}
			fields[f.Name] = step.Name

			if f.Validator != "" {
				if _, ok := validate.Lookup(f.Validator); !ok {
					return &ConfigError{Step: step.Name, Field: f.Name, Reason: fmt.Sprintf("unknown validator %q", f.Validator)}
				}
			}

			switch f.Kind {
			case KindText, "":
				if f.Options != "" {
					return &ConfigError{Step: step.Name, Field: f.Name, Reason: "text fields cannot reference an option list"}
				}
			case KindSelect, KindMultiSelect:
				opts, ok := c.Options[f.Options]
				if !ok {
					return &ConfigError{Step: step.Name, Field: f.Name, Reason: fmt.Sprintf("unknown option list %q", f.Options)}
				}
				if len(opts) == 0 && f.Label != "" {
					return &ConfigError{Step: step.Name, Field: f.Name, Reason: fmt.Sprintf("option list %q is empty", f.Options)}
				}
			default:
				return &ConfigError{Step: step.Name, Field: f.Name, Reason: fmt.Sprintf("unknown kind %q", f.Kind)}
			}
		}
	}
	return nil
}

// StepNames returns the step names in order.
func (c *Config) StepNames() []string {
	names := make([]string, 0, len(c.Steps))
	for _, s := range c.Steps {
		names = append(names, s.Name)
	}
	return names
}

// Field finds the schema for name.
func (c *Config) Field(name string) (FieldSchema, bool) {
	for _, step := range c.Steps {
		for _, f := range step.Fields {
			if f.Name == name {
				return f, true
			}
		}
	}
	return FieldSchema{}, false
}

// OptionsFor returns the option list of a choice field.
func (c *Config) OptionsFor(f FieldSchema) []string {
	return c.Options[f.Options]
}

// LoadConfig reads a YAML wizard definition. An empty path yields DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read onboarding config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse onboarding config: %w", err)
	}
	for i := range cfg.Steps {
		for j := range cfg.Steps[i].Fields {
			if cfg.Steps[i].Fields[j].Kind == "" {
				cfg.Steps[i].Fields[j].Kind = KindText
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
