package onboarding

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		reason string
	}{
		{"no steps", func(c *Config) { c.Steps = nil }, "at least one step is required"},
		{"duplicate step", func(c *Config) { c.Steps[1].Name = "Roles" }, "duplicate step name"},
		{"duplicate field", func(c *Config) {
			c.Steps[6].Fields = append(c.Steps[6].Fields, FieldSchema{Name: "firstName", Kind: KindText})
		}, `already declared in step "Roles"`},
		{"unknown validator", func(c *Config) { c.Steps[0].Fields[0].Validator = "zipcode" }, `unknown validator "zipcode"`},
		{"empty option list", func(c *Config) { c.Options["hear"] = nil }, `option list "hear" is empty`},
		{"missing option list", func(c *Config) { delete(c.Options, "skills") }, `unknown option list "skills"`},
		{"text with options", func(c *Config) { c.Steps[0].Fields[0].Options = "hear" }, "text fields cannot reference an option list"},
		{"bad kind", func(c *Config) { c.Steps[0].Fields[0].Kind = "slider" }, `unknown kind "slider"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr), "want ConfigError, got %v", err)
			assert.Equal(t, tt.reason, cerr.Reason)
		})
	}
}

func TestEmptyOptionListWithoutLabel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Options["hear"] = nil
	cfg.Steps[0].Fields[2].Label = ""
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "onboarding.yaml")
	content := `steps:
  - name: Basics
    header: Start here
    fields:
      - name: email
        label: Email
        validator: email
      - name: role
        label: Role
        kind: select
        options: roles
  - name: Done
    fields: []
options:
  roles: [Engineer, Designer]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Basics", "Done"}, cfg.StepNames())

	f, ok := cfg.Field("email")
	require.True(t, ok)
	assert.Equal(t, KindText, f.Kind, "kind defaults to text")

	role, _ := cfg.Field("role")
	assert.Equal(t, []string{"Engineer", "Designer"}, cfg.OptionsFor(role))
}

func TestLoadConfigDefaultsAndErrors(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Len(t, cfg.Steps, 7)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("steps: []\n"), 0644))
	_, err = LoadConfig(bad)
	var cerr *ConfigError
	assert.True(t, errors.As(err, &cerr))
}
