package tui

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ScriptedDriver answers prompts from a fixed set of answers keyed by field
// name. A string answers text and single-select prompts; a list answers
// multi-select prompts. The key "confirm" answers confirmations and
// defaults to true.
type ScriptedDriver struct {
	Answers map[string]any
	Out     io.Writer

	// Infos collects every message passed to Info.
	Infos []string
}

// LoadAnswers reads a YAML answers file for a ScriptedDriver.
func LoadAnswers(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answers: %w", err)
	}
	answers := make(map[string]any)
	if err := yaml.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("failed to parse answers: %w", err)
	}
	return answers, nil
}

func (d *ScriptedDriver) text(name string) (string, bool) {
	v, ok := d.Answers[name]
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case nil:
		return "", true
	default:
		return fmt.Sprint(t), true
	}
}

func (d *ScriptedDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ans, ok := d.text(cfg.Name)
	if !ok {
		ans = cfg.Default
	}
	if cfg.Validator != nil {
		if err := cfg.Validator(ans); err != nil {
			return "", fmt.Errorf("tui: answer for %q rejected: %w", cfg.Name, err)
		}
	}
	return ans, nil
}

func (d *ScriptedDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	ans, ok := d.text(cfg.Name)
	if !ok {
		return -1, nil
	}
	i := indexOf(cfg.Options, ans)
	if i < 0 {
		return 0, fmt.Errorf("%w: %q is not an option of %q", ErrNoAnswer, ans, cfg.Name)
	}
	return i, nil
}

func (d *ScriptedDriver) MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, ok := d.Answers[cfg.Name]
	if !ok {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("tui: answer for %q must be a list", cfg.Name)
	}
	values := make([]string, 0, len(list))
	for _, v := range list {
		values = append(values, fmt.Sprint(v))
	}
	return indicesOf(cfg.Options, values), nil
}

func (d *ScriptedDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if v, ok := d.Answers["confirm"].(bool); ok {
		return v, nil
	}
	return true, nil
}

func (d *ScriptedDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.Infos = append(d.Infos, msg)
	if d.Out != nil {
		_, err := fmt.Fprintln(d.Out, msg)
		return err
	}
	return nil
}
