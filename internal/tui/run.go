package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/elevatebox/elevatebox/internal/onboarding"
	"github.com/elevatebox/elevatebox/internal/validate"
)

const pageSize = 10

// Run walks w step by step with d. Every field of the active step is
// prompted, text inputs are blurred so their validation is recorded, and the
// wizard is advanced. Finishing the last step runs the wizard's completion
// callback. The collected submission is returned.
func Run(ctx context.Context, w *onboarding.Wizard, d PromptDriver) (onboarding.Submission, error) {
	s := onboarding.NewSession(w)

	for {
		sf := s.Form()
		pos, total := w.Progress()
		if err := d.Info(ctx, fmt.Sprintf("\n[%d/%d] %s", pos, total, sf.Step().Header)); err != nil {
			return onboarding.Submission{}, err
		}

		for _, f := range sf.Step().Fields {
			if err := promptField(ctx, w, sf, f, d); err != nil {
				return onboarding.Submission{}, err
			}
		}

		last := pos == total
		if last {
			ok, err := d.Confirm(ctx, ConfirmConfig{Name: "confirm", Message: "Submit your application?", Default: true})
			if err != nil {
				return onboarding.Submission{}, err
			}
			if !ok {
				return onboarding.Submission{}, ErrAborted
			}
		}

		err := s.Next(ctx)
		switch {
		case errors.Is(err, onboarding.ErrStepIncomplete):
			if ierr := d.Info(ctx, "Please fix the highlighted fields."); ierr != nil {
				return onboarding.Submission{}, ierr
			}
			continue
		case err != nil:
			return onboarding.Submission{}, err
		}
		if last {
			return w.Submission(), nil
		}
	}
}

func promptField(ctx context.Context, w *onboarding.Wizard, sf *onboarding.StepForm, f onboarding.FieldSchema, d PromptDriver) error {
	message := f.Label
	if f.Prefix != "" {
		message = fmt.Sprintf("%s (%s)", f.Label, f.Prefix)
	}

	if !f.IsChoice() {
		cfg := InputConfig{Name: f.Name, Message: message, Help: f.Placeholder}
		if in, ok := sf.Input(f.Name); ok {
			cfg.Default = in.Value()
		}
		if v, ok := validate.Lookup(f.Validator); ok {
			cfg.Validator = func(s string) error {
				if msg := v(s); msg != "" {
					return errors.New(msg)
				}
				return nil
			}
		}
		value, err := d.Input(ctx, cfg)
		if err != nil {
			return err
		}
		if err := sf.Change(f.Name, value); err != nil {
			return err
		}
		return sf.Blur(f.Name)
	}

	options := w.Config().OptionsFor(f)
	if len(options) == 0 {
		return nil
	}
	cfg := SelectConfig{Name: f.Name, Message: message, Options: options, Help: f.Placeholder, PageSize: pageSize}

	if f.Kind == onboarding.KindMultiSelect {
		picked, err := d.MultiSelect(ctx, cfg)
		if err != nil {
			return err
		}
		c, _ := sf.Choice(f.Name)
		for _, prev := range c.Selected() {
			if err := sf.RemoveChoice(f.Name, prev); err != nil {
				return err
			}
		}
		for _, i := range picked {
			if err := sf.SelectChoice(f.Name, options[i]); err != nil {
				return err
			}
		}
		return nil
	}

	i, err := d.Select(ctx, cfg)
	if err != nil {
		return err
	}
	if i < 0 {
		return nil
	}
	return sf.SelectChoice(f.Name, options[i])
}
