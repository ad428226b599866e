package onboarding

import (
	"context"
	"fmt"

	"github.com/elevatebox/elevatebox/internal/form"
	"github.com/elevatebox/elevatebox/internal/validate"
)

// StepForm is the form for one step. It owns an input binding per text field
// and a choice control per choice field, and reports every change to the
// wizard.
type StepForm struct {
	step    Step
	wizard  *Wizard
	inputs  map[string]*form.Input
	choices map[string]*form.Choice
}

func newStepForm(w *Wizard, step Step) *StepForm {
	sf := &StepForm{
		step:    step,
		wizard:  w,
		inputs:  make(map[string]*form.Input),
		choices: make(map[string]*form.Choice),
	}
	for _, f := range step.Fields {
		if f.IsChoice() {
			sf.choices[f.Name] = form.NewChoice(w.cfg.OptionsFor(f), f.Kind == KindMultiSelect)
			continue
		}
		var v validate.Validator
		if f.Validator != "" {
			v, _ = validate.Lookup(f.Validator)
		}
		sf.inputs[f.Name] = form.NewInput("", v)
	}
	return sf
}

// Step returns the step definition.
func (sf *StepForm) Step() Step { return sf.step }

// Input returns the binding for a text field.
func (sf *StepForm) Input(name string) (*form.Input, bool) {
	in, ok := sf.inputs[name]
	return in, ok
}

// Choice returns the control for a choice field.
func (sf *StepForm) Choice(name string) (*form.Choice, bool) {
	c, ok := sf.choices[name]
	return c, ok
}

// Change handles typing in a text field.
func (sf *StepForm) Change(name, value string) error {
	in, ok := sf.inputs[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	in.OnChange(value)
	sf.wizard.HandleInputChange(name, in.Value(), in.Error())
	return nil
}

// Blur handles a text field losing focus.
func (sf *StepForm) Blur(name string) error {
	in, ok := sf.inputs[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	in.OnBlur()
	sf.wizard.HandleInputChange(name, in.Value(), in.Error())
	return nil
}

// ToggleChoice opens or closes a choice control.
func (sf *StepForm) ToggleChoice(name string) error {
	c, ok := sf.choices[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	c.Toggle()
	return nil
}

// SearchChoice filters a choice control.
func (sf *StepForm) SearchChoice(name, term string) error {
	c, ok := sf.choices[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	c.Search(term)
	return nil
}

// SelectChoice picks or toggles an option.
func (sf *StepForm) SelectChoice(name, option string) error {
	c, ok := sf.choices[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	c.Select(option)
	sf.wizard.HandleSelectChange(name, c.FormValue())
	return nil
}

// RemoveChoice removes a chip from a multi selection.
func (sf *StepForm) RemoveChoice(name, option string) error {
	c, ok := sf.choices[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	c.Remove(option)
	sf.wizard.HandleSelectChange(name, c.FormValue())
	return nil
}

// Session pairs a wizard with the forms of the steps visited so far, so that
// touched state and open controls survive moving back and forth.
type Session struct {
	wizard *Wizard
	forms  map[int]*StepForm
}

// NewSession wraps w.
func NewSession(w *Wizard) *Session {
	return &Session{wizard: w, forms: make(map[int]*StepForm)}
}

// Wizard returns the underlying wizard.
func (s *Session) Wizard() *Wizard { return s.wizard }

// Form returns the form of the active step.
func (s *Session) Form() *StepForm {
	i := s.wizard.Current()
	sf, ok := s.forms[i]
	if !ok {
		sf = newStepForm(s.wizard, s.wizard.cfg.Steps[i])
		s.forms[i] = sf
	}
	return sf
}

// Next advances the wizard.
func (s *Session) Next(ctx context.Context) error {
	return s.wizard.Next(ctx)
}

// Prev moves the wizard back.
func (s *Session) Prev() {
	s.wizard.Prev()
}
