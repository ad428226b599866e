// Package login implements the email and password sign-in form. The form
// only checks its inputs; credentials are handed to an optional callback
// and never verified here.
package login

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/elevatebox/elevatebox/internal/form"
	"github.com/elevatebox/elevatebox/internal/validate"
)

// Field names.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

// MessageInvalid is shown after a submit with field errors.
const MessageInvalid = "Form has errors. Please correct them."

var (
	// ErrInvalid is returned by Submit while any field has an error.
	ErrInvalid = errors.New("login: form has errors")
	// ErrUnknownField is returned for names other than email and password.
	ErrUnknownField = errors.New("login: unknown field")
)

// SubmitFunc receives the values of a valid submission.
type SubmitFunc func(ctx context.Context, email, password string) error

// Option configures a Form.
type Option func(*Form)

// WithOnSubmit registers the callback run by a valid Submit.
func WithOnSubmit(fn SubmitFunc) Option {
	return func(f *Form) { f.onSubmit = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Form) {
		if l != nil {
			f.log = l
		}
	}
}

// Form binds the two inputs and keeps their values and errors in one
// field set. It is not safe for concurrent use.
type Form struct {
	inputs   map[string]*form.Input
	fields   *form.Fields
	onSubmit SubmitFunc
	log      *zap.Logger

	message   string
	submitted bool
}

// New creates an empty form.
func New(opts ...Option) *Form {
	f := &Form{
		inputs: map[string]*form.Input{
			FieldEmail:    form.NewInput("", validate.Email),
			FieldPassword: form.NewInput("", validate.Password),
		},
		fields: form.NewFields(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Form) input(name string) (*form.Input, error) {
	in, ok := f.inputs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return in, nil
}

// Change handles typing in a field.
func (f *Form) Change(name, value string) error {
	in, err := f.input(name)
	if err != nil {
		return err
	}
	in.OnChange(value)
	f.record(name, in)
	return nil
}

// Blur handles a field losing focus.
func (f *Form) Blur(name string) error {
	in, err := f.input(name)
	if err != nil {
		return err
	}
	in.OnBlur()
	f.record(name, in)
	return nil
}

func (f *Form) record(name string, in *form.Input) {
	f.fields.Set(name, form.Text(in.Value()), in.Error())
}

// Input returns the binding for name.
func (f *Form) Input(name string) (*form.Input, bool) {
	in, ok := f.inputs[name]
	return in, ok
}

// Valid reports whether no field currently has an error. Untouched fields
// count as valid until Submit touches them.
func (f *Form) Valid() bool {
	return !f.fields.HasErrors(FieldEmail, FieldPassword)
}

// Errors returns the current error of every field that has one.
func (f *Form) Errors() map[string]string {
	errs := make(map[string]string)
	for _, name := range []string{FieldEmail, FieldPassword} {
		if msg := f.fields.Error(name); msg != "" {
			errs[name] = msg
		}
	}
	return errs
}

// Submit touches both fields so their errors show, then checks the
// aggregate. With errors it returns ErrInvalid; otherwise the callback, if
// any, receives the values.
func (f *Form) Submit(ctx context.Context) error {
	for name, in := range f.inputs {
		in.OnBlur()
		f.record(name, in)
	}

	if !f.Valid() {
		f.message = MessageInvalid
		f.submitted = false
		f.log.Debug("login rejected", zap.Int("errors", len(f.Errors())))
		return ErrInvalid
	}

	f.message = ""
	email := f.inputs[FieldEmail].Value()
	if f.onSubmit != nil {
		if err := f.onSubmit(ctx, email, f.inputs[FieldPassword].Value()); err != nil {
			return fmt.Errorf("login: submit: %w", err)
		}
	}
	f.submitted = true
	f.log.Info("login submitted", zap.String("email", email))
	return nil
}

// Message is the banner text after the last submit, "" when there is none.
func (f *Form) Message() string { return f.message }

// Submitted reports whether the last submit was valid and accepted.
func (f *Form) Submitted() bool { return f.submitted }
