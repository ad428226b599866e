package form

import "github.com/elevatebox/elevatebox/internal/validate"

// Input binds one text field to its validator. Errors are withheld until the
// field has been blurred once; from then on every change revalidates.
type Input struct {
	value     string
	touched   bool
	err       string
	validator validate.Validator
}

// InputState is the observable state of an Input.
type InputState struct {
	Value   string `json:"value"`
	Error   string `json:"error"`
	Touched bool   `json:"touched"`
}

// NewInput creates an untouched input. A nil validator never reports errors.
func NewInput(initial string, v validate.Validator) *Input {
	return &Input{value: initial, validator: v}
}

// OnChange stores the new value and revalidates if the field is touched.
func (in *Input) OnChange(value string) {
	in.value = value
	if in.touched {
		in.check()
	}
}

// OnBlur marks the field touched and revalidates the current value.
func (in *Input) OnBlur() {
	in.touched = true
	in.check()
}

func (in *Input) check() {
	if in.validator == nil {
		in.err = ""
		return
	}
	in.err = in.validator(in.value)
}

// Value returns the current value.
func (in *Input) Value() string { return in.value }

// Error returns the current error, "" when valid or not yet validated.
func (in *Input) Error() string { return in.err }

// Touched reports whether the field has lost focus at least once.
func (in *Input) Touched() bool { return in.touched }

// ShowError reports whether the error should be displayed next to the field.
func (in *Input) ShowError() bool { return in.touched && in.err != "" }

// Snapshot returns value, error and touched state together.
func (in *Input) Snapshot() InputState {
	return InputState{Value: in.value, Error: in.err, Touched: in.touched}
}
