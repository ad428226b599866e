package onboarding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/elevatebox/elevatebox/internal/form"
)

var (
	// ErrStepIncomplete is returned by Next while a field of the current step
	// carries a validation error.
	ErrStepIncomplete = errors.New("onboarding: current step has invalid fields")
	// ErrUnknownField is returned when an event names a field the step does not have.
	ErrUnknownField = errors.New("onboarding: unknown field")
)

// Forward button labels.
const (
	LabelStart    = "Lets Get Started"
	LabelContinue = "save and continue"
	LabelFinish   = "Finish"
)

// Submission is the completed onboarding data handed to the completion callback.
type Submission struct {
	// Steps maps step name -> field name -> value (string or []string).
	Steps       map[string]map[string]any
	CompletedAt time.Time
}

// Document flattens the submission into a record for a document sink.
func (s Submission) Document() map[string]any {
	doc := make(map[string]any, len(s.Steps)+1)
	for step, fields := range s.Steps {
		doc[step] = fields
	}
	doc["completedAt"] = s.CompletedAt.UTC().Format(time.RFC3339)
	return doc
}

// CompleteFunc receives the submission when the last step is finished.
type CompleteFunc func(ctx context.Context, sub Submission) error

// Option configures a Wizard.
type Option func(*Wizard)

// WithOnComplete registers the callback run by Next on the last step. Without
// it, finishing the last step does nothing.
func WithOnComplete(fn CompleteFunc) Option {
	return func(w *Wizard) {
		w.onComplete = fn
	}
}

// WithStartStep starts the wizard at step i, clamped to the valid range.
func WithStartStep(i int) Option {
	return func(w *Wizard) {
		w.current = i
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Wizard) {
		if l != nil {
			w.log = l
		}
	}
}

// Wizard owns the cross-step onboarding state: the current step and every
// field's value and error.
type Wizard struct {
	mu sync.RWMutex

	cfg        *Config
	current    int
	fields     *form.Fields
	completed  bool
	onComplete CompleteFunc
	log        *zap.Logger
	now        func() time.Time
}

// New creates a wizard for cfg. The definition is validated first.
func New(cfg *Config, opts ...Option) (*Wizard, error) {
	if cfg == nil {
		return nil, &ConfigError{Reason: "config is required"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	w := &Wizard{
		cfg:    cfg,
		fields: form.NewFields(),
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	w.current = clamp(w.current, 0, len(cfg.Steps)-1)
	return w, nil
}

// Config returns the wizard definition.
func (w *Wizard) Config() *Config {
	return w.cfg
}

// Len returns the number of steps.
func (w *Wizard) Len() int {
	return len(w.cfg.Steps)
}

// Current returns the index of the active step.
func (w *Wizard) Current() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Step returns the active step.
func (w *Wizard) Step() Step {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg.Steps[w.current]
}

// Steps returns the step names in order.
func (w *Wizard) Steps() []string {
	return w.cfg.StepNames()
}

// HandleInputChange stores value and error for a text field.
func (w *Wizard) HandleInputChange(name, value, err string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fields.Set(name, form.Text(value), err)
}

// HandleSelectChange stores the value of a choice field. Choice fields carry
// no validator, so the stored error is left untouched.
func (w *Wizard) HandleSelectChange(name string, value form.Value) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fields.SetValue(name, value)
}

// CanProceed reports whether every field in the active step's manifest is
// free of errors.
func (w *Wizard) CanProceed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.canProceed()
}

func (w *Wizard) canProceed() bool {
	return !w.fields.HasErrors(w.cfg.Steps[w.current].FieldNames()...)
}

// ShowPrevious reports whether the back button is shown.
func (w *Wizard) ShowPrevious() bool {
	return w.Current() > 0
}

// Prev moves one step back, stopping at the first step.
func (w *Wizard) Prev() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = clamp(w.current-1, 0, len(w.cfg.Steps)-1)
}

// Next moves one step forward. It refuses with ErrStepIncomplete while the
// active step has errors. On the last step it runs the completion callback,
// if one is registered and has not already succeeded.
func (w *Wizard) Next(ctx context.Context) error {
	w.mu.Lock()
	if !w.canProceed() {
		w.mu.Unlock()
		return ErrStepIncomplete
	}

	last := len(w.cfg.Steps) - 1
	if w.current < last {
		w.current++
		w.mu.Unlock()
		return nil
	}

	fn := w.onComplete
	if fn == nil || w.completed {
		w.mu.Unlock()
		return nil
	}
	sub := w.submission()
	w.mu.Unlock()

	if err := fn(ctx, sub); err != nil {
		w.log.Error("onboarding completion failed", zap.Error(err))
		return fmt.Errorf("onboarding: complete: %w", err)
	}

	w.mu.Lock()
	w.completed = true
	w.mu.Unlock()
	w.log.Info("onboarding completed", zap.Int("steps", len(sub.Steps)))
	return nil
}

// Completed reports whether the completion callback has succeeded.
func (w *Wizard) Completed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.completed
}

// ForwardLabel returns the forward button text for the active step.
func (w *Wizard) ForwardLabel() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	switch {
	case w.current == len(w.cfg.Steps)-1:
		return LabelFinish
	case w.current == 0:
		return LabelStart
	default:
		return LabelContinue
	}
}

// Progress returns the 1-based position and the number of steps.
func (w *Wizard) Progress() (int, int) {
	return w.Current() + 1, w.Len()
}

// Percent returns the progress bar width in percent.
func (w *Wizard) Percent() float64 {
	pos, total := w.Progress()
	return float64(pos) / float64(total) * 100
}

// Fields returns a copy of every stored field.
func (w *Wizard) Fields() map[string]form.Field {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fields.Snapshot()
}

// Value returns the stored value of a field.
func (w *Wizard) Value(name string) form.Value {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fields.Value(name)
}

// Error returns the stored error of a field.
func (w *Wizard) Error(name string) string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fields.Error(name)
}

// Submission snapshots the data grouped by step.
func (w *Wizard) Submission() Submission {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.submission()
}

func (w *Wizard) submission() Submission {
	sub := Submission{
		Steps:       make(map[string]map[string]any, len(w.cfg.Steps)),
		CompletedAt: w.now(),
	}
	for _, step := range w.cfg.Steps {
		values := make(map[string]any)
		for _, name := range step.FieldNames() {
			if field, ok := w.fields.Get(name); ok {
				values[name] = field.Value.Interface()
			}
		}
		sub.Steps[step.Name] = values
	}
	return sub
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
