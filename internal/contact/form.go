// Package contact implements the site contact form: a single step form that
// ends in one document write and a timed status reset.
package contact

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/elevatebox/elevatebox/internal/store"
)

// Status of the last submission.
type Status int

const (
	StatusError   Status = -1
	StatusIdle    Status = 0
	StatusSuccess Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusError:
		return "error"
	case StatusSuccess:
		return "success"
	default:
		return "idle"
	}
}

// Messages shown on the submit control.
const (
	MessageDefault = "Send Message"
	MessageInvalid = "Please provide all values correctly"
	MessageSuccess = "We will get back to you soon"
	MessageFailure = "Something went wrong. Please try again later"
)

// Default collection and reset delays.
const (
	DefaultCollection   = "contacts"
	DefaultErrorReset   = 1000 * time.Millisecond
	DefaultSuccessReset = 2500 * time.Millisecond
)

var (
	// ErrRejected is returned when the reject rule refuses the values.
	ErrRejected = errors.New("contact: submission rejected")
	// ErrSubmitInFlight is returned while a write is outstanding.
	ErrSubmitInFlight = errors.New("contact: submission in progress")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("contact: form closed")
)

// State is what the submit control displays.
type State struct {
	Message string `json:"message"`
	Status  Status `json:"status"`
}

// Submission is the record written to the sink.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Document converts the submission to a sink document.
func (s Submission) Document() store.Document {
	return store.Document{
		"name":    s.Name,
		"email":   s.Email,
		"message": s.Message,
	}
}

// Inserter is the part of a document sink the form writes to.
type Inserter interface {
	Insert(ctx context.Context, collection string, doc store.Document) (string, error)
}

// Notifier is told about every stored submission.
type Notifier interface {
	Notify(ctx context.Context, sub Submission) error
}

// Option configures a Form.
type Option func(*Form)

// WithRule sets the reject rule. Defaults to CorrectedRejectRule.
func WithRule(r RejectRule) Option {
	return func(f *Form) {
		if r != nil {
			f.rule = r
		}
	}
}

// WithCollection overrides the target collection.
func WithCollection(name string) Option {
	return func(f *Form) {
		if name != "" {
			f.collection = name
		}
	}
}

// WithResetDelays overrides the reset delays after a rejection and after a write.
func WithResetDelays(rejected, written time.Duration) Option {
	return func(f *Form) {
		if rejected > 0 {
			f.errorReset = rejected
		}
		if written > 0 {
			f.successReset = written
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(f *Form) {
		if c != nil {
			f.clock = c
		}
	}
}

// WithOnChange registers a listener called after every state change,
// including timed resets.
func WithOnChange(fn func(State)) Option {
	return func(f *Form) {
		f.onChange = fn
	}
}

// WithNotifier registers a notifier run after a successful write.
func WithNotifier(n Notifier) Option {
	return func(f *Form) {
		f.notifier = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Form) {
		if l != nil {
			f.log = l
		}
	}
}

// Form holds the contact form values and submit state.
type Form struct {
	mu sync.Mutex

	name, email, message string
	inProgress           bool
	state                State

	sink         Inserter
	collection   string
	rule         RejectRule
	errorReset   time.Duration
	successReset time.Duration
	clock        Clock
	onChange     func(State)
	notifier     Notifier
	log          *zap.Logger

	timers map[Timer]struct{}
	closed bool
}

// New creates a form writing to sink.
func New(sink Inserter, opts ...Option) *Form {
	f := &Form{
		state:        State{Message: MessageDefault, Status: StatusIdle},
		sink:         sink,
		collection:   DefaultCollection,
		rule:         CorrectedRejectRule,
		errorReset:   DefaultErrorReset,
		successReset: DefaultSuccessReset,
		clock:        realClock{},
		log:          zap.NewNop(),
		timers:       make(map[Timer]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

func (f *Form) SetName(v string) {
	f.mu.Lock()
	f.name = v
	f.mu.Unlock()
}

func (f *Form) SetEmail(v string) {
	f.mu.Lock()
	f.email = v
	f.mu.Unlock()
}

func (f *Form) SetMessage(v string) {
	f.mu.Lock()
	f.message = v
	f.mu.Unlock()
}

// Values returns the current field values.
func (f *Form) Values() Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Submission{Name: f.name, Email: f.email, Message: f.message}
}

// State returns the submit control state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// InProgress reports whether a write is outstanding.
func (f *Form) InProgress() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inProgress
}

// Submit validates the values and writes them to the sink. Write failures are
// turned into an error state and also returned.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.inProgress {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}

	sub := Submission{Name: f.name, Email: f.email, Message: f.message}
	if f.rule(sub.Name, sub.Email, sub.Message) {
		f.state = State{Message: MessageInvalid, Status: StatusError}
		f.scheduleReset(f.errorReset)
		st := f.state
		f.mu.Unlock()
		f.notifyChange(st)
		return ErrRejected
	}

	f.inProgress = true
	st := f.state
	f.mu.Unlock()
	f.notifyChange(st)

	_, err := f.sink.Insert(ctx, f.collection, sub.Document())

	f.mu.Lock()
	f.inProgress = false
	if err != nil {
		f.state = State{Message: MessageFailure, Status: StatusError}
	} else {
		f.state = State{Message: MessageSuccess, Status: StatusSuccess}
	}
	if !f.closed {
		f.scheduleReset(f.successReset)
	}
	st = f.state
	f.mu.Unlock()
	f.notifyChange(st)

	if err != nil {
		f.log.Error("contact submission failed", zap.String("collection", f.collection), zap.Error(err))
		return fmt.Errorf("contact: insert: %w", err)
	}

	f.log.Info("contact submission stored", zap.String("collection", f.collection))
	if f.notifier != nil {
		if nerr := f.notifier.Notify(ctx, sub); nerr != nil {
			f.log.Warn("contact notification failed", zap.Error(nerr))
		}
	}
	return nil
}

// scheduleReset must be called with f.mu held.
func (f *Form) scheduleReset(d time.Duration) {
	var t Timer
	t = f.clock.AfterFunc(d, func() {
		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return
		}
		delete(f.timers, t)
		f.state = State{Message: MessageDefault, Status: StatusIdle}
		st := f.state
		f.mu.Unlock()
		f.notifyChange(st)
	})
	f.timers[t] = struct{}{}
}

func (f *Form) notifyChange(st State) {
	if f.onChange != nil {
		f.onChange(st)
	}
}

// Close tears the form down. Pending resets are stopped and any that are
// already running become no-ops.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for t := range f.timers {
		t.Stop()
	}
	f.timers = nil
}
