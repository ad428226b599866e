// Package output delivers notifications about stored contact submissions to
// Slack, email or the log.
package output

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/elevatebox/elevatebox/internal/config"
	"github.com/elevatebox/elevatebox/internal/contact"
)

// Output represents a notification destination.
type Output interface {
	// Name returns the output identifier (e.g., "slack", "email").
	Name() string

	// Send delivers a message to the output destination.
	Send(ctx context.Context, message string) error

	// Close releases any resources held by the output.
	Close() error
}

// Registry manages a collection of outputs.
type Registry struct {
	outputs map[string]Output
	log     *zap.Logger
}

// NewRegistry creates a new output registry.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		outputs: make(map[string]Output),
		log:     log,
	}
}

// NewRegistryFromConfig builds one output per notify entry. Entries are keyed
// "<type>" or "<type>-<n>" when a type repeats.
func NewRegistryFromConfig(cfgs []config.NotifyConfig, log *zap.Logger) (*Registry, error) {
	r := NewRegistry(log)
	seen := make(map[string]int)
	for _, cfg := range cfgs {
		out, err := NewFromConfig(cfg, r.log)
		if err != nil {
			r.Close()
			return nil, err
		}
		name := cfg.Type
		if n := seen[cfg.Type]; n > 0 {
			name = fmt.Sprintf("%s-%d", cfg.Type, n+1)
		}
		seen[cfg.Type]++
		r.Register(name, out)
	}
	return r, nil
}

// Register adds an output to the registry.
func (r *Registry) Register(name string, output Output) {
	r.outputs[name] = output
}

// Get retrieves an output by name.
func (r *Registry) Get(name string) (Output, bool) {
	output, ok := r.outputs[name]
	return output, ok
}

// Len returns the number of registered outputs.
func (r *Registry) Len() int {
	return len(r.outputs)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.outputs))
	for name := range r.outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SendAll sends a message to every registered output. All outputs are
// attempted; the failures are joined.
func (r *Registry) SendAll(ctx context.Context, message string) error {
	var errs []error
	for _, name := range r.Names() {
		if err := r.outputs[name].Send(ctx, message); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Notify implements contact.Notifier.
func (r *Registry) Notify(ctx context.Context, sub contact.Submission) error {
	if len(r.outputs) == 0 {
		return nil
	}
	return r.SendAll(ctx, FormatContact(sub))
}

// Close closes all registered outputs.
func (r *Registry) Close() error {
	var errs []error
	for name, output := range r.outputs {
		if err := output.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// NewFromConfig creates an output from configuration.
func NewFromConfig(cfg config.NotifyConfig, log *zap.Logger) (Output, error) {
	switch cfg.Type {
	case "slack":
		return NewSlackOutput(cfg.Channel, "")
	case "email":
		return NewEmailOutput(cfg.To, cfg.Subject)
	case "log":
		return NewLogOutput(log), nil
	default:
		return nil, fmt.Errorf("unsupported output type: %s", cfg.Type)
	}
}

// FormatContact renders a submission as a short plain text message.
func FormatContact(sub contact.Submission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New contact message from %s <%s>\n", sub.Name, sub.Email)
	b.WriteString(sub.Message)
	return b.String()
}
