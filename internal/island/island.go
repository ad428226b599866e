// Package island implements the server-side interactive components mounted
// into content pages. Each island keeps its state for one websocket
// connection, reacts to client events and renders an HTML fragment.
package island

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"sort"

	"go.uber.org/zap"

	"github.com/elevatebox/elevatebox/internal/config"
	"github.com/elevatebox/elevatebox/internal/contact"
	"github.com/elevatebox/elevatebox/internal/onboarding"
	"github.com/elevatebox/elevatebox/internal/store"
)

// ErrUnknownEvent is returned by HandleEvent for events the island does not handle.
var ErrUnknownEvent = errors.New("island: unknown event")

// Island is a mounted interactive component.
type Island interface {
	// Name returns the island name used in page fences, e.g. "contact".
	Name() string

	// Mount initializes state. params are the key=value attributes of the fence.
	Mount(ctx context.Context, params map[string]string) error

	// HandleEvent applies a client event.
	HandleEvent(ctx context.Context, event string, payload map[string]any) error

	// Render writes the current HTML fragment.
	Render(w io.Writer) error

	// Terminate releases timers and background work. The island is not
	// used afterwards.
	Terminate()
}

// UpdateFunc asks the owner to re-render the island outside of an event,
// e.g. after a timer fired.
type UpdateFunc func()

// Factory creates an unmounted island.
type Factory func(update UpdateFunc) Island

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Deps are the collaborators shared by all islands of a server.
type Deps struct {
	Sink       store.Sink
	Wizard     *onboarding.Config
	Onboarding config.OnboardingConfig
	Contact    config.ContactConfig
	Notifier   contact.Notifier
	Logger     *zap.Logger
}

// Registry maps island names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// NewDefaultRegistry registers the onboarding, contact and login islands.
func NewDefaultRegistry(deps Deps) (*Registry, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Wizard == nil {
		deps.Wizard = onboarding.DefaultConfig()
	}
	if deps.Sink == nil {
		deps.Sink = store.NewMemorySink()
	}
	rule, err := contact.RuleByName(deps.Contact.RejectRule)
	if err != nil {
		return nil, err
	}

	r := NewRegistry()
	r.Register(OnboardingName, func(update UpdateFunc) Island {
		return newOnboardingIsland(deps)
	})
	r.Register(ContactName, func(update UpdateFunc) Island {
		return newContactIsland(deps, rule, update)
	})
	r.Register(LoginName, func(UpdateFunc) Island {
		return newLoginIsland(deps)
	})
	return r, nil
}

// Register adds a factory.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates an island by name.
func (r *Registry) New(name string, update UpdateFunc) (Island, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("island: unknown island %q", name)
	}
	if update == nil {
		update = func() {}
	}
	return f(update), nil
}

func stringArg(payload map[string]any, key string) string {
	switch v := payload[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
