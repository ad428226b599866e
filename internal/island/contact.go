package island

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/elevatebox/elevatebox/internal/contact"
)

// ContactName is the fence name of the contact form.
const ContactName = "contact"

type contactIsland struct {
	deps   Deps
	rule   contact.RejectRule
	update UpdateFunc
	log    *zap.Logger

	form   *contact.Form
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newContactIsland(deps Deps, rule contact.RejectRule, update UpdateFunc) *contactIsland {
	return &contactIsland{
		deps:   deps,
		rule:   rule,
		update: update,
		log:    deps.Logger.Named("contact"),
	}
}

func (c *contactIsland) Name() string { return ContactName }

// Mount creates the form. The "collection" fence attribute overrides the
// configured collection.
func (c *contactIsland) Mount(ctx context.Context, params map[string]string) error {
	cfg := c.deps.Contact
	collection := cfg.GetCollection()
	if v := params["collection"]; v != "" {
		collection = v
	}

	opts := []contact.Option{
		contact.WithRule(c.rule),
		contact.WithCollection(collection),
		contact.WithResetDelays(cfg.GetErrorReset(), cfg.GetSuccessReset()),
		contact.WithOnChange(func(contact.State) { c.update() }),
		contact.WithLogger(c.log),
	}
	if c.deps.Notifier != nil {
		opts = append(opts, contact.WithNotifier(c.deps.Notifier))
	}
	c.form = contact.New(c.deps.Sink, opts...)
	c.ctx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))
	return nil
}

func (c *contactIsland) HandleEvent(_ context.Context, event string, payload map[string]any) error {
	if c.form == nil {
		return errors.New("contact island: not mounted")
	}
	switch event {
	case "change":
		value := stringArg(payload, "value")
		switch field := stringArg(payload, "field"); field {
		case "name":
			c.form.SetName(value)
		case "email":
			c.form.SetEmail(value)
		case "message":
			c.form.SetMessage(value)
		default:
			return fmt.Errorf("contact island: unknown field %q", field)
		}
		return nil
	case "submit":
		if c.form.InProgress() {
			return nil
		}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			err := c.form.Submit(c.ctx)
			if err != nil && !errors.Is(err, contact.ErrRejected) && !errors.Is(err, contact.ErrSubmitInFlight) && !errors.Is(err, contact.ErrClosed) {
				c.log.Debug("contact submit ended with error", zap.Error(err))
			}
		}()
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
}

type contactView struct {
	Name       string
	Email      string
	Message    string
	Status     string
	Label      string
	InProgress bool
}

func (c *contactIsland) Render(w io.Writer) error {
	if c.form == nil {
		return errors.New("contact island: not mounted")
	}
	vals := c.form.Values()
	st := c.form.State()
	return templates.ExecuteTemplate(w, "contact.html", contactView{
		Name:       vals.Name,
		Email:      vals.Email,
		Message:    vals.Message,
		Status:     st.Status.String(),
		Label:      st.Message,
		InProgress: c.form.InProgress(),
	})
}

// Terminate cancels an outstanding write and waits for it.
func (c *contactIsland) Terminate() {
	if c.form == nil {
		return
	}
	c.form.Close()
	c.cancel()
	c.wg.Wait()
}
