package island

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/elevatebox/elevatebox/internal/config"
	"github.com/elevatebox/elevatebox/internal/onboarding"
	"github.com/elevatebox/elevatebox/internal/store"
)

// OnboardingName is the fence name of the onboarding wizard.
const OnboardingName = "onboarding"

const completeFailedMessage = "Something went wrong. Please try again later"

type onboardingIsland struct {
	wizardCfg *onboarding.Config
	cfg       config.OnboardingConfig
	sink      store.Sink
	log       *zap.Logger

	session *onboarding.Session
	failure string
}

func newOnboardingIsland(deps Deps) *onboardingIsland {
	return &onboardingIsland{
		wizardCfg: deps.Wizard,
		cfg:       deps.Onboarding,
		sink:      deps.Sink,
		log:       deps.Logger.Named("onboarding"),
	}
}

func (o *onboardingIsland) Name() string { return OnboardingName }

// Mount creates the wizard. The "start" fence attribute overrides the
// configured start step.
func (o *onboardingIsland) Mount(_ context.Context, params map[string]string) error {
	start := o.cfg.StartStep
	if s, ok := params["start"]; ok {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("onboarding island: invalid start %q: %w", s, err)
		}
		start = n
	}

	opts := []onboarding.Option{
		onboarding.WithStartStep(start),
		onboarding.WithLogger(o.log),
	}
	if o.cfg.Collection != "" {
		opts = append(opts, onboarding.WithOnComplete(o.store))
	}

	w, err := onboarding.New(o.wizardCfg, opts...)
	if err != nil {
		return err
	}
	o.session = onboarding.NewSession(w)
	return nil
}

func (o *onboardingIsland) store(ctx context.Context, sub onboarding.Submission) error {
	id, err := o.sink.Insert(ctx, o.cfg.Collection, store.Document(sub.Document()))
	if err != nil {
		return err
	}
	o.log.Info("onboarding submission stored", zap.String("collection", o.cfg.Collection), zap.String("id", id))
	return nil
}

func (o *onboardingIsland) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	if o.session == nil {
		return errors.New("onboarding island: not mounted")
	}
	field := stringArg(payload, "field")
	value := stringArg(payload, "value")
	sf := o.session.Form()

	switch event {
	case "change":
		return sf.Change(field, value)
	case "blur":
		return sf.Blur(field)
	case "toggle":
		return sf.ToggleChoice(field)
	case "search":
		return sf.SearchChoice(field, value)
	case "select":
		return sf.SelectChoice(field, value)
	case "remove":
		return sf.RemoveChoice(field, value)
	case "prev":
		o.failure = ""
		o.session.Prev()
		return nil
	case "next":
		o.failure = ""
		err := o.session.Next(ctx)
		switch {
		case err == nil, errors.Is(err, onboarding.ErrStepIncomplete):
			// The disabled button already tells the user; nothing to report.
			return nil
		default:
			o.log.Warn("onboarding completion failed", zap.Error(err))
			o.failure = completeFailedMessage
			return nil
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
}

func (o *onboardingIsland) Render(w io.Writer) error {
	if o.session == nil {
		return errors.New("onboarding island: not mounted")
	}
	return templates.ExecuteTemplate(w, "onboarding.html", o.view())
}

func (o *onboardingIsland) Terminate() {}

type stepView struct {
	Name   string
	Active bool
	Done   bool
}

type fieldView struct {
	Name        string
	Label       string
	Placeholder string
	Prefix      string
	Choice      bool
	Multi       bool

	// Text fields
	Value string
	Error string

	// Choice fields
	Open      bool
	Search    string
	Filtered  []string
	Selected  []string
	NoMatches bool
	Summary   string
}

type onboardingView struct {
	Steps        []stepView
	Header       string
	Position     int
	Total        int
	Percent      float64
	Fields       []fieldView
	ShowPrevious bool
	ForwardLabel string
	CanProceed   bool
	Completed    bool
	Failure      string
}

func (o *onboardingIsland) view() onboardingView {
	w := o.session.Wizard()
	sf := o.session.Form()
	current := w.Current()
	pos, total := w.Progress()

	v := onboardingView{
		Header:       sf.Step().Header,
		Position:     pos,
		Total:        total,
		Percent:      w.Percent(),
		ShowPrevious: w.ShowPrevious(),
		ForwardLabel: w.ForwardLabel(),
		CanProceed:   w.CanProceed(),
		Completed:    w.Completed(),
		Failure:      o.failure,
	}
	for i, name := range w.Steps() {
		v.Steps = append(v.Steps, stepView{Name: name, Active: i == current, Done: i < current})
	}

	for _, f := range sf.Step().Fields {
		fv := fieldView{
			Name:        f.Name,
			Label:       f.Label,
			Placeholder: f.Placeholder,
			Prefix:      f.Prefix,
			Choice:      f.IsChoice(),
			Multi:       f.Kind == onboarding.KindMultiSelect,
		}
		if c, ok := sf.Choice(f.Name); ok {
			fv.Open = c.IsOpen()
			fv.Search = c.SearchTerm()
			fv.Filtered = c.Filtered()
			fv.Selected = c.Selected()
			fv.NoMatches = c.Empty()
			fv.Summary = c.FormValue().String()
		} else if in, ok := sf.Input(f.Name); ok {
			fv.Value = in.Value()
			if in.ShowError() {
				fv.Error = in.Error()
			}
		}
		v.Fields = append(v.Fields, fv)
	}
	return v
}
