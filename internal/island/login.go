package island

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/elevatebox/elevatebox/internal/login"
)

// LoginName is the fence name of the sign-in form.
const LoginName = "login"

type loginIsland struct {
	log  *zap.Logger
	form *login.Form
}

func newLoginIsland(deps Deps) *loginIsland {
	return &loginIsland{log: deps.Logger.Named("login")}
}

func (l *loginIsland) Name() string { return LoginName }

func (l *loginIsland) Mount(context.Context, map[string]string) error {
	l.form = login.New(login.WithLogger(l.log))
	return nil
}

func (l *loginIsland) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	if l.form == nil {
		return errors.New("login island: not mounted")
	}
	field := stringArg(payload, "field")
	switch event {
	case "change":
		return l.form.Change(field, stringArg(payload, "value"))
	case "blur":
		return l.form.Blur(field)
	case "submit":
		if err := l.form.Submit(ctx); err != nil && !errors.Is(err, login.ErrInvalid) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
}

type loginField struct {
	Name        string
	Label       string
	Type        string
	Placeholder string
	Value       string
	Error       string
}

type loginView struct {
	Fields    []loginField
	Message   string
	Submitted bool
	Email     string
}

func (l *loginIsland) Render(w io.Writer) error {
	if l.form == nil {
		return errors.New("login island: not mounted")
	}
	v := loginView{Message: l.form.Message(), Submitted: l.form.Submitted()}
	for _, f := range []loginField{
		{Name: login.FieldEmail, Label: "Email", Type: "email", Placeholder: "Enter your email"},
		{Name: login.FieldPassword, Label: "Password", Type: "password", Placeholder: "Enter your password"},
	} {
		in, _ := l.form.Input(f.Name)
		f.Value = in.Value()
		if in.ShowError() {
			f.Error = in.Error()
		}
		if f.Name == login.FieldEmail {
			v.Email = f.Value
		}
		v.Fields = append(v.Fields, f)
	}
	return templates.ExecuteTemplate(w, "login.html", v)
}

func (l *loginIsland) Terminate() {}
