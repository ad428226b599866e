package island

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/elevatebox/elevatebox/internal/config"
	"github.com/elevatebox/elevatebox/internal/contact"
	"github.com/elevatebox/elevatebox/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func render(t *testing.T, isl Island) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, isl.Render(&buf))
	return buf.String()
}

func mount(t *testing.T, deps Deps, name string, params map[string]string, update UpdateFunc) Island {
	t.Helper()
	reg, err := NewDefaultRegistry(deps)
	require.NoError(t, err)
	isl, err := reg.New(name, update)
	require.NoError(t, err)
	require.NoError(t, isl.Mount(context.Background(), params))
	t.Cleanup(isl.Terminate)
	return isl
}

func TestRegistry(t *testing.T) {
	reg, err := NewDefaultRegistry(Deps{})
	require.NoError(t, err)
	assert.Equal(t, []string{"contact", "login", "onboarding"}, reg.Names())

	_, err = reg.New("weather", nil)
	assert.ErrorContains(t, err, `unknown island "weather"`)
}

func TestRegistryRejectsBadRule(t *testing.T) {
	_, err := NewDefaultRegistry(Deps{Contact: config.ContactConfig{RejectRule: "strict"}})
	assert.Error(t, err)
}

func TestOnboardingRendersFirstStep(t *testing.T) {
	isl := mount(t, Deps{}, OnboardingName, nil, nil)
	html := render(t, isl)

	assert.Contains(t, html, "Great! Let&#39;s build your profile to start.")
	assert.Contains(t, html, "Step 1 of 7")
	assert.Contains(t, html, "Lets Get Started")
	assert.NotContains(t, html, "Previous")
}

func TestOnboardingValidationDisablesForward(t *testing.T) {
	isl := mount(t, Deps{}, OnboardingName, nil, nil)
	ctx := context.Background()

	require.NoError(t, isl.HandleEvent(ctx, "change", map[string]any{"field": "firstName", "value": "Jo"}))
	require.NoError(t, isl.HandleEvent(ctx, "blur", map[string]any{"field": "firstName"}))
	html := render(t, isl)
	assert.Contains(t, html, "First Name should be at least 3 characters")
	assert.Contains(t, html, `data-event="next" disabled`)

	// Refused silently while the step is invalid.
	require.NoError(t, isl.HandleEvent(ctx, "next", nil))
	assert.Contains(t, render(t, isl), "Step 1 of 7")

	require.NoError(t, isl.HandleEvent(ctx, "change", map[string]any{"field": "firstName", "value": "Joanna"}))
	require.NoError(t, isl.HandleEvent(ctx, "next", nil))
	html = render(t, isl)
	assert.Contains(t, html, "Step 2 of 7")
	assert.Contains(t, html, "Previous")
	assert.Contains(t, html, "save and continue")
}

func TestOnboardingChoiceEvents(t *testing.T) {
	isl := mount(t, Deps{}, OnboardingName, nil, nil)
	ctx := context.Background()

	require.NoError(t, isl.HandleEvent(ctx, "toggle", map[string]any{"field": "hear"}))
	require.NoError(t, isl.HandleEvent(ctx, "search", map[string]any{"field": "hear", "value": "zzz"}))
	assert.Contains(t, render(t, isl), "No options found")

	require.NoError(t, isl.HandleEvent(ctx, "search", map[string]any{"field": "hear", "value": ""}))
	require.NoError(t, isl.HandleEvent(ctx, "select", map[string]any{"field": "hear", "value": "Linkedin"}))
	assert.Contains(t, render(t, isl), `class="eb-chip">Linkedin`)

	require.NoError(t, isl.HandleEvent(ctx, "remove", map[string]any{"field": "hear", "value": "Linkedin"}))
	assert.NotContains(t, render(t, isl), `class="eb-chip"`)

	err := isl.HandleEvent(ctx, "toggle", map[string]any{"field": "nope"})
	assert.Error(t, err)
	err = isl.HandleEvent(ctx, "dance", nil)
	assert.True(t, errors.Is(err, ErrUnknownEvent))
}

func TestOnboardingStartAttribute(t *testing.T) {
	isl := mount(t, Deps{}, OnboardingName, map[string]string{"start": "6"}, nil)
	html := render(t, isl)
	assert.Contains(t, html, "Step 7 of 7")
	assert.Contains(t, html, "Finish")

	reg, err := NewDefaultRegistry(Deps{})
	require.NoError(t, err)
	bad, err := reg.New(OnboardingName, nil)
	require.NoError(t, err)
	assert.Error(t, bad.Mount(context.Background(), map[string]string{"start": "last"}))
}

func TestOnboardingCompletionStoresSubmission(t *testing.T) {
	sink := store.NewMemorySink()
	deps := Deps{Sink: sink, Onboarding: config.OnboardingConfig{Collection: "applicants", StartStep: 6}}
	isl := mount(t, deps, OnboardingName, nil, nil)

	require.NoError(t, isl.HandleEvent(context.Background(), "next", nil))
	assert.Contains(t, render(t, isl), "Your application has been submitted")

	// Repeated forward events after completion store nothing new.
	require.NoError(t, isl.HandleEvent(context.Background(), "next", nil))
	require.NoError(t, isl.HandleEvent(context.Background(), "next", nil))

	docs := sink.Documents("applicants")
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0], "completedAt")
	assert.Contains(t, docs[0], "Roles")
}

type failingSink struct{ store.Sink }

func (failingSink) Insert(context.Context, string, store.Document) (string, error) {
	return "", errors.New("disk full")
}

func TestOnboardingCompletionFailureShowsBanner(t *testing.T) {
	deps := Deps{Sink: failingSink{}, Onboarding: config.OnboardingConfig{Collection: "applicants", StartStep: 6}}
	isl := mount(t, deps, OnboardingName, nil, nil)

	require.NoError(t, isl.HandleEvent(context.Background(), "next", nil))
	html := render(t, isl)
	assert.Contains(t, html, "Something went wrong. Please try again later")
	assert.Contains(t, html, "Finish")
}

func waitFor(t *testing.T, updates <-chan struct{}, isl Island, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if strings.Contains(render(t, isl), want) {
			return
		}
		select {
		case <-updates:
		case <-deadline:
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestContactSubmit(t *testing.T) {
	sink := store.NewMemorySink()
	updates := make(chan struct{}, 16)
	deps := Deps{Sink: sink, Contact: config.ContactConfig{SuccessReset: "1h"}}
	isl := mount(t, deps, ContactName, nil, func() { updates <- struct{}{} })
	ctx := context.Background()

	assert.Contains(t, render(t, isl), contact.MessageDefault)

	require.NoError(t, isl.HandleEvent(ctx, "change", map[string]any{"field": "name", "value": "Jane Doe"}))
	require.NoError(t, isl.HandleEvent(ctx, "change", map[string]any{"field": "email", "value": "jane@example.com"}))
	require.NoError(t, isl.HandleEvent(ctx, "change", map[string]any{"field": "message", "value": "Hello there"}))
	require.NoError(t, isl.HandleEvent(ctx, "submit", nil))

	waitFor(t, updates, isl, contact.MessageSuccess)
	docs := sink.Documents(contact.DefaultCollection)
	require.Len(t, docs, 1)
	assert.Equal(t, "jane@example.com", docs[0]["email"])
}

func TestContactRejectsAndResets(t *testing.T) {
	updates := make(chan struct{}, 16)
	deps := Deps{Contact: config.ContactConfig{ErrorReset: "20ms"}}
	isl := mount(t, deps, ContactName, nil, func() { updates <- struct{}{} })
	ctx := context.Background()

	require.NoError(t, isl.HandleEvent(ctx, "change", map[string]any{"field": "name", "value": "Jo"}))
	require.NoError(t, isl.HandleEvent(ctx, "submit", nil))
	waitFor(t, updates, isl, contact.MessageInvalid)
	waitFor(t, updates, isl, contact.MessageDefault)
}

func TestContactCollectionAttribute(t *testing.T) {
	sink := store.NewMemorySink()
	updates := make(chan struct{}, 16)
	isl := mount(t, Deps{Sink: sink}, ContactName, map[string]string{"collection": "leads"}, func() { updates <- struct{}{} })
	ctx := context.Background()

	require.NoError(t, isl.HandleEvent(ctx, "change", map[string]any{"field": "name", "value": "Jane Doe"}))
	require.NoError(t, isl.HandleEvent(ctx, "change", map[string]any{"field": "email", "value": "jane@example.com"}))
	require.NoError(t, isl.HandleEvent(ctx, "change", map[string]any{"field": "message", "value": "Hello there"}))
	require.NoError(t, isl.HandleEvent(ctx, "submit", nil))

	waitFor(t, updates, isl, contact.MessageSuccess)
	assert.Len(t, sink.Documents("leads"), 1)
}

func TestContactUnknownField(t *testing.T) {
	isl := mount(t, Deps{}, ContactName, nil, nil)
	err := isl.HandleEvent(context.Background(), "change", map[string]any{"field": "phone", "value": "1"})
	assert.ErrorContains(t, err, `unknown field "phone"`)
}

type blockingSink struct {
	store.Sink
	started chan struct{}
}

func (b blockingSink) Insert(ctx context.Context, _ string, _ store.Document) (string, error) {
	close(b.started)
	<-ctx.Done()
	return "", ctx.Err()
}

func TestContactTerminateCancelsWrite(t *testing.T) {
	sink := blockingSink{started: make(chan struct{})}
	reg, err := NewDefaultRegistry(Deps{Sink: sink})
	require.NoError(t, err)
	isl, err := reg.New(ContactName, nil)
	require.NoError(t, err)
	require.NoError(t, isl.Mount(context.Background(), nil))
	ctx := context.Background()

	require.NoError(t, isl.HandleEvent(ctx, "change", map[string]any{"field": "name", "value": "Jane Doe"}))
	require.NoError(t, isl.HandleEvent(ctx, "change", map[string]any{"field": "email", "value": "jane@example.com"}))
	require.NoError(t, isl.HandleEvent(ctx, "change", map[string]any{"field": "message", "value": "Hello there"}))
	require.NoError(t, isl.HandleEvent(ctx, "submit", nil))
	<-sink.started

	assert.Contains(t, render(t, isl), `aria-busy="true"`)
	isl.Terminate()
}

func TestLoginSubmitShowsFieldErrors(t *testing.T) {
	isl := mount(t, Deps{}, LoginName, nil, nil)
	ctx := context.Background()

	html := render(t, isl)
	assert.Contains(t, html, `type="password"`)
	assert.NotContains(t, html, "eb-error")

	require.NoError(t, isl.HandleEvent(ctx, "submit", nil))
	html = render(t, isl)
	assert.Contains(t, html, "Form has errors. Please correct them.")
	assert.Contains(t, html, "Email is required")
	assert.Contains(t, html, "Password is required")
}

func TestLoginValidSubmit(t *testing.T) {
	isl := mount(t, Deps{}, LoginName, nil, nil)
	ctx := context.Background()

	require.NoError(t, isl.HandleEvent(ctx, "change", map[string]any{"field": "email", "value": "jane@example.com"}))
	require.NoError(t, isl.HandleEvent(ctx, "blur", map[string]any{"field": "email"}))
	require.NoError(t, isl.HandleEvent(ctx, "change", map[string]any{"field": "password", "value": "hunter22!"}))
	require.NoError(t, isl.HandleEvent(ctx, "submit", nil))

	html := render(t, isl)
	assert.Contains(t, html, "Submitted as jane@example.com")
	assert.NotContains(t, html, "eb-error")

	err := isl.HandleEvent(ctx, "change", map[string]any{"field": "username", "value": "jane"})
	assert.ErrorContains(t, err, `unknown field "username"`)
}
