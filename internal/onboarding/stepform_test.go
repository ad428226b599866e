package onboarding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepFormReportsToWizard(t *testing.T) {
	w := newWizard(t)
	s := NewSession(w)
	sf := s.Form()
	require.Equal(t, "Roles", sf.Step().Name)

	require.NoError(t, sf.Change("firstName", "Jo"))
	assert.Empty(t, w.Error("firstName"), "untouched input reports no error")
	assert.True(t, w.CanProceed())

	require.NoError(t, sf.Blur("firstName"))
	assert.Equal(t, "First Name should be at least 3 characters", w.Error("firstName"))
	assert.False(t, w.CanProceed())

	require.NoError(t, sf.Change("firstName", "Joanna"))
	assert.True(t, w.CanProceed())
	assert.Equal(t, "Joanna", w.Value("firstName").String())
}

func TestStepFormChoices(t *testing.T) {
	s := NewSession(newWizard(t))
	sf := s.Form()

	require.NoError(t, sf.ToggleChoice("hear"))
	c, ok := sf.Choice("hear")
	require.True(t, ok)
	assert.True(t, c.IsOpen())

	require.NoError(t, sf.SearchChoice("hear", "LINK"))
	assert.Equal(t, []string{"Linkedin"}, c.Filtered())

	require.NoError(t, sf.SelectChoice("hear", "Linkedin"))
	require.NoError(t, sf.SelectChoice("hear", "Web"))
	assert.Equal(t, []string{"Linkedin", "Web"}, s.Wizard().Value("hear").Items())

	require.NoError(t, sf.RemoveChoice("hear", "Linkedin"))
	assert.Equal(t, []string{"Web"}, s.Wizard().Value("hear").Items())
}

func TestStepFormUnknownField(t *testing.T) {
	sf := NewSession(newWizard(t)).Form()
	assert.ErrorIs(t, sf.Change("nope", "x"), ErrUnknownField)
	assert.ErrorIs(t, sf.Blur("hear"), ErrUnknownField, "choice fields have no input binding")
	assert.ErrorIs(t, sf.SelectChoice("firstName", "x"), ErrUnknownField)
}

func TestSessionKeepsFormsAcrossSteps(t *testing.T) {
	ctx := context.Background()
	s := NewSession(newWizard(t))

	require.NoError(t, s.Form().Blur("lastName"))
	require.NoError(t, s.Form().Change("lastName", "Smith"))
	require.NoError(t, s.Next(ctx))
	assert.Equal(t, "Education", s.Form().Step().Name)

	s.Prev()
	in, ok := s.Form().Input("lastName")
	require.True(t, ok)
	assert.True(t, in.Touched())
	assert.Equal(t, "Smith", in.Value())
}
