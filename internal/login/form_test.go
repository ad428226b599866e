package login

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsWithheldUntilBlur(t *testing.T) {
	f := New()
	require.NoError(t, f.Change(FieldEmail, "jane"))
	assert.True(t, f.Valid())
	assert.Empty(t, f.Errors())

	require.NoError(t, f.Blur(FieldEmail))
	assert.False(t, f.Valid())
	assert.Equal(t, map[string]string{FieldEmail: "Invalid email format"}, f.Errors())

	require.NoError(t, f.Change(FieldEmail, "jane@example.com"))
	assert.True(t, f.Valid())
}

func TestSubmitTouchesEveryField(t *testing.T) {
	called := false
	f := New(WithOnSubmit(func(context.Context, string, string) error {
		called = true
		return nil
	}))
	require.NoError(t, f.Change(FieldEmail, "jane@example.com"))

	err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalid)
	assert.False(t, called)
	assert.False(t, f.Submitted())
	assert.Equal(t, MessageInvalid, f.Message())
	assert.Equal(t, map[string]string{FieldPassword: "Password is required"}, f.Errors())

	in, ok := f.Input(FieldPassword)
	require.True(t, ok)
	assert.True(t, in.ShowError())
}

func TestSubmitHandsOverValues(t *testing.T) {
	var gotEmail, gotPassword string
	f := New(WithOnSubmit(func(_ context.Context, email, password string) error {
		gotEmail, gotPassword = email, password
		return nil
	}))
	require.NoError(t, f.Change(FieldEmail, "jane@example.com"))
	require.NoError(t, f.Change(FieldPassword, "correct horse"))

	require.NoError(t, f.Submit(context.Background()))
	assert.True(t, f.Submitted())
	assert.Empty(t, f.Message())
	assert.Equal(t, "jane@example.com", gotEmail)
	assert.Equal(t, "correct horse", gotPassword)
}

func TestSubmitCallbackError(t *testing.T) {
	boom := errors.New("backend down")
	f := New(WithOnSubmit(func(context.Context, string, string) error { return boom }))
	require.NoError(t, f.Change(FieldEmail, "jane@example.com"))
	require.NoError(t, f.Change(FieldPassword, "correct horse"))

	err := f.Submit(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, f.Submitted())
}

func TestUnknownField(t *testing.T) {
	f := New()
	assert.ErrorIs(t, f.Change("username", "jane"), ErrUnknownField)
	assert.ErrorIs(t, f.Blur("username"), ErrUnknownField)
}
