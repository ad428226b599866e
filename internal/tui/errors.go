package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C) or declined
	// to submit.
	ErrAborted = errors.New("tui: aborted")
	// ErrNoAnswer is returned by ScriptedDriver when the script has no
	// answer for a prompt.
	ErrNoAnswer = errors.New("tui: no scripted answer")
)
