package ui

import "errors"

var (
	// ErrShellQuit occurs when a shell command requested closing the user
	// interface. It signals an orderly teardown and not a failure.
	ErrShellQuit = errors.New("shell quit requested")
)
