package main

import "errors"

var (
	// ErrBadNumber occurs when a numeric shell argument does not parse.
	ErrBadNumber = errors.New("argument must be a number")

	// ErrMissingArgument occurs when a shell command lacks a required
	// argument.
	ErrMissingArgument = errors.New("missing argument")

	// ErrNoImagePath occurs when a disk image operation has neither a path
	// argument nor a configured image path to fall back to.
	ErrNoImagePath = errors.New("no disk image path configured or given")

	// ErrUnknownCommand occurs when the shell does not recognize a command.
	ErrUnknownCommand = errors.New("unknown command (try: help)")
)
