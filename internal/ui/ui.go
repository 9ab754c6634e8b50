// Package ui implements a command-line user interface using [tea].
package ui

import (
	"context"
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertwitch/blockfs/internal/queue"
	"github.com/desertwitch/blockfs/internal/store"
)

// storeProvider defines the methods needed for observing the file store.
//
// Implementations must be safe for concurrent use, as the user interface
// polls these methods from its own goroutine.
type storeProvider interface {
	Usage() (*store.Usage, error)
	Files() ([]store.FileInfo, error)
}

// scriptProvider defines the methods needed for observing a script queue.
type scriptProvider interface {
	Progress() queue.Progress
}

// executeProvider defines the methods needed for running shell commands
// against the file store. Execute returns the command's printable output, or
// [ErrShellQuit] when the command asks to close the interface.
//
// Implementations must be safe for concurrent use, as commands are run from
// the user interface's own goroutine.
type executeProvider interface {
	Execute(line string) (string, error)
}

// Handler is the principal implementation of a user interface [Handler].
type Handler struct {
	store   storeProvider
	script  scriptProvider
	execute executeProvider
	program *tea.Program

	LogWriter *TeaLogWriter

	Ready  atomic.Bool
	Failed atomic.Bool
}

// NewHandler returns a pointer to a new user interface [Handler].
func NewHandler(ctx context.Context, cancel context.CancelFunc, storeProv storeProvider, scriptProv scriptProvider, executeProv executeProvider) *Handler {
	handler := &Handler{
		store:   storeProv,
		script:  scriptProv,
		execute: executeProv,
	}

	model := NewTeaModel(handler, cancel)
	handler.program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	handler.LogWriter = NewTeaLogWriter(handler.program)

	return handler
}

// Launch starts the command-line user interface (the [tea.Program]).
func (uiHandler *Handler) Launch() error {
	defer uiHandler.LogWriter.Stop()

	if _, err := uiHandler.program.Run(); err != nil {
		uiHandler.Failed.Store(true)

		return fmt.Errorf("(ui) %w", err)
	}

	return nil
}
