package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/desertwitch/blockfs/internal/configuration"
	"github.com/desertwitch/blockfs/internal/disk"
	"github.com/desertwitch/blockfs/internal/queue"
	"github.com/desertwitch/blockfs/internal/store"
	"github.com/desertwitch/blockfs/internal/ui"
	"github.com/desertwitch/blockfs/internal/validation"
)

// App ties the handlers of the application together. The store and medium are
// single-threaded by contract, so all access to them is serialized through an
// internal mutex; the shell (or script runner) and the UI's status polling
// reach them from different goroutines.
type App struct {
	mu sync.Mutex

	config            *configuration.AppConfiguration
	medium            *disk.Disk
	store             *store.Store
	validationHandler *validation.Handler
	imager            *disk.Imager
	scriptQueue       *queue.GenericQueue[string]
	scriptPath        string
	uiHandler         *ui.Handler
}

func NewApp(config *configuration.AppConfiguration,
	medium *disk.Disk,
	fileStore *store.Store,
	validationHandler *validation.Handler,
	imager *disk.Imager,
	scriptQueue *queue.GenericQueue[string],
	scriptPath string,
) *App {
	return &App{
		config:            config,
		medium:            medium,
		store:             fileStore,
		validationHandler: validationHandler,
		imager:            imager,
		scriptQueue:       scriptQueue,
		scriptPath:        scriptPath,
	}
}

func (app *App) Launch(ctx context.Context) error {
	if app.scriptPath != "" {
		if err := app.RunScript(ctx); err != nil {
			return fmt.Errorf("(app) %w", err)
		}
	}

	// The terminal shell runs only when no UI is active, either because none
	// was enabled or because it failed to launch.
	if app.uiHandler == nil || app.uiHandler.Failed.Load() {
		if err := app.RunShell(ctx); err != nil {
			return fmt.Errorf("(app) %w", err)
		}
	}

	return nil
}

func (app *App) LaunchUI() error {
	if err := app.uiHandler.Launch(); err != nil {
		return fmt.Errorf("(app-ui) %w", err)
	}

	return nil
}

// Usage returns an occupancy snapshot of the medium in a thread-safe manner.
func (app *App) Usage() (*store.Usage, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	return app.store.Usage()
}

// Files returns the live inode table in a thread-safe manner.
func (app *App) Files() ([]store.FileInfo, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	return app.store.Files()
}

// Execute runs a single shell command against the file store in a
// thread-safe manner and returns its printable output.
func (app *App) Execute(line string) (string, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	return app.dispatch(line)
}

// PersistImage saves the medium to the configured disk image, if one is
// configured. It is meant to be called once on application teardown.
func (app *App) PersistImage() error {
	if app.config.ImagePath == "" {
		return nil
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	if err := app.imager.Save(app.medium, app.config.ImagePath); err != nil {
		return fmt.Errorf("(app) %w", err)
	}

	slog.Info("Medium persisted to disk image.",
		"path", app.config.ImagePath,
	)

	return nil
}
