package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/desertwitch/blockfs/internal/allocation"
	"github.com/desertwitch/blockfs/internal/configuration"
	"github.com/desertwitch/blockfs/internal/disk"
	"github.com/desertwitch/blockfs/internal/queue"
	"github.com/desertwitch/blockfs/internal/schema"
	"github.com/desertwitch/blockfs/internal/store"
	"github.com/desertwitch/blockfs/internal/ui"
	"github.com/desertwitch/blockfs/internal/validation"
)

const (
	stackTraceBufMax = 1 << 24
)

//nolint:gochecknoglobals
var (
	ExitCode = 0
	Version  string

	configFile = flag.String("config", "", "read geometry and image settings from this file (.env format)")
	imagePath  = flag.String("image", "", "load the medium from this disk image and persist it back on exit")
	scriptFile = flag.String("script", "", "run this script of store commands before going interactive")
	uiEnabled  = flag.Bool("ui", false, "enable the UI instead of the terminal shell")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
)

func setupSignalHandlers(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	sigChan2 := make(chan os.Signal, 1)
	signal.Notify(sigChan2, syscall.SIGUSR1)
	go func() {
		for range sigChan2 {
			buf := make([]byte, stackTraceBufMax)
			stacklen := runtime.Stack(buf, true)
			os.Stderr.Write(buf[:stacklen])
		}
	}()

	sigChan3 := make(chan os.Signal, 1)
	signal.Notify(sigChan3, syscall.SIGUSR2)
	go func() {
		for range sigChan3 {
			runtime.GC()
		}
	}()
}

// establishMedium loads the medium from a configured disk image, or
// establishes a freshly formatted one with the configured geometry.
func establishMedium(config *configuration.AppConfiguration, imager *disk.Imager) (*disk.Disk, bool, error) {
	if config.ImagePath != "" {
		if _, err := os.Stat(config.ImagePath); err == nil {
			d, err := imager.Load(config.ImagePath)
			if err != nil {
				return nil, false, err
			}

			return d, true, nil
		}
	}

	d, err := disk.New(config.Geometry)
	if err != nil {
		return nil, false, err
	}

	return d, false, nil
}

func startApp(ctx context.Context, wg *sync.WaitGroup, app *App) {
	defer wg.Done()

	if app.uiHandler != nil {
		slog.Info("Waiting for UI...")
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if app.uiHandler.Ready.Load() || app.uiHandler.Failed.Load() {
				break
			}
		}
	}

	if err := app.Launch(ctx); err != nil {
		ExitCode = 1
	}
}

func startUI(wg *sync.WaitGroup, app *App, logManager *SlogManager) {
	defer wg.Done()

	if app.uiHandler == nil {
		return
	}

	// Logs go into the UI while it runs, back to the terminal afterwards.
	logManager.RemoveHandler("terminal")
	logManager.AddHandler("ui", newUISlogHandler(app.uiHandler.LogWriter))

	defer func() {
		logManager.RemoveHandler("ui")
		logManager.AddHandler("terminal", newTerminalSlogHandler())
	}()

	if err := app.LaunchUI(); err != nil {
		slog.Error("UI failure: falling back to terminal.", "err", err)
	}
}

func main() {
	defer func() {
		os.Exit(ExitCode)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flag.Parse()

	logManager := NewSlogManager()
	setupLogging(logManager)
	setupSignalHandlers(cancel)

	memObserver := newMemoryObserver(ctx)
	defer memObserver.Stop()

	cpuProfiler := newCPUProfiler(ctx, cpuprofile)
	defer cpuProfiler.Stop()

	allocProfiler := newAllocProfiler(ctx, memprofile)
	defer allocProfiler.Stop()

	osProvider := &schema.OS{}
	unixProvider := &schema.Unix{}
	configProvider := &configuration.GodotenvProvider{}

	configHandler := configuration.NewHandler(configProvider)

	appConfig := configuration.NewAppConfiguration()
	if *configFile != "" {
		loaded, err := configHandler.LoadAppConfiguration(*configFile)
		if err != nil {
			slog.Error("Failed to load the configuration file.",
				"path", *configFile,
				"err", err,
			)
			ExitCode = 1

			return
		}
		appConfig = loaded
	}

	if *imagePath != "" {
		appConfig.ImagePath = *imagePath
	}

	imager := disk.NewImager(osProvider, unixProvider)

	medium, restored, err := establishMedium(appConfig, imager)
	if err != nil {
		slog.Error("Failed to establish the medium.",
			"err", err,
		)
		ExitCode = 1

		return
	}

	allocHandler := allocation.NewHandler(medium)

	var fileStore *store.Store
	if restored {
		fileStore = store.AttachStore(medium, allocHandler)
		slog.Info("Medium restored from disk image.",
			"path", appConfig.ImagePath,
		)
	} else {
		fileStore, err = store.NewStore(medium, allocHandler)
		if err != nil {
			slog.Error("Failed to format the medium.",
				"err", err,
			)
			ExitCode = 1

			return
		}
	}

	validationHandler := validation.NewHandler(medium)
	scriptQueue := queue.NewGenericQueue[string]()

	app := NewApp(appConfig, medium, fileStore, validationHandler, imager, scriptQueue, *scriptFile)

	if *uiEnabled {
		app.uiHandler = ui.NewHandler(ctx, cancel, app, scriptQueue, app)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go startUI(&wg, app, logManager)

	wg.Add(1)
	go startApp(ctx, &wg, app)

	wg.Wait()

	if err := app.PersistImage(); err != nil {
		slog.Error("Failed to persist the disk image.",
			"err", err,
		)
		ExitCode = 1
	}
}
