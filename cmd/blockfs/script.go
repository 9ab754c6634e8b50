package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/desertwitch/blockfs/internal/queue"
	"github.com/desertwitch/blockfs/internal/ui"
)

// LoadScript reads a script file into single command lines, skipping blank
// lines and '#' comments.
func LoadScript(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("(script) %w", err)
	}

	var commands []string

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		commands = append(commands, line)
	}

	return commands, nil
}

// RunScript executes the configured script through the queue, one command at
// a time. Failing commands are logged and skipped, so one bad line does not
// abandon the rest of the batch.
func (app *App) RunScript(ctx context.Context) error {
	commands, err := LoadScript(app.scriptPath)
	if err != nil {
		return err
	}

	slog.Info("Running script.",
		"path", app.scriptPath,
		"commands", len(commands),
	)

	app.scriptQueue.Enqueue(commands...)

	err = app.scriptQueue.DequeueAndProcess(ctx, func(line string) int {
		out, err := app.Execute(line)
		if err != nil {
			if errors.Is(err, ui.ErrShellQuit) {
				slog.Warn("Command not available in scripts.",
					"command", line,
				)

				return queue.DecisionSkipped
			}

			slog.Error("Script command failed.",
				"command", line,
				"err", err,
			)

			return queue.DecisionSkipped
		}

		slog.Info("Script command succeeded.",
			"command", line,
			"output", out,
		)

		return queue.DecisionSuccess
	})
	if err != nil {
		return fmt.Errorf("(script) %w", err)
	}

	slog.Info("Script finished.",
		"succeeded", len(app.scriptQueue.GetSuccessful()),
		"skipped", len(app.scriptQueue.GetSkipped()),
	)

	return nil
}
