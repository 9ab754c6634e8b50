package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/desertwitch/blockfs/internal/ui"
)

// RunShell runs the interactive terminal shell until the user quits, the
// input ends or the context is cancelled.
func (app *App) RunShell(ctx context.Context) error {
	slog.Info("Entering the interactive shell.",
		"hint", "type 'help' for usage",
	)

	scanner := bufio.NewScanner(os.Stdin)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		fmt.Print("blockfs> ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("(shell) %w", err)
			}

			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		out, err := app.Execute(line)
		if err != nil {
			if errors.Is(err, ui.ErrShellQuit) {
				return nil
			}

			fmt.Printf("error: %v\n", err)

			continue
		}

		if out != "" {
			fmt.Println(out)
		}
	}
}
