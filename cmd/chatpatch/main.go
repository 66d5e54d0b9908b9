package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/sokinpui/chatpatch/chatpatch"
	"github.com/sokinpui/chatpatch/cli"
	"github.com/sokinpui/chatpatch/internal/tui"
	"github.com/sokinpui/chatpatch/internal/ui"
)

func main() {
	// A .env file is optional; it may set CHATPATCH_LOG_FILE or NVIM.
	_ = godotenv.Load()

	cfg, err := cli.ParseFlags()
	if err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	app, err := chatpatch.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Flags that print to stdout and should not run the TUI.
	if cfg.StdoutMode() || cfg.Plain {
		summary, err := app.Execute(ctx)
		if err != nil {
			ui.Error("Error: %v", err)
			var detailed *chatpatch.DetailedError
			if errors.As(err, &detailed) {
				fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", detailed.Stack)
			}
			os.Exit(1)
		}
		if !cfg.ListDiffs && !cfg.History {
			ui.PrintSummary(summary)
		} else if summary.Message != "" {
			ui.Info("%s", summary.Message)
		}
		return
	}

	app.SetQuiet(true)
	m := tui.New(ctx, app)
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
	if fm, ok := final.(tui.Model); ok && fm.Err() != nil {
		os.Exit(1)
	}
}
