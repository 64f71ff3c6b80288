package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"vislevel/internal/config"
	"vislevel/internal/level"
	"vislevel/internal/stack"
	"vislevel/internal/ui"
)

func main() {
	logPath := flag.String("log", "", "write logs to this file (the terminal belongs to the UI)")
	inspectAddr := flag.String("inspect-addr", "", "serve /levels and /events on this address")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vislevel: %v\n", err)
		os.Exit(1)
	}
	if *inspectAddr != "" {
		cfg.Inspect.Addr = *inspectAddr
	}

	var out io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "vislevel: open log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	level.SetDebug(cfg.Debug)

	events := make(chan level.Event, 64)
	st, err := stack.New(context.Background(), cfg, logger, &level.ChanHook{Ch: events})
	if err != nil {
		fmt.Fprintf(os.Stderr, "vislevel: %v\n", err)
		os.Exit(1)
	}
	if err := st.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "vislevel: %v\n", err)
		os.Exit(1)
	}

	app, err := ui.NewAppModel(st.Registry, st.Recorder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vislevel: %v\n", err)
		os.Exit(1)
	}
	app.WatchEvents(events)

	_, runErr := tea.NewProgram(app.AsTeaModel(), tea.WithAltScreen()).Run()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = st.Close(ctx)

	if runErr != nil {
		fmt.Printf("Error: %v\n", runErr)
		os.Exit(1)
	}
}
