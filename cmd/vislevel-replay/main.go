package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vislevel/internal/config"
	"vislevel/internal/level"
	"vislevel/internal/replay"
	"vislevel/internal/stack"
	"vislevel/internal/ui"
)

// options holds the parsed CLI configuration for a replay.
type options struct {
	scenario        string
	continueOnError bool
	jsonOutput      bool
	verbose         bool
	hold            bool

	// Overrides applied on top of the loaded config when the flag is set.
	debug        bool
	strictClear  bool
	otlpEndpoint string
	inspectAddr  string
	metrics      bool
}

func parseFlags() (options, map[string]bool) {
	var opts options

	flag.StringVar(&opts.scenario, "scenario", "", "scenario file to replay, - for stdin (required)")
	flag.BoolVar(&opts.continueOnError, "continue", false, "keep going after a failed step")
	flag.BoolVar(&opts.jsonOutput, "json", false, "print the result as JSON")
	flag.BoolVar(&opts.verbose, "verbose", false, "print each notification as it is replayed")
	flag.BoolVar(&opts.hold, "hold", false, "keep the inspection server up until interrupted")
	flag.BoolVar(&opts.debug, "debug", false, "log every registry event")
	flag.BoolVar(&opts.strictClear, "strict-clear", false, "notify the selected item when a level is cleared")
	flag.StringVar(&opts.otlpEndpoint, "otlp-endpoint", "", "OTLP/HTTP endpoint for event spans")
	flag.StringVar(&opts.inspectAddr, "inspect-addr", "", "serve /levels and /events on this address")
	flag.BoolVar(&opts.metrics, "metrics", false, "expose Prometheus metrics on the inspection server")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vislevel-replay -scenario FILE [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Replays a visibility scenario against a fresh registry and\n")
		fmt.Fprintf(os.Stderr, "prints the resulting level tree.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if opts.scenario == "" && flag.NArg() == 1 {
		opts.scenario = flag.Arg(0)
	}
	if opts.scenario == "" {
		fmt.Fprintln(os.Stderr, "error: --scenario is required")
		flag.Usage()
		os.Exit(1)
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return opts, set
}

// merge applies explicitly set flags over the loaded config.
func merge(cfg config.Config, opts options, set map[string]bool) config.Config {
	if set["debug"] {
		cfg.Debug = opts.debug
	}
	if set["strict-clear"] {
		cfg.StrictClear = opts.strictClear
	}
	if set["otlp-endpoint"] {
		cfg.Trace.OTLPEndpoint = opts.otlpEndpoint
	}
	if set["inspect-addr"] {
		cfg.Inspect.Addr = opts.inspectAddr
	}
	if set["metrics"] {
		cfg.Metrics.Enabled = opts.metrics
	}
	return cfg
}

func openScenario(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

type jsonResult struct {
	Steps         int                   `json:"steps"`
	Failures      []string              `json:"failures,omitempty"`
	Notifications []replay.Notification `json:"notifications"`
	Levels        []level.LevelState    `json:"levels"`
}

func run(opts options, cfg config.Config) error {
	if opts.verbose {
		log.Printf("config: scenario=%s continue=%v strict-clear=%v otlp=%q inspect=%q metrics=%v",
			opts.scenario, opts.continueOnError, cfg.StrictClear, cfg.Trace.OTLPEndpoint, cfg.Inspect.Addr, cfg.Metrics.Enabled)
	}

	f, err := openScenario(opts.scenario)
	if err != nil {
		return fmt.Errorf("scenario %q: %w", opts.scenario, err)
	}
	steps, err := replay.Parse(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("scenario %q: %w", opts.scenario, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	level.SetDebug(cfg.Debug)

	st, err := stack.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := st.Start(); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = st.Close(shutdownCtx)
	}()

	runner := replay.NewRunner(st.Registry,
		replay.WithLogger(logger),
		replay.ContinueOnError(opts.continueOnError),
	)
	res, runErr := runner.Run(ctx, steps)

	if opts.verbose {
		for _, n := range res.Notifications {
			log.Printf("line %d: %s/%s visible=%v", n.Line, n.Level, n.Item, n.Visible)
		}
	}

	if opts.jsonOutput {
		out := jsonResult{
			Steps:         res.Steps,
			Notifications: res.Notifications,
			Levels:        st.Registry.Snapshot(),
		}
		for _, fail := range res.Failures {
			out.Failures = append(out.Failures, fail.Error())
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		fmt.Println(ui.RenderTree(st.Registry.Snapshot()))
		for _, fail := range res.Failures {
			fmt.Printf("failed: %v\n", fail)
		}
	}

	if runErr != nil {
		return runErr
	}

	if opts.hold && st.Server != nil {
		fmt.Fprintf(os.Stderr, "vislevel-replay: inspecting on http://%s (ctrl+c to exit)\n", st.Server.Addr())
		<-ctx.Done()
	}

	if len(res.Failures) > 0 {
		return fmt.Errorf("%d step(s) failed", len(res.Failures))
	}
	return nil
}

func main() {
	opts, set := parseFlags()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vislevel-replay: %v\n", err)
		os.Exit(1)
	}
	if err := run(opts, merge(cfg, opts, set)); err != nil {
		fmt.Fprintf(os.Stderr, "vislevel-replay: %v\n", err)
		os.Exit(1)
	}
}
