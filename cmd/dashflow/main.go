// Package main is the entry point for the dashflow command runner.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dshills/dashflow/internal/app"
	"github.com/dshills/dashflow/internal/config"
	"github.com/dshills/dashflow/internal/watch"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath string
	fixtures   []string
	dashboard  string
	script     string
	logLevel   string
	watch      bool
	stats      bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	logger := app.NewLogger(app.LoggerConfig{
		Level:  app.ParseLogLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: os.Stderr,
		Name:   "dashflow",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := &runner{cfg: cfg, opts: opts, logger: logger}
	if !opts.watch {
		return r.runOnce(ctx)
	}
	return r.watchLoop(ctx)
}

// runOnce executes the script once and prints the report.
func (r *runner) runOnce(ctx context.Context) int {
	rep, err := r.execute(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := printReport(rep); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if rep.Failed > 0 {
		return 1
	}
	return 0
}

// watchLoop runs the script, then again every time the script or a fixture changes.
func (r *runner) watchLoop(ctx context.Context) int {
	w, err := watch.New(
		watch.WithDelay(r.cfg.Watch.Debounce.Duration),
		watch.WithLogger(app.WithComponent(r.logger, "watch")),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to watch: %v\n", err)
		return 1
	}
	defer w.Close()

	for _, path := range r.watchedFiles() {
		if err := w.Add(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: watch %s: %v\n", path, err)
			return 1
		}
	}

	r.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return 0
		case e, ok := <-w.Events():
			if !ok {
				return 0
			}
			r.logger.Info().Str("file", e.Path).Str("op", e.Op.String()).Msg("change detected, rerunning")
			r.runOnce(ctx)
		case err, ok := <-w.Errors():
			if !ok {
				return 0
			}
			r.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

func (r *runner) watchedFiles() []string {
	files := append([]string(nil), r.opts.fixtures...)
	if r.opts.script != "" {
		files = append(files, r.opts.script)
	}
	if r.opts.configPath != "" {
		if _, err := os.Stat(r.opts.configPath); err == nil {
			files = append(files, r.opts.configPath)
		}
	}
	return files
}

func printReport(rep *report) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	fixtures := func(value string) error {
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				opts.fixtures = append(opts.fixtures, p)
			}
		}
		return nil
	}

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.Func("fixtures", "Fixture files seeding the backend (repeatable, comma separated)", fixtures)
	flag.Func("f", "Fixture files seeding the backend (shorthand)", fixtures)
	flag.StringVar(&opts.dashboard, "dashboard", "", "Dashboard to initialize before the script (id:..., uri:... or identifier)")
	flag.StringVar(&opts.script, "script", "", "Script file with [[step]] commands")
	flag.StringVar(&opts.script, "s", "", "Script file (shorthand)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level overriding the configuration (trace, debug, info, warn, error, disabled)")
	flag.BoolVar(&opts.watch, "watch", false, "Rerun when the script, fixtures or configuration change")
	flag.BoolVar(&opts.stats, "stats", false, "Include dispatch metrics in the report")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "dashflow - dashboard command runner\n\n")
		fmt.Fprintf(os.Stderr, "Usage: dashflow [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  dashflow -f dashboards.toml -dashboard complex -s edit.toml\n")
		fmt.Fprintf(os.Stderr, "  dashflow -c dashflow.toml -f dashboards.toml -s edit.toml -watch\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("dashflow %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: unexpected arguments %v\n", flag.Args())
		os.Exit(1)
	}

	return opts
}
