// Command pipeline runs dataflow invocations: once, on a cron schedule, or
// whenever the invocation file or one of its sources changes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/recordflow/internal/config"
	"github.com/JonMunkholm/recordflow/internal/core"
	"github.com/JonMunkholm/recordflow/internal/loader"
	"github.com/JonMunkholm/recordflow/internal/logging"
	"github.com/JonMunkholm/recordflow/internal/metadata"
	"github.com/JonMunkholm/recordflow/internal/pipeline"
	"github.com/JonMunkholm/recordflow/internal/sink"
	"github.com/JonMunkholm/recordflow/internal/store"
)

type options struct {
	params   string
	metaPath string
	input    string
	schedule string
	dataflow string
	watch    bool
}

func parseFlags(cfg config.PipelineConfig) options {
	var o options
	flag.StringVar(&o.params, "params", cfg.ParamsPath, "invocation file (JSON or YAML) with metadata and optional input")
	flag.StringVar(&o.metaPath, "metadata", "", "metadata file, used when -params is not set")
	flag.StringVar(&o.input, "input", "", "inline input file (record list), used with -metadata")
	flag.StringVar(&o.schedule, "schedule", cfg.Schedule, "cron expression; empty runs once")
	flag.StringVar(&o.dataflow, "dataflow", cfg.Dataflow, "run a single dataflow; empty runs all")
	flag.BoolVar(&o.watch, "watch", cfg.Watch, "re-run when the invocation or a source file changes")
	flag.Parse()
	return o
}

// source builds the invocation loader. Files are reread on every call.
func (o options) source() (pipeline.InvocationSource, error) {
	switch {
	case o.params != "":
		return pipeline.FileSource(o.params), nil
	case o.metaPath != "":
		return func() (*metadata.Invocation, error) {
			doc, err := metadata.LoadFile(o.metaPath)
			if err != nil {
				return nil, err
			}
			inv := &metadata.Invocation{Metadata: doc}
			if o.input != "" {
				if inv.Input, err = metadata.LoadInputFile(o.input); err != nil {
					return nil, err
				}
			}
			return inv, nil
		}, nil
	default:
		return nil, errors.New("one of -params or -metadata is required")
	}
}

// watchTarget is the file whose edits trigger a run in watch mode.
func (o options) watchTarget() string {
	if o.params != "" {
		return o.params
	}
	return o.metaPath
}

func main() {
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	opts := parseFlags(cfg.Pipeline)
	source, err := opts.source()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		slog.Error("failed to open document store", "code", core.ErrorCode(err), "error", err)
		os.Exit(1)
	}
	if st != nil {
		defer st.Close(context.Background())
		slog.Info("document store enabled", "backend", cfg.Store.Backend)
	}

	runner := newRunner(cfg, opts, st)

	switch {
	case opts.schedule != "":
		err = runScheduled(ctx, opts.schedule, runner, source)
	case opts.watch:
		err = runWatched(ctx, opts, cfg.Pipeline.WatchDebounce, runner, source)
	default:
		err = runOnce(ctx, runner, source, os.Stdout)
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRunner(cfg *config.Config, opts options, st store.Store) pipeline.Runner {
	routerOpts := []sink.Option{sink.WithParallelism(cfg.Pipeline.WriteParallelism)}
	if st != nil {
		routerOpts = append(routerOpts, sink.WithDocumentWriter(st))
	}

	p := pipeline.New(
		loader.New(),
		core.NewEngine(core.DefaultRegistry()),
		sink.NewRouter(sink.DefaultWriters(), routerOpts...),
		pipeline.WithDataflow(opts.dataflow),
		pipeline.WithRequireSinks(cfg.Pipeline.RequireSinks),
	)
	return timeoutRunner{next: p, timeout: cfg.Pipeline.Timeout}
}

func runOnce(ctx context.Context, runner pipeline.Runner, source pipeline.InvocationSource, out io.Writer) error {
	inv, err := source()
	if err != nil {
		slog.Error("failed to load invocation", "code", core.ErrorCode(err), "error", err)
		return err
	}
	res, err := runner.Run(ctx, inv)
	printReport(out, res, err)
	return err
}

func runScheduled(ctx context.Context, spec string, runner pipeline.Runner, source pipeline.InvocationSource) error {
	s, err := pipeline.NewScheduler(spec, runner, source)
	if err != nil {
		slog.Error("invalid schedule", "error", err)
		return err
	}
	if err := s.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	<-s.Stop().Done()
	return nil
}

func runWatched(ctx context.Context, opts options, debounce time.Duration, runner pipeline.Runner, source pipeline.InvocationSource) error {
	inv, err := source()
	if err != nil {
		slog.Error("failed to load invocation", "code", core.ErrorCode(err), "error", err)
		return err
	}

	paths := pipeline.WatchPaths(opts.watchTarget(), inv)
	if opts.input != "" {
		paths = append(paths, opts.input)
	}

	run := func(ctx context.Context) {
		_ = runOnce(ctx, runner, source, os.Stdout)
	}

	w, err := pipeline.NewWatcher(paths, debounce, run)
	if err != nil {
		return err
	}

	run(ctx)
	return w.Run(ctx)
}
