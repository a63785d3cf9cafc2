// Package pipeline sequences the load, validate and route stages of a run.
//
// The pipeline holds no business logic of its own. Each stage receives the
// typed output of the previous one:
//
//	[]core.Record -> core.Partitions -> *sink.Report
//
// Every run gets a UUID that is attached to the context, to every log entry
// and to the run summary.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/recordflow/internal/core"
	"github.com/JonMunkholm/recordflow/internal/loader"
	"github.com/JonMunkholm/recordflow/internal/logging"
	"github.com/JonMunkholm/recordflow/internal/metadata"
	"github.com/JonMunkholm/recordflow/internal/sink"
)

// Runner executes one invocation.
type Runner interface {
	Run(ctx context.Context, inv *metadata.Invocation) (*Result, error)
}

// Result describes a finished run. It is returned even when Run fails after
// the load stage, so callers can report partial progress.
type Result struct {
	RunID      string
	Summary    core.RunSummary
	LoadErrors []error
	Report     *sink.Report
	Duration   time.Duration
}

// Pipeline wires the stages together.
type Pipeline struct {
	loader       *loader.Loader
	engine       *core.Engine
	router       *sink.Router
	dataflow     string
	requireSinks bool
	newID        func() string
	now          func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDataflow restricts runs to one dataflow. Empty means all.
func WithDataflow(name string) Option {
	return func(p *Pipeline) { p.dataflow = name }
}

// WithRequireSinks controls whether a partition without a sink aborts the
// run before anything is written (default true).
func WithRequireSinks(require bool) Option {
	return func(p *Pipeline) { p.requireSinks = require }
}

// WithIDGenerator overrides the run ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// WithClock overrides the clock used for the run summary.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a pipeline. Nil stages are replaced by their defaults.
func New(l *loader.Loader, e *core.Engine, r *sink.Router, opts ...Option) *Pipeline {
	if l == nil {
		l = loader.New()
	}
	if e == nil {
		e = core.NewEngine(nil)
	}
	if r == nil {
		r = sink.NewRouter(nil)
	}

	p := &Pipeline{
		loader:       l,
		engine:       e,
		router:       r,
		requireSinks: true,
		newID:        uuid.NewString,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one invocation.
//
// Returns core.ErrNoMetadata or core.ErrInlineShape before anything is
// loaded, a joined *core.ConfigError when sinks are required but missing,
// and the joined write errors after every destination has been attempted.
// Source load errors are recoverable and only reported in Result.
func (p *Pipeline) Run(ctx context.Context, inv *metadata.Invocation) (*Result, error) {
	if inv == nil || inv.Metadata == nil {
		return nil, core.ErrNoMetadata
	}
	doc := inv.Metadata

	runID := p.newID()
	ctx = core.ContextWithRunID(ctx, runID)
	if p.dataflow != "" {
		ctx = core.ContextWithDataflow(ctx, p.dataflow)
	}
	logger := logging.FromContext(ctx)
	start := time.Now()

	logger.Info("run started", "inline", inv.HasInput())
	for _, problem := range doc.Validate() {
		logger.Warn("metadata problem", "problem", problem)
	}

	res := &Result{RunID: runID}

	records, loadErrs, err := p.load(ctx, inv)
	res.LoadErrors = loadErrs
	if err != nil {
		logger.Error("run aborted", "stage", "load", "code", core.ErrorCode(err), "error", err)
		return res, err
	}

	parts := p.engine.ProcessFor(doc, p.dataflow, records)
	res.Summary = core.NewRunSummary(runID, p.dataflow, parts, p.now())
	logger.Info("records validated",
		"total", res.Summary.Total,
		"valid", res.Summary.Valid,
		"invalid", res.Summary.Invalid,
	)

	if p.requireSinks {
		if err := p.checkSinks(doc); err != nil {
			logger.Error("run aborted", "stage", "route", "code", core.ErrorCode(err), "error", err)
			res.Duration = time.Since(start)
			return res, err
		}
	}

	res.Report = p.router.Route(ctx, sink.RouteInput{
		Metadata: doc,
		Dataflow: p.dataflow,
		Valid:    parts.Valid,
		Invalid:  parts.Invalid,
		Summary:  res.Summary,
	})
	res.Duration = time.Since(start)

	if err := res.Report.Err(); err != nil {
		logger.Error("run finished with errors",
			"written", res.Report.Written(),
			"failed", len(res.Report.Outcomes)-res.Report.Written(),
			"duration_ms", res.Duration.Milliseconds(),
		)
		return res, err
	}

	logger.Info("run completed",
		"written", res.Report.Written(),
		"load_errors", len(res.LoadErrors),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// load returns the records of the invocation. The second result holds
// recoverable per-source errors; the third aborts the run.
func (p *Pipeline) load(ctx context.Context, inv *metadata.Invocation) ([]core.Record, []error, error) {
	logger := logging.FromContext(ctx)

	if inv.HasInput() {
		records, err := p.loader.LoadInline(inv.Input)
		if err != nil {
			return nil, nil, fmt.Errorf("load inline input: %w", err)
		}
		logger.Info("records loaded", "source", "inline", "count", len(records))
		return records, nil, nil
	}

	res, err := p.loader.LoadFor(ctx, inv.Metadata, p.dataflow)
	if err != nil {
		return nil, nil, fmt.Errorf("load sources: %w", err)
	}
	logger.Info("records loaded", "source", "files", "count", len(res.Records), "errors", len(res.Errors))
	return res.Records, res.Errors, nil
}

func (p *Pipeline) checkSinks(doc *metadata.Document) error {
	var errs []error
	for _, tag := range []core.PartitionTag{core.PartitionValid, core.PartitionInvalid} {
		if _, ok := doc.SinkConfigFor(p.dataflow, tag); !ok {
			errs = append(errs, &core.ConfigError{Dataflow: p.dataflow, Tag: tag})
		}
	}
	return errors.Join(errs...)
}
