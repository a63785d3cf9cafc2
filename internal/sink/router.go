package sink

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/recordflow/internal/core"
	"github.com/JonMunkholm/recordflow/internal/logging"
	"github.com/JonMunkholm/recordflow/internal/metadata"
	"github.com/JonMunkholm/recordflow/internal/store"
)

// Destination kinds reported in an Outcome.
const (
	DestinationFile  = "file"
	DestinationStore = "document-store"
)

// SinkResolver resolves the sink of a partition.
// Satisfied by *metadata.Document.
type SinkResolver interface {
	SinkConfigFor(dataflow string, tag core.PartitionTag) (metadata.SinkConfig, bool)
}

// RouteInput is everything one routing pass needs.
type RouteInput struct {
	Metadata SinkResolver
	Dataflow string
	Valid    []core.Record
	Invalid  []core.Record
	Summary  core.RunSummary
}

// Outcome is the result of one unit of work.
type Outcome struct {
	Partition   core.PartitionTag
	Destination string
	Path        string // file written, empty for the document store
	Records     int
	Err         error
}

// Report collects every outcome of a routing pass, in a stable order:
// valid sinks, invalid sinks, then the document store.
type Report struct {
	Outcomes []Outcome
}

// Err joins every failure. Returns nil if all destinations succeeded.
func (r *Report) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

// ConfigErrors returns the partitions that had no sink configured.
func (r *Report) ConfigErrors() []*core.ConfigError {
	var out []*core.ConfigError
	for _, o := range r.Outcomes {
		var ce *core.ConfigError
		if errors.As(o.Err, &ce) {
			out = append(out, ce)
		}
	}
	return out
}

// WriteErrors returns every failure that is not a configuration error.
func (r *Report) WriteErrors() []error {
	var out []error
	for _, o := range r.Outcomes {
		if o.Err != nil && !errors.Is(o.Err, core.ErrSinkNotConfigured) {
			out = append(out, o.Err)
		}
	}
	return out
}

// Written returns the number of destinations written successfully.
func (r *Report) Written() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// Router dispatches partitions to writers.
type Router struct {
	writers     Writers
	docs        store.Writer
	parallelism int
}

// Option configures a Router.
type Option func(*Router)

// WithDocumentWriter adds the document store as an extra destination that
// receives both partitions and the run summary.
func WithDocumentWriter(w store.Writer) Option {
	return func(r *Router) { r.docs = w }
}

// WithParallelism bounds how many files are written at once (default 1).
func WithParallelism(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// WithWriter registers or replaces the writer for a format.
func WithWriter(format metadata.OutputFormat, w Writer) Option {
	return func(r *Router) { r.writers[format] = w }
}

// NewRouter creates a router. A nil writer set uses DefaultWriters.
func NewRouter(writers Writers, opts ...Option) *Router {
	if writers == nil {
		writers = DefaultWriters()
	}
	ws := make(Writers, len(writers))
	for f, w := range writers {
		ws[f] = w
	}

	r := &Router{writers: ws, parallelism: 1}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type fileJob struct {
	sink    metadata.SinkConfig
	file    string
	records []core.Record
	writer  Writer
}

// Route writes each partition to every path of its sink and, if configured,
// to the document store. It never stops early: every destination is
// attempted and reported.
func (r *Router) Route(ctx context.Context, in RouteInput) *Report {
	logger := logging.FromContext(ctx)
	report := &Report{}

	var jobs []fileJob
	var jobOutcomes []int // index into report.Outcomes per job

	partitions := []struct {
		tag     core.PartitionTag
		records []core.Record
	}{
		{core.PartitionValid, in.Valid},
		{core.PartitionInvalid, in.Invalid},
	}

	for _, p := range partitions {
		var cfg metadata.SinkConfig
		ok := false
		if in.Metadata != nil {
			cfg, ok = in.Metadata.SinkConfigFor(in.Dataflow, p.tag)
		}
		if !ok {
			err := &core.ConfigError{Dataflow: in.Dataflow, Tag: p.tag}
			logger.Warn("partition not routed", "partition", p.tag, "records", len(p.records), "error", err)
			report.Outcomes = append(report.Outcomes, Outcome{
				Partition:   p.tag,
				Destination: DestinationFile,
				Records:     len(p.records),
				Err:         err,
			})
			continue
		}

		if len(cfg.Paths) == 0 {
			logger.Warn("sink has no paths", "partition", p.tag, "sink", cfg.Filename)
		}

		w, hasWriter := r.writers[cfg.Format]
		for _, dir := range cfg.Paths {
			file := cfg.FilePath(dir)
			outcome := Outcome{
				Partition:   p.tag,
				Destination: DestinationFile,
				Path:        file,
				Records:     len(p.records),
			}
			if !hasWriter {
				outcome.Err = &core.WriteError{
					Partition:   p.tag,
					Destination: file,
					Err:         fmt.Errorf("%w: no writer for %q", core.ErrUnsupportedFormat, cfg.Format),
				}
				report.Outcomes = append(report.Outcomes, outcome)
				continue
			}

			report.Outcomes = append(report.Outcomes, outcome)
			jobOutcomes = append(jobOutcomes, len(report.Outcomes)-1)
			jobs = append(jobs, fileJob{sink: cfg, file: file, records: p.records, writer: w})
		}
	}

	r.runJobs(ctx, jobs, func(i int, err error) {
		report.Outcomes[jobOutcomes[i]].Err = err
	})

	if r.docs != nil {
		p := core.Partitions{Valid: in.Valid, Invalid: in.Invalid}
		outcome := Outcome{Destination: DestinationStore, Records: p.Total()}
		if err := store.WriteRun(ctx, r.docs, p, in.Summary); err != nil {
			outcome.Err = &core.WriteError{Destination: DestinationStore, Err: err}
			logger.Error("document store write failed", "error", err)
		} else {
			logger.Info("document store written", "valid", len(in.Valid), "invalid", len(in.Invalid))
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	return report
}

// runJobs writes files under a bounded errgroup. Jobs targeting the same
// file run in one goroutine, in declaration order, so appends never race.
// Each job reports through done with its own index; goroutines never
// return an error, so one failure cannot cancel the others.
func (r *Router) runJobs(ctx context.Context, jobs []fileJob, done func(i int, err error)) {
	var order []string
	groups := make(map[string][]int)
	for i, j := range jobs {
		if _, seen := groups[j.file]; !seen {
			order = append(order, j.file)
		}
		groups[j.file] = append(groups[j.file], i)
	}

	errs := make([]error, len(jobs))

	var g errgroup.Group
	g.SetLimit(r.parallelism)
	for _, file := range order {
		idx := groups[file]
		g.Go(func() error {
			for _, i := range idx {
				errs[i] = r.write(ctx, jobs[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		done(i, err)
	}
}

func (r *Router) write(ctx context.Context, j fileJob) error {
	logger := logging.WithFields(ctx, "partition", j.sink.Tag, "path", j.file)

	if err := j.writer.Write(ctx, j.file, j.records, j.sink.SaveMode); err != nil {
		logger.Error("partition write failed", "error", err)
		return &core.WriteError{Partition: j.sink.Tag, Destination: j.file, Err: err}
	}

	logger.Info("partition written", "records", len(j.records), "mode", j.sink.SaveMode)
	return nil
}
