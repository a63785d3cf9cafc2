package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/recordflow/internal/core"
	"github.com/JonMunkholm/recordflow/internal/metadata"
	"github.com/JonMunkholm/recordflow/internal/pipeline"
)

// timeoutRunner bounds each run. A zero timeout disables the bound.
type timeoutRunner struct {
	next    pipeline.Runner
	timeout time.Duration
}

func (t timeoutRunner) Run(ctx context.Context, inv *metadata.Invocation) (*pipeline.Result, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return t.next.Run(ctx, inv)
}

// printReport writes a human-readable summary of one run.
func printReport(w io.Writer, res *pipeline.Result, runErr error) {
	if res == nil {
		msg := core.MapError(runErr)
		fmt.Fprintf(w, "run failed [%s] %s: %v\n", msg.Code, msg.Message, runErr)
		if msg.Action != "" {
			fmt.Fprintf(w, "  action: %s\n", msg.Action)
		}
		return
	}

	fmt.Fprintf(w, "run %s\n", res.RunID)
	fmt.Fprintf(w, "  records: %d total, %d valid, %d invalid\n",
		res.Summary.Total, res.Summary.Valid, res.Summary.Invalid)

	for _, err := range res.LoadErrors {
		fmt.Fprintf(w, "  skipped [%s] %v\n", core.ErrorCode(err), err)
	}

	if res.Report != nil {
		for _, o := range res.Report.Outcomes {
			target := o.Path
			if target == "" {
				target = o.Destination
			}
			label := string(o.Partition)
			if label == "" {
				label = "all"
			}
			if o.Err != nil {
				fmt.Fprintf(w, "  %-13s -> %s: FAILED [%s] %v\n", label, target, core.ErrorCode(o.Err), o.Err)
				continue
			}
			fmt.Fprintf(w, "  %-13s -> %s: %d records\n", label, target, o.Records)
		}
	}

	switch {
	case runErr == nil:
		fmt.Fprintf(w, "  status: ok (%s)\n", res.Duration.Round(time.Millisecond))
	case res.Report == nil:
		// Aborted before routing; nothing was written.
		for _, err := range unjoin(runErr) {
			msg := core.MapError(err)
			fmt.Fprintf(w, "  aborted [%s] %v\n", msg.Code, err)
			if msg.Action != "" {
				fmt.Fprintf(w, "    action: %s\n", msg.Action)
			}
		}
	default:
		fmt.Fprintf(w, "  status: %d of %d destinations failed\n",
			len(res.Report.Outcomes)-res.Report.Written(), len(res.Report.Outcomes))
	}
}

// unjoin splits an errors.Join result into its parts.
func unjoin(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
