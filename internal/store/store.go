// Package store persists processed partitions and run summaries to a
// document store and reads them back for the API.
//
// Three collections are kept: valid records, invalid records and the run
// history. Reads never expose the store's internal identifier.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/recordflow/internal/config"
	"github.com/JonMunkholm/recordflow/internal/core"
)

// Writer persists one run's output.
type Writer interface {
	InsertValid(ctx context.Context, records []core.Record) error
	InsertInvalid(ctx context.Context, records []core.Record) error
	InsertSummary(ctx context.Context, summary core.RunSummary) error
}

// Reader lists stored documents in insertion order.
type Reader interface {
	ListValid(ctx context.Context) ([]map[string]any, error)
	ListInvalid(ctx context.Context) ([]map[string]any, error)
	ListSummaries(ctx context.Context) ([]map[string]any, error)
}

// Store is a connected document store.
type Store interface {
	Reader
	Writer
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects to the backend selected by cfg.Backend.
// Returns nil and no error for the none backend.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.BackendNone, "":
		return nil, nil
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendMongo:
		return OpenMongo(ctx, cfg.Mongo, cfg.Timeout)
	case config.BackendPostgres:
		return OpenPostgres(ctx, cfg.Postgres, cfg.Timeout)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", core.ErrStore, cfg.Backend)
	}
}

// WriteRun inserts both partitions and one summary. Every step is attempted
// and the failures are joined.
func WriteRun(ctx context.Context, w Writer, p core.Partitions, summary core.RunSummary) error {
	var errs []error
	if len(p.Valid) > 0 {
		if err := w.InsertValid(ctx, p.Valid); err != nil {
			errs = append(errs, err)
		}
	}
	if len(p.Invalid) > 0 {
		if err := w.InsertInvalid(ctx, p.Invalid); err != nil {
			errs = append(errs, err)
		}
	}
	if err := w.InsertSummary(ctx, summary); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// storeError wraps err so errors.Is(err, core.ErrStore) holds.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", core.ErrStore, op, err)
}

// summaryDocument is the stored form of a run summary.
func summaryDocument(s core.RunSummary) map[string]any {
	doc := map[string]any{
		"run_id":    s.RunID,
		"total":     s.Total,
		"valid":     s.Valid,
		"invalid":   s.Invalid,
		"timestamp": s.Timestamp,
	}
	if s.Dataflow != "" {
		doc["dataflow"] = s.Dataflow
	}
	return doc
}

func plainRecords(records []core.Record) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, rec := range records {
		out[i] = core.Plain(rec)
	}
	return out
}
