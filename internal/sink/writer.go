// Package sink routes the two validation partitions to their configured
// destinations.
//
// Every (sink, path) pair is an independent unit of work: a failure in one
// never prevents the others from being attempted, and all outcomes are
// reported together so the caller decides what is fatal.
package sink

import (
	"context"

	"github.com/JonMunkholm/recordflow/internal/core"
	"github.com/JonMunkholm/recordflow/internal/metadata"
)

// Writer writes one partition to one file.
type Writer interface {
	Write(ctx context.Context, file string, records []core.Record, mode metadata.SaveMode) error
}

// WriterFunc adapts a function to the Writer interface.
type WriterFunc func(ctx context.Context, file string, records []core.Record, mode metadata.SaveMode) error

func (f WriterFunc) Write(ctx context.Context, file string, records []core.Record, mode metadata.SaveMode) error {
	return f(ctx, file, records, mode)
}

// Writers selects exactly one Writer per output format.
type Writers map[metadata.OutputFormat]Writer

// DefaultWriters returns the file writers for JSON and TXT sinks. Both
// write the partition as one JSON array; only the extension differs.
func DefaultWriters() Writers {
	fw := NewFileWriter()
	return Writers{
		metadata.FormatJSON: fw,
		metadata.FormatTXT:  fw,
	}
}
