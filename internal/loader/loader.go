// Package loader reads raw records into memory, either from the sources
// declared in a metadata document or from an inline list carried by the
// invocation.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/JonMunkholm/recordflow/internal/core"
	"github.com/JonMunkholm/recordflow/internal/logging"
	"github.com/JonMunkholm/recordflow/internal/metadata"
)

// DefaultMaxLineSize bounds a single line of a source file.
const DefaultMaxLineSize = 10 * 1024 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadFunc decodes every record of one source stream.
// Any error discards the records already read from that stream.
type ReadFunc func(r io.Reader, maxLine int) ([]core.Record, error)

// Result is the outcome of loading every declared source.
type Result struct {
	Records []core.Record
	Errors  []error // one *core.LoadError per source that contributed nothing
}

// Loader reads records from declared sources.
type Loader struct {
	maxLine int
	readers map[string]ReadFunc
}

// Option configures a Loader.
type Option func(*Loader)

// WithMaxLineSize overrides DefaultMaxLineSize.
func WithMaxLineSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxLine = n
		}
	}
}

// WithReader registers a reader for a source format. Format names are
// matched case-insensitively.
func WithReader(format string, fn ReadFunc) Option {
	return func(l *Loader) {
		l.readers[strings.ToUpper(format)] = fn
	}
}

// New creates a loader that understands line-delimited JSON sources.
func New(opts ...Option) *Loader {
	l := &Loader{
		maxLine: DefaultMaxLineSize,
		readers: map[string]ReadFunc{
			string(metadata.FormatJSON): ReadJSONLines,
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the sources of every dataflow in doc.
func (l *Loader) Load(ctx context.Context, doc *metadata.Document) (*Result, error) {
	return l.LoadFor(ctx, doc, "")
}

// LoadFor reads the sources of one dataflow, or of all when dataflow is
// empty. A missing or malformed source is recorded in Result.Errors and
// loading continues. The returned error is non-nil only if ctx is done.
func (l *Loader) LoadFor(ctx context.Context, doc *metadata.Document, dataflow string) (*Result, error) {
	logger := logging.FromContext(ctx)
	res := &Result{}

	for _, src := range doc.SourcesFor(dataflow) {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		records, size, err := l.loadSource(src)
		if err != nil {
			logger.Warn("source skipped",
				"source", src.Name,
				"path", src.Location(),
				"code", core.ErrorCode(err),
				"error", err,
			)
			res.Errors = append(res.Errors, err)
			continue
		}

		logger.Debug("source loaded", "source", src.Name, "records", len(records), "bytes", size)
		res.Records = append(res.Records, records...)
	}

	return res, nil
}

// loadSource returns the records of src and the number of bytes read.
func (l *Loader) loadSource(src metadata.Source) ([]core.Record, int64, error) {
	path := src.Location()
	loadErr := func(err error, line int) error {
		return &core.LoadError{Source: src.Name, Path: path, Line: line, Err: err}
	}

	read, ok := l.readers[strings.ToUpper(src.Format)]
	if !ok {
		return nil, 0, loadErr(fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, src.Format), 0)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, loadErr(core.ErrSourceNotFound, 0)
		}
		return nil, 0, loadErr(err, 0)
	}
	defer f.Close()

	cr := &countingReader{r: f}
	records, err := read(cr, l.maxLine)
	if err != nil {
		var le *lineError
		if errors.As(err, &le) {
			return nil, cr.n, loadErr(le.err, le.line)
		}
		return nil, cr.n, loadErr(err, 0)
	}
	return records, cr.n, nil
}

// countingReader tracks bytes read from a source.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type lineError struct {
	line int
	err  error
}

func (e *lineError) Error() string { return fmt.Sprintf("line %d: %v", e.line, e.err) }
func (e *lineError) Unwrap() error { return e.err }

// ReadJSONLines decodes one JSON object per non-blank line. A leading UTF-8
// BOM is skipped. Numbers are kept as json.Number.
func ReadJSONLines(r io.Reader, maxLine int) ([]core.Record, error) {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineSize
	}
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	scanner := bufio.NewScanner(br)
	// The effective limit is the larger of maxLine and the initial capacity.
	scanner.Buffer(make([]byte, 0, min(64*1024, maxLine)), maxLine)

	var records []core.Record
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		rec, err := decodeRecord(text)
		if err != nil {
			return nil, &lineError{line: line, err: fmt.Errorf("%w: %v", core.ErrMalformedRecord, err)}
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, &lineError{line: line + 1, err: fmt.Errorf("%w: %v", core.ErrMalformedRecord, err)}
	}

	return records, nil
}

func decodeRecord(data []byte) (core.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var rec core.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.New("null is not an object")
	}
	if dec.More() {
		return nil, errors.New("trailing data after object")
	}
	return rec, nil
}
