package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/recordflow/internal/core"
	"github.com/JonMunkholm/recordflow/internal/metadata"
)

// ErrNotArray is returned when an append target does not hold a JSON array.
var ErrNotArray = errors.New("existing file is not a JSON array")

// FileWriter writes a partition as an indented JSON array.
//
// OVERWRITE replaces the file. APPEND reads the existing array, appends the
// new records and rewrites the whole file, so the result is always a single
// valid array. Both modes write to a temporary file and rename it into
// place, so readers never see a partial file.
type FileWriter struct {
	Indent   string
	FileMode fs.FileMode
	DirMode  fs.FileMode
}

// NewFileWriter returns a writer with 4-space indentation.
func NewFileWriter() *FileWriter {
	return &FileWriter{Indent: "    ", FileMode: 0o644, DirMode: 0o755}
}

func (w *FileWriter) Write(ctx context.Context, file string, records []core.Record, mode metadata.SaveMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, w.DirMode); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	items := make([]any, 0, len(records))
	switch mode {
	case metadata.SaveOverwrite:
	case metadata.SaveAppend:
		existing, err := readArray(file)
		if err != nil {
			return err
		}
		items = append(items, existing...)
	default:
		return fmt.Errorf("unknown save mode %q", mode)
	}
	for _, rec := range records {
		items = append(items, rec)
	}

	data, err := w.encode(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", file, err)
	}
	return writeAtomic(file, data, w.FileMode)
}

func (w *FileWriter) encode(items []any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", w.Indent)
	if err := enc.Encode(items); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// readArray returns the elements of the JSON array in file.
// A missing or empty file is an empty array.
func readArray(file string) ([]any, error) {
	data, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var items []any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotArray, file, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: %s: trailing data", ErrNotArray, file)
	}
	return items, nil
}

func writeAtomic(file string, data []byte, perm fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(file), "."+filepath.Base(file)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", file, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", file, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", file, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", file, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod %s: %w", file, err)
	}
	if err := os.Rename(tmpName, file); err != nil {
		return fmt.Errorf("rename into %s: %w", file, err)
	}
	return nil
}
