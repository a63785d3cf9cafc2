package sink

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/recordflow/internal/core"
	"github.com/JonMunkholm/recordflow/internal/metadata"
)

func readJSONArray(t *testing.T, file string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(file)
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestFileWriter_Overwrite(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "dir", "raw-ok.json")
	w := NewFileWriter()
	ctx := context.Background()

	require.NoError(t, w.Write(ctx, file, []core.Record{{"n": json.Number("1")}, {"n": json.Number("2")}}, metadata.SaveOverwrite))
	require.NoError(t, w.Write(ctx, file, []core.Record{{"n": json.Number("3")}}, metadata.SaveOverwrite))

	got := readJSONArray(t, file)
	require.Len(t, got, 1)
	assert.Equal(t, float64(3), got[0]["n"])
}

func TestFileWriter_Append(t *testing.T) {
	file := filepath.Join(t.TempDir(), "raw-ko.json")
	w := NewFileWriter()
	ctx := context.Background()

	require.NoError(t, w.Write(ctx, file, []core.Record{{"n": json.Number("1")}}, metadata.SaveAppend))
	require.NoError(t, w.Write(ctx, file, []core.Record{{"n": json.Number("2")}, {"n": json.Number("3")}}, metadata.SaveAppend))

	got := readJSONArray(t, file)
	require.Len(t, got, 3, "append merges into one array")
	assert.Equal(t, float64(1), got[0]["n"])
	assert.Equal(t, float64(3), got[2]["n"])
}

func TestFileWriter_AppendPreservesLargeIntegers(t *testing.T) {
	file := filepath.Join(t.TempDir(), "big.json")
	w := NewFileWriter()
	ctx := context.Background()

	require.NoError(t, w.Write(ctx, file, []core.Record{{"id": json.Number("12345678901234567890")}}, metadata.SaveAppend))
	require.NoError(t, w.Write(ctx, file, []core.Record{{"id": json.Number("1")}}, metadata.SaveAppend))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "12345678901234567890")
}

func TestFileWriter_AppendRejectsNonArray(t *testing.T) {
	file := filepath.Join(t.TempDir(), "obj.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"not":"array"}`), 0o644))

	err := NewFileWriter().Write(context.Background(), file, []core.Record{{"a": "b"}}, metadata.SaveAppend)
	assert.ErrorIs(t, err, ErrNotArray)

	data, _ := os.ReadFile(file)
	assert.Equal(t, `{"not":"array"}`, string(data), "existing file is left untouched")
}

func TestFileWriter_EmptyPartition(t *testing.T) {
	file := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, NewFileWriter().Write(context.Background(), file, nil, metadata.SaveOverwrite))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestFileWriter_Indentation(t *testing.T) {
	file := filepath.Join(t.TempDir(), "indent.json")
	rec := core.Record{"name": "<Fran>", core.FieldErrorDetails: core.ErrorDetails{"age": {"validation failed: notNull"}}}
	require.NoError(t, NewFileWriter().Write(context.Background(), file, []core.Record{rec}, metadata.SaveOverwrite))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "\n    {\n        \"error_details\": {\n            \"age\": [\n")
	assert.Contains(t, text, `"<Fran>"`, "HTML characters are not escaped")
}

func TestFileWriter_UnknownMode(t *testing.T) {
	file := filepath.Join(t.TempDir(), "x.json")
	err := NewFileWriter().Write(context.Background(), file, nil, metadata.SaveMode("MERGE"))
	assert.Error(t, err)
	_, statErr := os.Stat(file)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileWriter_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "out.json")
	require.NoError(t, NewFileWriter().Write(context.Background(), file, []core.Record{{"a": 1}}, metadata.SaveOverwrite))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.json", entries[0].Name())
}
