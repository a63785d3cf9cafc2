package sink

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/recordflow/internal/core"
	"github.com/JonMunkholm/recordflow/internal/metadata"
	"github.com/JonMunkholm/recordflow/internal/store"
)

func testDoc(sinks ...metadata.Sink) *metadata.Document {
	return &metadata.Document{Dataflows: []metadata.Dataflow{{Name: "prueba-acceso", Sinks: sinks}}}
}

func testInput(doc *metadata.Document) RouteInput {
	return RouteInput{
		Metadata: doc,
		Dataflow: "prueba-acceso",
		Valid:    []core.Record{{"name": "Fran", core.FieldTimestamp: "2024-03-01 12:30:00"}},
		Invalid: []core.Record{
			{"name": "Xabier", core.FieldErrorDetails: core.ErrorDetails{"office": {"validation failed: notEmpty"}}},
			{"name": "Miguel", core.FieldErrorDetails: core.ErrorDetails{"age": {"validation failed: notNull"}}},
		},
		Summary: core.RunSummary{RunID: "run-1", Total: 3, Valid: 1, Invalid: 2},
	}
}

func TestRoute_FanOutIdenticalContent(t *testing.T) {
	base := t.TempDir()
	a, b := filepath.Join(base, "a"), filepath.Join(base, "b")
	doc := testDoc(
		metadata.Sink{Input: "ok_with_date", Name: "raw-ok", Paths: []string{a, b}},
		metadata.Sink{Input: "validation_ko", Name: "raw-ko", Paths: []string{filepath.Join(base, "ko")}},
	)

	for _, parallel := range []int{1, 4} {
		report := NewRouter(nil, WithParallelism(parallel)).Route(context.Background(), testInput(doc))
		require.NoError(t, report.Err())
		assert.Equal(t, 3, report.Written())

		dataA, err := os.ReadFile(filepath.Join(a, "raw-ok.json"))
		require.NoError(t, err)
		dataB, err := os.ReadFile(filepath.Join(b, "raw-ok.json"))
		require.NoError(t, err)
		assert.Equal(t, dataA, dataB)

		ko := readJSONArray(t, filepath.Join(base, "ko", "raw-ko.json"))
		assert.Len(t, ko, 2)
	}
}

func TestRoute_MissingInvalidSink(t *testing.T) {
	dir := t.TempDir()
	doc := testDoc(metadata.Sink{Input: "ok_with_date", Name: "raw-ok", Paths: []string{dir}})

	report := NewRouter(nil).Route(context.Background(), testInput(doc))

	cfgErrs := report.ConfigErrors()
	require.Len(t, cfgErrs, 1)
	assert.Equal(t, core.PartitionInvalid, cfgErrs[0].Tag)
	assert.ErrorIs(t, report.Err(), core.ErrSinkNotConfigured)
	assert.Empty(t, report.WriteErrors())

	_, err := os.Stat(filepath.Join(dir, "raw-ok.json"))
	assert.NoError(t, err, "valid partition is still written")
}

func TestRoute_NoMetadata(t *testing.T) {
	report := NewRouter(nil).Route(context.Background(), RouteInput{})
	assert.Len(t, report.ConfigErrors(), 2)
}

func TestRoute_FailureDoesNotStopOtherPaths(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	good := filepath.Join(base, "good")

	doc := testDoc(
		metadata.Sink{Input: "ok_with_date", Name: "raw-ok", Paths: []string{filepath.Join(blocker, "sub"), good}},
		metadata.Sink{Input: "validation_ko", Name: "raw-ko", Paths: []string{good}},
	)

	report := NewRouter(nil).Route(context.Background(), testInput(doc))

	writeErrs := report.WriteErrors()
	require.Len(t, writeErrs, 1)
	assert.ErrorIs(t, writeErrs[0], core.ErrWriteFailed)

	var we *core.WriteError
	require.True(t, errors.As(writeErrs[0], &we))
	assert.Equal(t, core.PartitionValid, we.Partition)

	assert.FileExists(t, filepath.Join(good, "raw-ok.json"))
	assert.FileExists(t, filepath.Join(good, "raw-ko.json"))
}

func TestRoute_FormatSelectsWriter(t *testing.T) {
	dir := t.TempDir()
	var mu sync.Mutex
	var seen []string
	record := WriterFunc(func(_ context.Context, file string, _ []core.Record, _ metadata.SaveMode) error {
		mu.Lock()
		seen = append(seen, file)
		mu.Unlock()
		return nil
	})

	doc := testDoc(
		metadata.Sink{Input: "ok_with_date", Name: "ok", Paths: []string{dir}, Format: "txt"},
		metadata.Sink{Input: "validation_ko", Name: "ko", Paths: []string{dir}, Format: "CSV"},
	)

	report := NewRouter(nil, WithWriter(metadata.FormatTXT, record)).Route(context.Background(), testInput(doc))

	assert.Equal(t, []string{filepath.Join(dir, "ok.txt")}, seen)
	writeErrs := report.WriteErrors()
	require.Len(t, writeErrs, 1)
	assert.ErrorIs(t, writeErrs[0], core.ErrUnsupportedFormat)
}

func TestRoute_SameFileAppendsInOrder(t *testing.T) {
	dir := t.TempDir()
	doc := testDoc(
		metadata.Sink{Input: "ok_with_date", Name: "all", Paths: []string{dir, dir}, SaveMode: "APPEND"},
		metadata.Sink{Input: "validation_ko", Name: "all", Paths: []string{dir}, SaveMode: "APPEND"},
	)

	report := NewRouter(nil, WithParallelism(8)).Route(context.Background(), testInput(doc))
	require.NoError(t, report.Err())

	got := readJSONArray(t, filepath.Join(dir, "all.json"))
	require.Len(t, got, 4)
	assert.Equal(t, "Fran", got[0]["name"])
	assert.Equal(t, "Fran", got[1]["name"])
	assert.Equal(t, "Xabier", got[2]["name"])
}

func TestRoute_DocumentStore(t *testing.T) {
	dir := t.TempDir()
	doc := testDoc(
		metadata.Sink{Input: "ok_with_date", Name: "ok", Paths: []string{dir}},
		metadata.Sink{Input: "validation_ko", Name: "ko", Paths: []string{dir}},
	)
	mem := store.NewMemory()

	report := NewRouter(nil, WithDocumentWriter(mem)).Route(context.Background(), testInput(doc))
	require.NoError(t, report.Err())

	last := report.Outcomes[len(report.Outcomes)-1]
	assert.Equal(t, DestinationStore, last.Destination)
	assert.Equal(t, 3, last.Records)

	ctx := context.Background()
	valid, _ := mem.ListValid(ctx)
	invalid, _ := mem.ListInvalid(ctx)
	history, _ := mem.ListSummaries(ctx)
	assert.Len(t, valid, 1)
	assert.Len(t, invalid, 2)
	require.Len(t, history, 1)
	assert.Equal(t, "run-1", history[0]["run_id"])
}

type brokenStore struct{ store.Writer }

func (brokenStore) InsertValid(context.Context, []core.Record) error   { return errors.New("down") }
func (brokenStore) InsertInvalid(context.Context, []core.Record) error { return errors.New("down") }
func (brokenStore) InsertSummary(context.Context, core.RunSummary) error {
	return errors.New("down")
}

func TestRoute_DocumentStoreFailureIsWriteError(t *testing.T) {
	dir := t.TempDir()
	doc := testDoc(
		metadata.Sink{Input: "ok_with_date", Name: "ok", Paths: []string{dir}},
		metadata.Sink{Input: "validation_ko", Name: "ko", Paths: []string{dir}},
	)

	report := NewRouter(nil, WithDocumentWriter(brokenStore{})).Route(context.Background(), testInput(doc))

	writeErrs := report.WriteErrors()
	require.Len(t, writeErrs, 1)
	assert.ErrorIs(t, writeErrs[0], core.ErrWriteFailed)
	assert.FileExists(t, filepath.Join(dir, "ok.json"))
}

func TestRoute_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	doc := testDoc(
		metadata.Sink{Input: "ok_with_date", Name: "ok", Paths: []string{dir}},
		metadata.Sink{Input: "validation_ko", Name: "ko", Paths: []string{dir}},
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := NewRouter(nil).Route(ctx, testInput(doc))
	assert.ErrorIs(t, report.Err(), context.Canceled)
	assert.Len(t, report.WriteErrors(), 2)
}

func TestRoute_OutputIsValidJSON(t *testing.T) {
	dir := t.TempDir()
	doc := testDoc(
		metadata.Sink{Input: "ok_with_date", Name: "ok", Paths: []string{dir}},
		metadata.Sink{Input: "validation_ko", Name: "ko", Paths: []string{dir}},
	)
	in := testInput(doc)
	in.Valid[0]["age"] = json.Number("31")

	require.NoError(t, NewRouter(nil).Route(context.Background(), in).Err())

	ok := readJSONArray(t, filepath.Join(dir, "ok.json"))
	require.Len(t, ok, 1)
	assert.Equal(t, float64(31), ok[0]["age"])
	assert.Equal(t, "2024-03-01 12:30:00", ok[0][core.FieldTimestamp])
}
