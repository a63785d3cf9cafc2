package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/JonMunkholm/recordflow/internal/config"
	"github.com/JonMunkholm/recordflow/internal/core"
)

func samplePartitions() core.Partitions {
	return core.Partitions{
		Valid: []core.Record{
			{"name": "Fran", "age": json.Number("31"), "office": "RIO", core.FieldTimestamp: "2024-03-01 12:30:00"},
		},
		Invalid: []core.Record{
			{"name": "Xabier", "age": json.Number("39"), "office": "", core.FieldErrorDetails: core.ErrorDetails{"office": {"validation failed: notEmpty"}}},
			{"name": "Miguel", "office": "RIO", core.FieldErrorDetails: core.ErrorDetails{"age": {"validation failed: notNull"}}},
		},
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StoreConfig{Backend: config.BackendNone})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = Open(ctx, config.StoreConfig{Backend: "MEMORY"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = Open(ctx, config.StoreConfig{Backend: "redis"})
	assert.ErrorIs(t, err, core.ErrStore)
}

func TestMemory_WriteRunAndList(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	p := samplePartitions()
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	require.NoError(t, WriteRun(ctx, m, p, core.NewRunSummary("run-1", "prueba-acceso", p, at)))

	valid, err := m.ListValid(ctx)
	require.NoError(t, err)
	require.Len(t, valid, 1)
	assert.Equal(t, int64(31), valid[0]["age"], "numbers are normalised before insert")

	invalid, err := m.ListInvalid(ctx)
	require.NoError(t, err)
	require.Len(t, invalid, 2)
	assert.Equal(t, "Xabier", invalid[0]["name"])
	assert.Equal(t, map[string]any{"office": []any{"validation failed: notEmpty"}}, invalid[0][core.FieldErrorDetails])

	history, err := m.ListSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "run-1", history[0]["run_id"])
	assert.Equal(t, 3, history[0]["total"])
	assert.Equal(t, 1, history[0]["valid"])
	assert.Equal(t, 2, history[0]["invalid"])
	assert.Equal(t, "prueba-acceso", history[0]["dataflow"])
}

func TestMemory_OneSummaryPerRun(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i := 0; i < 3; i++ {
		require.NoError(t, WriteRun(ctx, m, core.Partitions{}, core.RunSummary{RunID: "r"}))
	}

	history, err := m.ListSummaries(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	valid, err := m.ListValid(ctx)
	require.NoError(t, err)
	assert.Empty(t, valid)
	assert.NotNil(t, valid, "empty lists encode as [] not null")
}

func TestMemory_ListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.InsertValid(ctx, []core.Record{{"a": "b"}}))

	first, _ := m.ListValid(ctx)
	first[0]["a"] = "changed"

	second, _ := m.ListValid(ctx)
	assert.Equal(t, "b", second[0]["a"])
}

type failingWriter struct{ calls int }

func (f *failingWriter) InsertValid(context.Context, []core.Record) error {
	f.calls++
	return errors.New("valid down")
}

func (f *failingWriter) InsertInvalid(context.Context, []core.Record) error {
	f.calls++
	return errors.New("invalid down")
}

func (f *failingWriter) InsertSummary(context.Context, core.RunSummary) error {
	f.calls++
	return nil
}

func TestWriteRun_AttemptsEveryStep(t *testing.T) {
	w := &failingWriter{}
	err := WriteRun(context.Background(), w, samplePartitions(), core.RunSummary{})

	require.Error(t, err)
	assert.Equal(t, 3, w.calls)
	assert.Contains(t, err.Error(), "valid down")
	assert.Contains(t, err.Error(), "invalid down")
}

func TestStoreError(t *testing.T) {
	assert.NoError(t, storeError("op", nil))

	cause := errors.New("boom")
	err := storeError("insert", cause)
	assert.ErrorIs(t, err, core.ErrStore)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "STO001", core.ErrorCode(err))
}

func TestPlainDocument(t *testing.T) {
	oid := bson.NewObjectID()
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	doc := bson.D{
		{Key: "_id", Value: oid},
		{Key: "name", Value: "Fran"},
		{Key: "age", Value: int64(31)},
		{Key: "error_details", Value: bson.D{{Key: "office", Value: bson.A{"validation failed: notEmpty"}}}},
		{Key: "meta", Value: bson.M{"ref": oid, "at": bson.NewDateTimeFromTime(when)}},
	}

	got := plainDocument(doc)

	_, hasID := got["_id"]
	assert.False(t, hasID)
	assert.Equal(t, "Fran", got["name"])
	assert.Equal(t, int64(31), got["age"])
	assert.Equal(t, map[string]any{"office": []any{"validation failed: notEmpty"}}, got["error_details"])
	meta, ok := got["meta"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, oid.Hex(), meta["ref"])
	at, ok := meta["at"].(time.Time)
	require.True(t, ok)
	assert.True(t, at.Equal(when))
}

func TestDecodeDocument(t *testing.T) {
	doc, err := decodeDocument([]byte(`{"age": 12345678901234567, "ratio": 0.5}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("12345678901234567"), doc["age"])
	assert.Equal(t, json.Number("0.5"), doc["ratio"])

	_, err = decodeDocument([]byte(`[1]`))
	assert.Error(t, err)
}
