package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/recordflow/internal/metadata"
)

func TestNewWatcher(t *testing.T) {
	_, err := NewWatcher(nil, 0, func(context.Context) {})
	assert.Error(t, err)

	w, err := NewWatcher([]string{"params.json"}, 0, func(context.Context) {})
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.debounce)
	assert.Len(t, w.files, 1)
}

func TestWatchPaths(t *testing.T) {
	inv := &metadata.Invocation{Metadata: &metadata.Document{Dataflows: []metadata.Dataflow{{
		Name:    "df",
		Sources: []metadata.Source{{Name: "people", Path: "/data/in"}},
	}}}}
	assert.Equal(t, []string{"params.json", filepath.Join("/data/in", "people")}, WatchPaths("params.json", inv))

	inv.Input = []any{}
	assert.Equal(t, []string{"params.json"}, WatchPaths("params.json", inv))
}

func TestWatcher_TriggersOnWrite(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "people")
	other := filepath.Join(dir, "unrelated")
	require.NoError(t, os.WriteFile(watched, []byte("{}\n"), 0o644))

	var calls atomic.Int32
	w, err := NewWatcher([]string{watched}, 20*time.Millisecond, func(context.Context) { calls.Add(1) })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))

	// Keep writing until the watcher is registered and the debounce fires.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(watched, []byte("{\"a\":1}\n"), 0o644)
		return calls.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
