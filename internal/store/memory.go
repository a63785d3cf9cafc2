package store

import (
	"context"
	"sync"

	"github.com/JonMunkholm/recordflow/internal/core"
)

// Memory is a process-local Store.
type Memory struct {
	mu        sync.RWMutex
	valid     []map[string]any
	invalid   []map[string]any
	summaries []map[string]any
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) InsertValid(_ context.Context, records []core.Record) error {
	docs := plainRecords(records)
	m.mu.Lock()
	m.valid = append(m.valid, docs...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) InsertInvalid(_ context.Context, records []core.Record) error {
	docs := plainRecords(records)
	m.mu.Lock()
	m.invalid = append(m.invalid, docs...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) InsertSummary(_ context.Context, s core.RunSummary) error {
	m.mu.Lock()
	m.summaries = append(m.summaries, summaryDocument(s))
	m.mu.Unlock()
	return nil
}

func (m *Memory) ListValid(context.Context) ([]map[string]any, error) {
	return m.list(&m.valid), nil
}

func (m *Memory) ListInvalid(context.Context) ([]map[string]any, error) {
	return m.list(&m.invalid), nil
}

func (m *Memory) ListSummaries(context.Context) ([]map[string]any, error) {
	return m.list(&m.summaries), nil
}

// list returns a copy so callers cannot mutate stored documents.
func (m *Memory) list(docs *[]map[string]any) []map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]map[string]any, len(*docs))
	for i, d := range *docs {
		c := make(map[string]any, len(d))
		for k, v := range d {
			c[k] = v
		}
		out[i] = c
	}
	return out
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close(context.Context) error { return nil }
