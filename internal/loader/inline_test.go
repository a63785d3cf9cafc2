package loader

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/recordflow/internal/core"
)

func TestLoadInline(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int
		wantErr bool
	}{
		{"source wrapper", map[string]any{"source": []any{map[string]any{"a": 1}, map[string]any{"b": 2}}}, 2, false},
		{"bare list", []any{map[string]any{"a": 1}}, 1, false},
		{"typed records", []core.Record{{"a": 1}}, 1, false},
		{"typed maps", []map[string]any{{"a": 1}}, 1, false},
		{"empty list", []any{}, 0, false},
		{"missing source key", map[string]any{"records": []any{}}, 0, true},
		{"source not a list", map[string]any{"source": "x"}, 0, true},
		{"scalar element", []any{map[string]any{"a": 1}, json.Number("3")}, 0, true},
		{"null element", []any{nil}, 0, true},
		{"list element", []any{[]any{1}}, 0, true},
		{"string", "records", 0, true},
		{"nil", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadInline(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInlineShape)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestLoadInline_CopiesRecords(t *testing.T) {
	orig := map[string]any{"a": 1}
	recs, err := New().LoadInline([]any{orig})
	require.NoError(t, err)

	recs[0][core.FieldTimestamp] = "now"
	_, leaked := orig[core.FieldTimestamp]
	assert.False(t, leaked, "annotations must not leak into the invocation")
}
