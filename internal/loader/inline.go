package loader

import (
	"fmt"

	"github.com/JonMunkholm/recordflow/internal/core"
)

// InlineSourceKey is the key holding the record list in inline input.
const InlineSourceKey = "source"

// LoadInline converts inline input into records. It accepts either
// {"source": [...]} or the bare list. Every element must be an object;
// otherwise nothing is returned and the error wraps core.ErrInlineShape.
func (l *Loader) LoadInline(value any) ([]core.Record, error) {
	return LoadInline(value)
}

// LoadInline is the package-level form of (*Loader).LoadInline.
func LoadInline(value any) ([]core.Record, error) {
	switch v := value.(type) {
	case map[string]any:
		return inlineList(v)
	case core.Record:
		return inlineList(v)
	}
	return inlineItems(value)
}

func inlineList(m map[string]any) ([]core.Record, error) {
	list, ok := m[InlineSourceKey]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q key", core.ErrInlineShape, InlineSourceKey)
	}
	return inlineItems(list)
}

func inlineItems(value any) ([]core.Record, error) {
	switch items := value.(type) {
	case []core.Record:
		out := make([]core.Record, len(items))
		for i, rec := range items {
			if rec == nil {
				return nil, fmt.Errorf("%w: element %d is null", core.ErrInlineShape, i)
			}
			out[i] = copyRecord(rec)
		}
		return out, nil
	case []map[string]any:
		out := make([]core.Record, len(items))
		for i, rec := range items {
			if rec == nil {
				return nil, fmt.Errorf("%w: element %d is null", core.ErrInlineShape, i)
			}
			out[i] = copyRecord(rec)
		}
		return out, nil
	case []any:
		out := make([]core.Record, len(items))
		for i, item := range items {
			rec, ok := asRecord(item)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %T", core.ErrInlineShape, i, item)
			}
			out[i] = rec
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: got %T", core.ErrInlineShape, value)
	}
}

func asRecord(v any) (core.Record, bool) {
	switch m := v.(type) {
	case map[string]any:
		if m == nil {
			return nil, false
		}
		return copyRecord(m), true
	case core.Record:
		if m == nil {
			return nil, false
		}
		return copyRecord(m), true
	default:
		return nil, false
	}
}

// copyRecord is shallow: the engine only adds top-level keys.
func copyRecord(m map[string]any) core.Record {
	rec := make(core.Record, len(m)+1)
	for k, v := range m {
		rec[k] = v
	}
	return rec
}
