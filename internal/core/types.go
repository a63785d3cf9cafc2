package core

import (
	"encoding/json"
	"time"
)

// Field names attached to records by the engine.
const (
	FieldTimestamp    = "timestamp"
	FieldErrorDetails = "error_details"
)

// TimestampLayout is the layout of the generation timestamp on valid records.
const TimestampLayout = "2006-01-02 15:04:05"

// PartitionTag identifies one of the two validation outcomes.
// Sinks reference partitions by these tags in their "input" field.
type PartitionTag string

const (
	PartitionValid   PartitionTag = "ok_with_date"
	PartitionInvalid PartitionTag = "validation_ko"
)

// Valid reports whether t is one of the two well-known partition tags.
func (t PartitionTag) Valid() bool {
	return t == PartitionValid || t == PartitionInvalid
}

// Record is a single semi-structured input row, keyed by field name.
// Records are mutated in place exactly once by the Engine.
type Record map[string]any

// HasTimestamp reports whether the record carries the generation timestamp.
func (r Record) HasTimestamp() bool {
	_, ok := r[FieldTimestamp]
	return ok
}

// ErrorDetails returns the attached error map, if any.
func (r Record) ErrorDetails() (ErrorDetails, bool) {
	v, ok := r[FieldErrorDetails]
	if !ok {
		return nil, false
	}
	details, ok := v.(ErrorDetails)
	return details, ok
}

// ErrorDetails maps a field name to its failure messages, in evaluation order.
type ErrorDetails map[string][]string

func (d ErrorDetails) add(field, msg string) {
	d[field] = append(d[field], msg)
}

// Partitions is the engine's two-way split of one batch.
type Partitions struct {
	Valid   []Record
	Invalid []Record
}

// Total returns the number of records across both partitions.
func (p Partitions) Total() int {
	return len(p.Valid) + len(p.Invalid)
}

// RunSummary holds the aggregate counts of one processing run.
type RunSummary struct {
	RunID     string    `json:"run_id" bson:"run_id"`
	Dataflow  string    `json:"dataflow,omitempty" bson:"dataflow,omitempty"`
	Total     int       `json:"total" bson:"total"`
	Valid     int       `json:"valid" bson:"valid"`
	Invalid   int       `json:"invalid" bson:"invalid"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// NewRunSummary builds the summary for a finished engine pass.
func NewRunSummary(runID, dataflow string, p Partitions, at time.Time) RunSummary {
	return RunSummary{
		RunID:     runID,
		Dataflow:  dataflow,
		Total:     p.Total(),
		Valid:     len(p.Valid),
		Invalid:   len(p.Invalid),
		Timestamp: at,
	}
}

// Plain returns a deep copy of r with json.Number values converted to int64
// or float64 and ErrorDetails flattened to a plain map. Stores that cannot
// encode json.Number use it before insertion.
func Plain(r Record) map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case Record:
		return Plain(val)
	case map[string]any:
		return Plain(val)
	case ErrorDetails:
		m := make(map[string]any, len(val))
		for field, msgs := range val {
			list := make([]any, len(msgs))
			for i, msg := range msgs {
				list[i] = msg
			}
			m[field] = list
		}
		return m
	case []any:
		list := make([]any, len(val))
		for i, item := range val {
			list[i] = plainValue(item)
		}
		return list
	default:
		return v
	}
}
