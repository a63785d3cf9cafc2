package core

import (
	"encoding/json"
	"fmt"
	"testing"
)

// ============================================================================
// Predicate Benchmarks
// ============================================================================

// BenchmarkIsInteger benchmarks the integer check across value kinds.
// This runs once per rule per record.
func BenchmarkIsInteger(b *testing.B) {
	testCases := []any{
		json.Number("39"),
		json.Number("12345678901234567890"), // beyond int64
		json.Number("39.5"),
		"abc",
		nil,
		42,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			IsInteger(tc)
		}
	}
}

// BenchmarkNotEmpty benchmarks the blank-string check.
func BenchmarkNotEmpty(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NotEmpty("  RIO  ")
	}
}

// ============================================================================
// Engine Benchmarks
// ============================================================================

func benchRecords(n int) []Record {
	records := make([]Record, n)
	for i := range records {
		rec := Record{"name": fmt.Sprintf("person-%d", i), "office": "RIO"}
		if i%3 != 0 {
			rec["age"] = json.Number(fmt.Sprint(20 + i%50))
		}
		records[i] = rec
	}
	return records
}

var benchRules = []ValidationRule{
	{Field: "office", Validations: []string{"notEmpty"}},
	{Field: "age", Validations: []string{"notNull", "isInteger", "positive"}},
}

// BenchmarkEngine_Process benchmarks a typical batch with one third invalid.
func BenchmarkEngine_Process(b *testing.B) {
	engine := NewEngine(nil)
	records := benchRecords(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Process(benchRules, records)
	}
}

// BenchmarkEngine_Validate benchmarks a single passing record.
func BenchmarkEngine_Validate(b *testing.B) {
	engine := NewEngine(nil)
	rec := Record{"office": "RIO", "age": json.Number("31")}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Validate(rec, benchRules)
	}
}
