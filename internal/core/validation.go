package core

// validation.go provides record-level validation and partitioning.
//
// Every rule and every validation name in a rule is evaluated, even after a
// failure, so a field can collect several messages. A name that is not in
// the registry counts as a failure. Records that collect no messages get a
// generation timestamp and go to the valid partition; the rest get their
// error map attached and go to the invalid partition. No record is dropped.

import (
	"fmt"
	"time"
)

// ValidationRule lists the validations to run against one field, in order.
type ValidationRule struct {
	Field       string   `json:"field" yaml:"field"`
	Validations []string `json:"validations" yaml:"validations"`
}

// RuleSource resolves the validation rules of a dataflow.
// Satisfied by *metadata.Document.
type RuleSource interface {
	ValidationRulesFor(dataflow string) []ValidationRule
}

// FailedMessage is the error-details entry for a predicate that returned false.
func FailedMessage(name string) string {
	return fmt.Sprintf("validation failed: %s", name)
}

// UnknownMessage is the error-details entry for an unregistered validation name.
func UnknownMessage(name string) string {
	return fmt.Sprintf("unknown validation: %s", name)
}

// Engine applies validation rules to records using an injected registry.
type Engine struct {
	registry *Registry
	now      func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the clock used for generation timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine backed by the given registry.
// A nil registry is replaced by DefaultRegistry.
func NewEngine(registry *Registry, opts ...EngineOption) *Engine {
	if registry == nil {
		registry = DefaultRegistry()
	}
	e := &Engine{registry: registry, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate evaluates rules against rec without modifying it.
// Returns nil if every validation passed.
func (e *Engine) Validate(rec Record, rules []ValidationRule) ErrorDetails {
	details := ErrorDetails{}

	for _, rule := range rules {
		value := rec[rule.Field]
		for _, name := range rule.Validations {
			pred, ok := e.registry.Lookup(name)
			if !ok {
				details.add(rule.Field, UnknownMessage(name))
				continue
			}
			if !pred(value) {
				details.add(rule.Field, FailedMessage(name))
			}
		}
	}

	if len(details) == 0 {
		return nil
	}
	return details
}

// Process validates and annotates each record, splitting the batch into
// valid and invalid partitions. Input order is kept within each partition.
func (e *Engine) Process(rules []ValidationRule, records []Record) Partitions {
	var p Partitions

	for _, rec := range records {
		if rec == nil {
			rec = Record{}
		}

		// Rules see the record as it arrived, annotation fields included.
		// Only the opposite annotation is dropped afterwards, so each record
		// ends with exactly one of the two.
		if details := e.Validate(rec, rules); details != nil {
			delete(rec, FieldTimestamp)
			rec[FieldErrorDetails] = details
			p.Invalid = append(p.Invalid, rec)
			continue
		}

		delete(rec, FieldErrorDetails)
		rec[FieldTimestamp] = e.now().Format(TimestampLayout)
		p.Valid = append(p.Valid, rec)
	}

	return p
}

// ProcessFor resolves the rules of dataflow from src and processes records.
// An empty dataflow name uses the first validation transformation declared.
func (e *Engine) ProcessFor(src RuleSource, dataflow string, records []Record) Partitions {
	var rules []ValidationRule
	if src != nil {
		rules = src.ValidationRulesFor(dataflow)
	}
	return e.Process(rules, records)
}
