// Package core provides the record validation engine and the types shared by
// every pipeline stage.
//
// This package holds the only decision logic of the pipeline. It has no
// knowledge of files, stores or HTTP, so it can be driven by the pipeline
// runner, the API server or tests without modification.
//
// # Architecture
//
// The package is organized around a few key concepts:
//
//   - Registry: Maps validation names to pure predicates over one field value.
//   - Engine: Applies validation rules to records and splits a batch into
//     valid and invalid partitions.
//   - Record: An open mapping of field name to value, annotated in place.
//   - Errors: Sentinels and typed errors shared by loaders, sinks and stores.
//
// # Validation Registry
//
// Validations are looked up by name. [DefaultRegistry] holds the built-in set;
// callers can add their own without touching the engine:
//
//	reg := core.DefaultRegistry()
//	reg.Register("isEmail", func(v any) bool {
//	    s, ok := v.(string)
//	    return ok && strings.Contains(s, "@")
//	})
//	engine := core.NewEngine(reg)
//
// # Processing
//
// [Engine.Process] evaluates every rule against every record:
//
//  1. Each validation named by a rule is looked up in the registry
//  2. Failed and unknown validations add a message under the rule's field
//  3. Records with messages get an error_details field and go to Invalid
//  4. All other records get a timestamp field and go to Valid
//
// Input count always equals valid count plus invalid count.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
package core
