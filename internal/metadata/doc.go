// Package metadata provides the dataflow configuration model and its
// lookups.
//
// A metadata document declares, per dataflow, where records come from, which
// validations to run and where each validation outcome is written:
//
//	dataflows:
//	  - name: prueba-acceso
//	    sources:
//	      - name: person_inputs
//	        path: /data/input/events/person
//	        format: JSON
//	    transformations:
//	      - name: validation
//	        type: validate_fields
//	        params:
//	          validations:
//	            - field: office
//	              validations: [notEmpty]
//	    sinks:
//	      - input: ok_with_date
//	        name: raw-ok
//	        paths: [/data/output/events/person]
//	      - input: validation_ko
//	        name: raw-ko
//	        paths: [/data/output/discards/person]
//	        saveMode: APPEND
//
// Documents are read from JSON or YAML. Lookups never fail: a missing
// validation transformation yields no rules and a missing sink is reported
// through the boolean result of [Document.SinkConfigFor].
package metadata
