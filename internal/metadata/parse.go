package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/recordflow/internal/core"
)

// Encoding is the text encoding of a metadata or invocation file.
type Encoding string

const (
	EncodingJSON Encoding = "json"
	EncodingYAML Encoding = "yaml"
)

// EncodingForPath picks the encoding from a file extension.
// Anything other than .yaml or .yml is treated as JSON.
func EncodingForPath(path string) Encoding {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return EncodingYAML
	default:
		return EncodingJSON
	}
}

// LoadFile loads and parses a metadata document from the given path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file %s: %w", path, err)
	}
	return Parse(data, EncodingForPath(path))
}

// Parse parses a metadata document. Unknown keys are ignored.
func Parse(data []byte, enc Encoding) (*Document, error) {
	var doc Document

	switch enc {
	case EncodingYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse metadata YAML: %w", err)
		}
	default:
		if err := decodeJSON(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse metadata JSON: %w", err)
		}
	}

	applyDefaults(&doc)
	return &doc, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(doc *Document) {
	for i := range doc.Dataflows {
		df := &doc.Dataflows[i]
		for j := range df.Sources {
			if df.Sources[j].Format == "" {
				df.Sources[j].Format = string(FormatJSON)
			}
		}
	}
}

// decodeJSON decodes with UseNumber so integers survive exactly.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// Invocation is one pipeline run request: the metadata document plus an
// optional inline record list.
type Invocation struct {
	Metadata *Document
	Input    any
}

// HasInput reports whether the invocation carries inline input.
func (inv *Invocation) HasInput() bool {
	return inv != nil && inv.Input != nil
}

// LoadInvocationFile loads and parses an invocation from the given path.
func LoadInvocationFile(path string) (*Invocation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read invocation file %s: %w", path, err)
	}
	return ParseInvocation(data, EncodingForPath(path))
}

// ParseInvocation parses {"metadata": ..., "input": ...}. A bare metadata
// document with top-level dataflows is accepted as an invocation without
// inline input. Returns core.ErrNoMetadata when neither form is present.
func ParseInvocation(data []byte, enc Encoding) (*Invocation, error) {
	if enc == EncodingYAML {
		return parseInvocationYAML(data)
	}
	return parseInvocationJSON(data)
}

func parseInvocationJSON(data []byte) (*Invocation, error) {
	var env struct {
		Metadata  json.RawMessage `json:"metadata"`
		Input     json.RawMessage `json:"input"`
		Dataflows json.RawMessage `json:"dataflows"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse invocation JSON: %w", err)
	}

	inv := &Invocation{}
	switch {
	case present(env.Metadata):
		doc, err := Parse(env.Metadata, EncodingJSON)
		if err != nil {
			return nil, err
		}
		inv.Metadata = doc
	case present(env.Dataflows):
		doc, err := Parse(data, EncodingJSON)
		if err != nil {
			return nil, err
		}
		inv.Metadata = doc
	default:
		return nil, core.ErrNoMetadata
	}

	if present(env.Input) {
		var input any
		if err := decodeJSON(env.Input, &input); err != nil {
			return nil, fmt.Errorf("failed to parse invocation input: %w", err)
		}
		inv.Input = input
	}
	return inv, nil
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func parseInvocationYAML(data []byte) (*Invocation, error) {
	var env struct {
		Metadata *Document `yaml:"metadata"`
		Input    any       `yaml:"input"`
	}
	if err := yaml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse invocation YAML: %w", err)
	}

	inv := &Invocation{Input: env.Input}
	if env.Metadata != nil {
		applyDefaults(env.Metadata)
		inv.Metadata = env.Metadata
		return inv, nil
	}

	var keys map[string]any
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("failed to parse invocation YAML: %w", err)
	}
	if _, ok := keys["dataflows"]; !ok {
		return nil, core.ErrNoMetadata
	}
	doc, err := Parse(data, EncodingYAML)
	if err != nil {
		return nil, err
	}
	inv.Metadata = doc
	return inv, nil
}

// LoadInputFile reads an inline input value, either a record list or an
// object with a "source" key, for use as Invocation.Input.
func LoadInputFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file %s: %w", path, err)
	}

	var input any
	if EncodingForPath(path) == EncodingYAML {
		err = yaml.Unmarshal(data, &input)
	} else {
		err = decodeJSON(data, &input)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse input file %s: %w", path, err)
	}
	return input, nil
}
