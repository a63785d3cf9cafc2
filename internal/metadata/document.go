package metadata

import (
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/recordflow/internal/core"
)

// TransformValidateFields is the only transformation type that affects
// processing. Other types are parsed and ignored.
const TransformValidateFields = "validate_fields"

// OutputFormat is the declared encoding of a sink file.
type OutputFormat string

const (
	FormatJSON OutputFormat = "JSON"
	FormatTXT  OutputFormat = "TXT"
)

var extensions = map[OutputFormat]string{
	FormatJSON: ".json",
	FormatTXT:  ".txt",
}

// Extension returns the file extension for f.
// Returns false for formats without a registered extension.
func (f OutputFormat) Extension() (string, bool) {
	ext, ok := extensions[f]
	return ext, ok
}

// SaveMode controls what happens to an existing sink file.
type SaveMode string

const (
	SaveOverwrite SaveMode = "OVERWRITE"
	SaveAppend    SaveMode = "APPEND"
)

// Document is a parsed metadata document.
type Document struct {
	Dataflows []Dataflow `json:"dataflows" yaml:"dataflows"`
}

// Dataflow groups the sources, transformations and sinks of one flow.
type Dataflow struct {
	Name            string           `json:"name" yaml:"name"`
	Sources         []Source         `json:"sources" yaml:"sources"`
	Transformations []Transformation `json:"transformations" yaml:"transformations"`
	Sinks           []Sink           `json:"sinks" yaml:"sinks"`
}

// Source is one physical input location.
type Source struct {
	Name   string `json:"name" yaml:"name"`
	Path   string `json:"path" yaml:"path"`
	Format string `json:"format" yaml:"format"`
}

// Location returns the file read for this source: path joined with name.
func (s Source) Location() string {
	return filepath.Join(s.Path, s.Name)
}

// Transformation is a declared processing step.
type Transformation struct {
	Name   string `json:"name" yaml:"name"`
	Type   string `json:"type" yaml:"type"`
	Params Params `json:"params" yaml:"params"`
}

// Params holds transformation parameters. Only Validations is used.
type Params struct {
	Input       string                `json:"input,omitempty" yaml:"input,omitempty"`
	Validations []core.ValidationRule `json:"validations,omitempty" yaml:"validations,omitempty"`
	AddFields   []AddField            `json:"addFields,omitempty" yaml:"addFields,omitempty"`
}

// AddField is a field declared by an add_fields transformation.
type AddField struct {
	Name     string `json:"name" yaml:"name"`
	Function string `json:"function" yaml:"function"`
}

// Sink is a destination declaration as written in the document.
type Sink struct {
	Input    string   `json:"input" yaml:"input"`
	Name     string   `json:"name" yaml:"name"`
	Paths    []string `json:"paths" yaml:"paths"`
	Format   string   `json:"format,omitempty" yaml:"format,omitempty"`
	SaveMode string   `json:"saveMode,omitempty" yaml:"saveMode,omitempty"`
}

// SinkConfig is a resolved sink with defaults applied.
type SinkConfig struct {
	Tag      core.PartitionTag
	Filename string
	Paths    []string
	Format   OutputFormat
	SaveMode SaveMode
}

// FilePath returns the file written under dir for this sink.
// Unknown formats get no extension.
func (c SinkConfig) FilePath(dir string) string {
	ext, _ := c.Format.Extension()
	return filepath.Join(dir, c.Filename+ext)
}

func resolveSink(s Sink) SinkConfig {
	format := OutputFormat(strings.ToUpper(strings.TrimSpace(s.Format)))
	if format == "" {
		format = FormatJSON
	}
	mode := SaveMode(strings.ToUpper(strings.TrimSpace(s.SaveMode)))
	if mode == "" {
		mode = SaveOverwrite
	}

	paths := make([]string, len(s.Paths))
	copy(paths, s.Paths)

	return SinkConfig{
		Tag:      core.PartitionTag(s.Input),
		Filename: s.Name,
		Paths:    paths,
		Format:   format,
		SaveMode: mode,
	}
}

// Names returns the dataflow names in declaration order.
func (d *Document) Names() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.Dataflows))
	for _, df := range d.Dataflows {
		names = append(names, df.Name)
	}
	return names
}

// Dataflow returns the first dataflow named name.
func (d *Document) Dataflow(name string) (*Dataflow, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Dataflows {
		if d.Dataflows[i].Name == name {
			return &d.Dataflows[i], true
		}
	}
	return nil, false
}

// flows returns the dataflows a lookup for name should search.
// An empty name searches every dataflow in declaration order.
func (d *Document) flows(name string) []Dataflow {
	if d == nil {
		return nil
	}
	if name == "" {
		return d.Dataflows
	}
	var out []Dataflow
	for _, df := range d.Dataflows {
		if df.Name == name {
			out = append(out, df)
		}
	}
	return out
}

// ValidationRulesFor returns the rules of the first validate_fields
// transformation found in declaration order. Returns nil if there is none.
func (d *Document) ValidationRulesFor(dataflow string) []core.ValidationRule {
	for _, df := range d.flows(dataflow) {
		for _, tr := range df.Transformations {
			if tr.Type == TransformValidateFields {
				return tr.Params.Validations
			}
		}
	}
	return nil
}

// SinkConfigFor returns the first sink whose input is tag, with defaults
// applied. Returns false if no such sink is declared.
func (d *Document) SinkConfigFor(dataflow string, tag core.PartitionTag) (SinkConfig, bool) {
	for _, df := range d.flows(dataflow) {
		for _, s := range df.Sinks {
			if core.PartitionTag(s.Input) == tag {
				return resolveSink(s), true
			}
		}
	}
	return SinkConfig{}, false
}

// SourcesFor returns the declared sources of dataflow.
func (d *Document) SourcesFor(dataflow string) []Source {
	var out []Source
	for _, df := range d.flows(dataflow) {
		out = append(out, df.Sources...)
	}
	return out
}
