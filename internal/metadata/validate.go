package metadata

import (
	"fmt"

	"github.com/JonMunkholm/recordflow/internal/core"
)

// Validate reports structural problems in the document. The result is
// advisory: lookups work on any document, so callers usually log these.
func (d *Document) Validate() []string {
	if d == nil {
		return []string{"document is empty"}
	}

	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(d.Dataflows) == 0 {
		add("no dataflows declared")
	}

	for i, df := range d.Dataflows {
		name := df.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
			add("dataflow %s has no name", name)
		}

		for _, src := range df.Sources {
			if src.Name == "" {
				add("dataflow %s: source without name", name)
			}
		}

		for _, tr := range df.Transformations {
			if tr.Type != TransformValidateFields {
				continue
			}
			for _, rule := range tr.Params.Validations {
				if rule.Field == "" {
					add("dataflow %s: transformation %s has a rule without field", name, tr.Name)
				}
			}
		}

		seen := make(map[core.PartitionTag]bool)
		for _, s := range df.Sinks {
			cfg := resolveSink(s)
			if !cfg.Tag.Valid() {
				add("dataflow %s: sink %s has unknown input %q", name, s.Name, s.Input)
				continue
			}
			if seen[cfg.Tag] {
				add("dataflow %s: more than one sink for %s, only the first is used", name, cfg.Tag)
			}
			seen[cfg.Tag] = true

			if len(cfg.Paths) == 0 {
				add("dataflow %s: sink %s has no paths", name, s.Name)
			}
			if _, ok := cfg.Format.Extension(); !ok {
				add("dataflow %s: sink %s has unknown format %q", name, s.Name, s.Format)
			}
			if cfg.SaveMode != SaveOverwrite && cfg.SaveMode != SaveAppend {
				add("dataflow %s: sink %s has unknown saveMode %q", name, s.Name, s.SaveMode)
			}
		}

		for _, tag := range []core.PartitionTag{core.PartitionValid, core.PartitionInvalid} {
			if !seen[tag] {
				add("dataflow %s: no sink for %s", name, tag)
			}
		}
	}

	return problems
}
