package builder

import (
	"path"
	"strings"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/model"
)

// ReferenceParams are the task parameters that may name a rule file.
var ReferenceParams = []string{
	"criteria_descriptions_file",
	"merging_rules",
	"mapping_rules",
	"rules",
}

// placeholderFn is the helper flows use to build rule file paths at runtime.
const placeholderFn = "full_path"

// DefaultStrategies returns the strategies in the order the builder tries
// them.
func DefaultStrategies() []Strategy {
	return []Strategy{ExactFilenameStrategy{}, PartialPathStrategy{}, PlaceholderFallbackStrategy{}}
}

// ExactFilenameStrategy matches the first file whose name, extension
// included, occurs in the parameter text.
type ExactFilenameStrategy struct{}

func (ExactFilenameStrategy) Name() string { return "exact-filename" }

func (ExactFilenameStrategy) Match(_ *model.Task, v model.Value, files []string) []string {
	text, ok := literalText(v)
	if !ok {
		return nil
	}
	for _, f := range files {
		if strings.Contains(text, path.Base(f)) {
			return []string{f}
		}
	}
	return nil
}

// PartialPathStrategy matches the first file whose relative path occurs in,
// or ends, the parameter text.
type PartialPathStrategy struct{}

func (PartialPathStrategy) Name() string { return "partial-path" }

func (PartialPathStrategy) Match(_ *model.Task, v model.Value, files []string) []string {
	text, ok := literalText(v)
	if !ok {
		return nil
	}
	for _, f := range files {
		if strings.Contains(text, f) || strings.HasSuffix(text, f) {
			return []string{f}
		}
	}
	return nil
}

// PlaceholderFallbackStrategy handles references built at runtime with
// full_path(...). The path is unknown, so every file whose base name and the
// task ID contain one another is matched.
type PlaceholderFallbackStrategy struct{}

func (PlaceholderFallbackStrategy) Name() string { return "placeholder-fallback" }

func (PlaceholderFallbackStrategy) Match(task *model.Task, v model.Value, files []string) []string {
	if v.Kind != model.KindPlaceholder || v.Name != placeholderFn {
		return nil
	}
	var out []string
	for _, f := range files {
		stem := fileStem(f)
		if stem == "" {
			continue
		}
		if strings.Contains(task.ID, stem) || strings.Contains(stem, task.ID) {
			out = append(out, f)
		}
	}
	return out
}

// literalText returns the text of a string or identifier value. Placeholders
// are left to PlaceholderFallbackStrategy.
func literalText(v model.Value) (string, bool) {
	if v.Kind == model.KindPlaceholder {
		return "", false
	}
	return v.Text()
}

func fileStem(f string) string {
	base := path.Base(f)
	for _, ext := range []string{".yml", ".yaml"} {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			return base[:len(base)-len(ext)]
		}
	}
	return base
}
