package builder

import (
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/model"
)

// Sources gives the builder access to the files of one object directory.
//
// fsutil.Locator is the implementation used by the CLI. Tests may supply any
// layout as long as the paths exist on disk.
type Sources interface {
	// Root returns the object directory. Rule file paths are reported relative
	// to it.
	Root() string
	// FlowFile returns the path of the flow source file, or an error when the
	// object has none.
	FlowFile() (string, error)
	// ConfigFiles returns the YAML rule files keyed by category.
	ConfigFiles() (map[string][]string, error)
}

// Strategy matches the value of a rule-file reference parameter against the
// parsed rule files.
//
// The builder tries its strategies in order for every reference parameter and
// stops at the first one that returns a match. files holds object-relative
// slash paths in discovery order.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string
	// Match returns the referenced files, or nil when the strategy does not
	// apply to v.
	Match(task *model.Task, v model.Value, files []string) []string
}
