package registry

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"sync"
)

// DocumentName is the logical name of the task type registry document.
const DocumentName = "task_definitions"

var (
	// ErrNotFound is returned when no file backs a logical document name.
	ErrNotFound = errors.New("configuration not found")
	// ErrInvalid is returned when a document decodes but fails validation.
	ErrInvalid = errors.New("invalid configuration")
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// extensions are tried in order when resolving a logical name.
var extensions = []string{".yaml", ".yml", ".hcl"}

// Registry loads and caches structured configuration documents.
type Registry struct {
	fsys   fs.FS
	logger *slog.Logger

	mu     sync.Mutex
	cache  map[string]*Document
	failed map[string]error
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report load failures from accessors.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a registry reading documents from fsys.
func New(fsys fs.FS, opts ...Option) *Registry {
	r := &Registry{
		fsys:   fsys,
		logger: slog.Default(),
		cache:  make(map[string]*Document),
		failed: make(map[string]error),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewDir creates a registry reading documents from a directory on disk.
func NewDir(dir string, opts ...Option) *Registry {
	return New(os.DirFS(dir), opts...)
}

// NewDefault creates a registry backed by the built-in task definitions.
func NewDefault(opts ...Option) *Registry {
	sub, err := fs.Sub(defaultsFS, "defaults")
	if err != nil {
		// The embed pattern guarantees the directory exists.
		panic(fmt.Sprintf("registry: embedded defaults missing: %v", err))
	}
	return New(sub, opts...)
}

// Load returns the document registered under name, decoding it on first use.
// Later calls return the cached document without touching the file system.
// A name with no backing file fails with ErrNotFound.
func (r *Registry) Load(name string) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if doc, ok := r.cache[name]; ok {
		return doc, nil
	}
	if err, ok := r.failed[name]; ok {
		return nil, err
	}

	doc, err := r.read(name)
	if err != nil {
		r.failed[name] = err
		return nil, err
	}
	r.cache[name] = doc
	return doc, nil
}

func (r *Registry) read(name string) (*Document, error) {
	for _, ext := range extensions {
		file := name + ext
		data, err := fs.ReadFile(r.fsys, file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}

		var doc *Document
		if ext == ".hcl" {
			doc, err = decodeHCL(file, data)
		} else {
			doc, err = decodeYAML(data)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", file, err)
		}
		doc.Source = file
		if err := validateDocument(doc); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, file, err)
		}
		return doc, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// document returns the task definitions document, or an empty one if it
// cannot be loaded. The failure is logged once.
func (r *Registry) document() *Document {
	r.mu.Lock()
	_, seen := r.failed[DocumentName]
	r.mu.Unlock()

	doc, err := r.Load(DocumentName)
	if err != nil {
		if !seen {
			r.logger.Warn("Registry: Task definitions unavailable, using built-in fallbacks.", "error", err)
		}
		return emptyDocument()
	}
	return doc
}

// TaskDefinitions returns every task definition keyed by task type.
func (r *Registry) TaskDefinitions() map[string]TaskDefinition {
	return r.document().TaskDefinitions
}

// KnownTypes returns the sorted task type names.
func (r *Registry) KnownTypes() []string {
	defs := r.TaskDefinitions()
	out := make([]string, 0, len(defs))
	for name := range defs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsTaskType reports whether name is a registered task type.
func (r *Registry) IsTaskType(name string) bool {
	_, ok := r.TaskDefinitions()[name]
	return ok
}

// TaskDef returns the definition for a task type.
func (r *Registry) TaskDef(taskType string) (TaskDefinition, bool) {
	def, ok := r.TaskDefinitions()[taskType]
	return def, ok
}

// ColorScheme returns the named scheme, falling back to the default scheme.
func (r *Registry) ColorScheme(name string) map[string]string {
	schemes := r.document().ColorSchemes
	if s, ok := schemes[name]; ok {
		return s
	}
	return schemes[DefaultScheme]
}

// DefaultStyling returns the diagram-wide defaults.
func (r *Registry) DefaultStyling() Styling {
	return r.document().DefaultStyling
}

// DiagramDirection returns the default flowchart direction.
func (r *Registry) DiagramDirection() string {
	if d := r.DefaultStyling().DiagramDirection; d != "" {
		return d
	}
	return DefaultDirection
}

// TaskCategory returns the category of a task type, or DefaultCategory.
func (r *Registry) TaskCategory(taskType string) string {
	if def, ok := r.TaskDef(taskType); ok && def.Category != "" {
		return def.Category
	}
	return DefaultCategory
}

// TaskColor returns the fill color of a task type. The definition's own color
// wins, then the scheme's color for the task's category, then DefaultColor.
func (r *Registry) TaskColor(taskType, scheme string) string {
	if def, ok := r.TaskDef(taskType); ok && def.Color != "" {
		return def.Color
	}
	if c, ok := r.ColorScheme(scheme)[r.TaskCategory(taskType)]; ok && c != "" {
		return c
	}
	return DefaultColor
}

// TaskShape returns the node shape of a task type. The definition's own shape
// wins, then the shape for its category, then DefaultShape.
func (r *Registry) TaskShape(taskType string) string {
	if def, ok := r.TaskDef(taskType); ok && def.Shape != "" {
		return def.Shape
	}
	if s, ok := categoryShapes[r.TaskCategory(taskType)]; ok {
		return s
	}
	return DefaultShape
}

// TaskIcon returns the icon of a task type, or "".
func (r *Registry) TaskIcon(taskType string) string {
	def, _ := r.TaskDef(taskType)
	return def.Icon
}

// DisplayName returns the human readable name of a task type, or the type
// itself.
func (r *Registry) DisplayName(taskType string) string {
	if def, ok := r.TaskDef(taskType); ok && def.DisplayName != "" {
		return def.DisplayName
	}
	return taskType
}
