package pyflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/ctxlog"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/model"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/registry"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

var (
	// ErrNotFound is returned when the flow file does not exist or is not a
	// regular file.
	ErrNotFound = errors.New("flow file not found")
	// ErrWrongExtension is returned for files that are not .py.
	ErrWrongExtension = errors.New("flow file must be a .py file")
)

// Registry is the part of the task type registry the parser consults.
type Registry interface {
	IsTaskType(name string) bool
	TaskDef(taskType string) (registry.TaskDefinition, bool)
	TaskCategory(taskType string) string
	TaskColor(taskType, scheme string) string
}

// Keyword arguments that carry data from an upstream task.
const (
	argInputTable = "input_table"
	argInputPaths = "input_paths"
	argTaskArgs   = "task_args"
)

// Option configures a Parser.
type Option func(*Parser)

// WithScheme selects the color scheme used when enriching tasks.
func WithScheme(scheme string) Option {
	return func(p *Parser) {
		if scheme != "" {
			p.scheme = scheme
		}
	}
}

// Parser extracts a FlowAnalysis from one flow source file.
type Parser struct {
	path    string
	content []byte
	reg     Registry
	scheme  string
}

// NewParser checks and reads the file at path.
func NewParser(path string, reg Registry, opts ...Option) (*Parser, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a file", ErrNotFound, path)
	}
	if strings.ToLower(filepath.Ext(path)) != ".py" {
		return nil, fmt.Errorf("%w: %s", ErrWrongExtension, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	p := &Parser{path: path, content: content, reg: reg, scheme: registry.DefaultScheme}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Path returns the file the parser is bound to.
func (p *Parser) Path() string { return p.path }

// ObjectName returns the name of the BMF object owning the flow file, which
// is the directory above flows/.
func (p *Parser) ObjectName() string {
	abs, err := filepath.Abs(p.path)
	if err != nil {
		abs = p.path
	}
	return filepath.Base(filepath.Dir(filepath.Dir(abs)))
}

// Parse analyzes the flow source. It never returns nil and never panics;
// problems are recorded on the analysis.
func (p *Parser) Parse(ctx context.Context) (a *model.FlowAnalysis) {
	logger := ctxlog.FromContext(ctx).With("file", p.path)
	a = model.NewFlowAnalysis(p.ObjectName(), p.path)

	defer func() {
		if r := recover(); r != nil {
			a.Tasks, a.Edges = nil, nil
			a.Errors = append(a.Errors, fmt.Sprintf("Unexpected error during parsing: %v", r))
			logger.Error("Parse: Unexpected failure while parsing flow.", "panic", r)
		}
	}()

	logger.Debug("Parse: Parsing flow source.", "bytes", len(p.content))

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, p.content)
	if err != nil {
		a.Errors = append(a.Errors, fmt.Sprintf("Unexpected error during parsing: %v", err))
		return a
	}
	defer tree.Close()

	root := tree.RootNode()
	if msg := syntaxError(root); msg != "" {
		a.Errors = append(a.Errors, "Python syntax error: "+msg)
		logger.Warn("Parse: Flow source has a syntax error.", "error", msg)
		return a
	}
	a.RawMetadata["line_count"] = int(root.EndPoint().Row) + 1

	s := &scan{src: p.content, path: p.path, reg: p.reg}
	s.collectAssignments(root)

	passes := []struct {
		name string
		run  func(*model.FlowAnalysis)
	}{
		{"discover tasks", s.discoverTasks},
		{"explicit dependencies", s.explicitDependencies},
		{"enrich tasks", func(a *model.FlowAnalysis) { p.enrich(a) }},
		{"implicit dependencies", s.implicitDependencies},
	}
	for _, pass := range passes {
		if err := ctx.Err(); err != nil {
			a.Errors = append(a.Errors, fmt.Sprintf("Parsing cancelled: %v", err))
			return a
		}
		pass.run(a)
		logger.Debug("Parse: Pass complete.", "pass", pass.name, "tasks", len(a.Tasks), "edges", len(a.Edges))
	}

	if len(a.Tasks) == 0 {
		a.Warnings = append(a.Warnings, "No tasks found in flow")
	}
	logger.Debug("Parse: Flow parsed.", "tasks", len(a.Tasks), "edges", len(a.Edges))
	return a
}

// enrich attaches registry styling to every task.
func (p *Parser) enrich(a *model.FlowAnalysis) {
	for _, t := range a.Tasks {
		if def, ok := p.reg.TaskDef(t.Type); ok {
			t.SetMetadata(model.MetaColor, p.reg.TaskColor(t.Type, p.scheme))
			t.SetMetadata(model.MetaCategory, p.reg.TaskCategory(t.Type))
			t.SetMetadata(model.MetaIcon, def.Icon)
		}
		t.SetMetadata(model.MetaDisplayLabel, t.DisplayLabel())
	}
}
