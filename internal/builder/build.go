package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/ctxlog"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/dag"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/fsutil"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/model"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/pyflow"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/rules"
)

// Metadata keys of a Result.
const (
	MetaObjectName      = "object_name"
	MetaTaskCount       = "task_count"
	MetaEdgeCount       = "edge_count"
	MetaYAMLFilesParsed = "yaml_files_parsed"
)

// unknownObject names the empty graph of a failed build.
const unknownObject = "unknown"

// Result is the outcome of Build. Graph is never nil.
type Result struct {
	Graph    *model.FlowGraph
	Success  bool
	Errors   []string
	Warnings []string
	Metadata map[string]any
	// Analysis is the structural report of the finished graph. It is
	// informational and does not affect Success.
	Analysis dag.Report
}

// build carries the state of one Build call.
type build struct {
	*Builder
	logger   *slog.Logger
	res      *Result
	analyses map[string]*rules.Analysis
	files    []string
}

// Build runs every phase and returns the result. It never panics.
func (b *Builder) Build(ctx context.Context) (res *Result) {
	logger := ctxlog.FromContext(ctx).With("object", b.path)
	st := &build{
		Builder:  b,
		logger:   logger,
		res:      &Result{Metadata: map[string]any{}},
		analyses: map[string]*rules.Analysis{},
	}
	logger.Info("Build: Building flow graph.")

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Build: Unexpected failure.", "panic", r)
			st.res.Errors = append(st.res.Errors, fmt.Sprintf("Unexpected error: %v", r))
			res = st.failed()
		}
	}()

	if b.srcErr != nil || b.src == nil {
		err := b.srcErr
		if err == nil {
			err = errors.New("no object sources")
		}
		st.res.Errors = append(st.res.Errors, fmt.Sprintf("Invalid object path: %v", err))
		logger.Error("Build: Invalid object path.", "error", err)
		return st.failed()
	}

	// Step 1: flow source.
	flowPath, err := b.src.FlowFile()
	if err != nil {
		st.res.Errors = append(st.res.Errors, fsutil.FlowFileName+" not found")
		logger.Error("Build: Flow file not found.", "error", err)
		return st.failed()
	}
	parser, err := pyflow.NewParser(flowPath, b.reg, pyflow.WithScheme(b.scheme))
	if err != nil {
		st.res.Errors = append(st.res.Errors, fmt.Sprintf("Unexpected error: %v", err))
		return st.failed()
	}
	flow := parser.Parse(ctx)
	st.res.Errors = append(st.res.Errors, flow.Errors...)
	st.res.Warnings = append(st.res.Warnings, flow.Warnings...)

	// Step 2: rule files.
	logger.Debug("Build: Parsing rule files.")
	st.parseRuleFiles(ctx)
	if err := ctx.Err(); err != nil {
		st.res.Errors = append(st.res.Errors, fmt.Sprintf("Build cancelled: %v", err))
		return st.failed()
	}

	// Step 3: graph.
	logger.Debug("Build: Assembling graph.")
	g := st.assemble(flow)
	st.res.Graph = g

	// Step 4: enrichment.
	logger.Debug("Build: Enriching tasks with rule summaries.")
	st.enrich(g)

	// Step 5: auto-links.
	for _, rule := range b.autoLinks {
		added, err := rule.Apply(g)
		if err != nil {
			logger.Debug("Build: Auto-link skipped.", "rule", rule.Name, "error", err)
			continue
		}
		if added {
			st.res.Warnings = append(st.res.Warnings, fmt.Sprintf("Linked %s (auto)", rule.Name))
		}
	}

	// Step 6: validation.
	logger.Debug("Build: Validating graph.")
	if isolated := dag.IsolatedTasks(g); len(isolated) > 0 {
		st.res.Errors = append(st.res.Errors, "Isolated tasks found: "+strings.Join(isolated, ", "))
	}
	if dag.HasCycle(g) {
		st.res.Errors = append(st.res.Errors, "Circular dependencies detected in flow")
	}
	st.res.Analysis = dag.Validate(g)

	st.res.Success = len(st.res.Errors) == 0
	st.res.Metadata = map[string]any{
		MetaObjectName:      flow.ObjectName,
		MetaTaskCount:       g.Len(),
		MetaEdgeCount:       len(g.Edges()),
		MetaYAMLFilesParsed: len(st.analyses),
	}

	logger.Info("Build: Graph construction finished.",
		"success", st.res.Success,
		"tasks", g.Len(),
		"edges", len(g.Edges()),
		"errors", len(st.res.Errors),
		"warnings", len(st.res.Warnings),
	)
	return st.res
}

// failed turns the collected messages into a failed result with an empty
// graph.
func (st *build) failed() *Result {
	st.res.Graph = model.NewFlowGraph(unknownObject, st.path)
	st.res.Success = false
	return st.res
}

// parseRuleFiles parses every configuration file. Analyses are keyed by the
// object-relative slash path.
func (st *build) parseRuleFiles(ctx context.Context) {
	byCategory, err := st.src.ConfigFiles()
	if err != nil {
		st.res.Errors = append(st.res.Errors, fmt.Sprintf("Failed to list configuration files: %v", err))
		return
	}

	var opts []rules.Option
	if st.unknownTags != nil {
		opts = append(opts, rules.WithUnknownTags(st.unknownTags))
	}

	for _, category := range categoryOrder(byCategory) {
		for _, path := range byCategory[category] {
			rel := relPath(st.src.Root(), path)
			p, err := rules.NewParser(path, opts...)
			if err != nil {
				st.res.Warnings = append(st.res.Warnings, fmt.Sprintf("Failed to parse %s: %v", filepath.Base(path), err))
				st.logger.Warn("Build: Rule file unreadable.", "file", path, "error", err)
				continue
			}
			a := p.Parse(ctx)
			if _, seen := st.analyses[rel]; !seen {
				st.files = append(st.files, rel)
			}
			st.analyses[rel] = a
			for _, msg := range a.Errors {
				st.res.Errors = append(st.res.Errors, rel+": "+msg)
			}
			for _, msg := range a.Warnings {
				st.res.Warnings = append(st.res.Warnings, rel+": "+msg)
			}
			st.logger.Debug("Build: Parsed rule file.", "file", rel, "type", a.FileType)
		}
	}
}

// categoryOrder lists the known categories first, then any others sorted.
func categoryOrder(m map[string][]string) []string {
	var out []string
	known := make(map[string]bool, len(fsutil.ConfigCategories))
	for _, c := range fsutil.ConfigCategories {
		known[c] = true
		if _, ok := m[c]; ok {
			out = append(out, c)
		}
	}
	var extra []string
	for c := range m {
		if !known[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// assemble inserts the analyzed tasks and edges into a new graph.
func (st *build) assemble(flow *model.FlowAnalysis) *model.FlowGraph {
	g := model.NewFlowGraph(flow.ObjectName, st.src.Root())
	for _, t := range flow.Tasks {
		if err := g.AddTask(t); err != nil {
			st.res.Errors = append(st.res.Errors, fmt.Sprintf("Failed to add task %s: %v", t.ID, err))
		}
	}
	for _, e := range flow.Edges {
		if err := g.AddEdge(e); err != nil {
			st.res.Warnings = append(st.res.Warnings, fmt.Sprintf("Failed to add edge %s->%s: %v", e.Source, e.Target, err))
		}
	}
	return g
}

// enrich attaches the summaries of referenced rule files to tasks.
func (st *build) enrich(g *model.FlowGraph) {
	for _, t := range g.Tasks() {
		for _, ref := range st.references(t) {
			summary := st.analyses[ref].Summary()
			if summary.IsEmpty() {
				continue
			}
			t.AddRuleSummary(summary)
		}
	}
}

// references returns the rule files referenced by the parameters of t, in
// discovery order.
func (st *build) references(t *model.Task) []string {
	matched := map[string]bool{}
	for _, param := range ReferenceParams {
		v, ok := t.Parameter(param)
		if !ok {
			continue
		}
		for _, s := range st.strategies {
			files := s.Match(t, v, st.files)
			if len(files) == 0 {
				continue
			}
			for _, f := range files {
				matched[f] = true
			}
			st.logger.Debug("Build: Matched rule file reference.",
				"task", t.ID, "param", param, "strategy", s.Name(), "files", files)
			break
		}
	}

	var out []string
	for _, f := range st.files {
		if matched[f] {
			out = append(out, f)
		}
	}
	return out
}
