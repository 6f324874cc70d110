package render

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/model"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/registry"
)

// SchemeDark is the color scheme that also restyles the arrows.
const SchemeDark = "dark"

// paramGroupBy holds the grouping columns of aggregate tasks.
const paramGroupBy = "columns_to_groupby"

// UtilityTypes are hidden when utility hiding is on.
var UtilityTypes = []string{"SetEnvironmentVariables", "SetEnv"}

var (
	emojiRE = regexp.MustCompile(`[\x{1F300}-\x{1FFFF}]`)
	spaceRE = regexp.MustCompile(`\s+`)
)

// Registry is the subset of the task type registry the generator reads.
type Registry interface {
	TaskDef(taskType string) (registry.TaskDefinition, bool)
	TaskCategory(taskType string) string
	TaskColor(taskType, scheme string) string
	TaskShape(taskType string) string
	DisplayName(taskType string) string
	DiagramDirection() string
}

// Option configures a Mermaid generator.
type Option func(*Mermaid)

// WithDirection sets the flowchart direction, e.g. "TD" or "LR". An empty
// direction keeps the registry default.
func WithDirection(dir string) Option {
	return func(m *Mermaid) {
		if dir != "" {
			m.direction = strings.ToUpper(dir)
		}
	}
}

// WithScheme selects the color scheme.
func WithScheme(scheme string) Option {
	return func(m *Mermaid) {
		if scheme != "" {
			m.scheme = strings.ToLower(scheme)
		}
	}
}

// WithHiddenUtility hides utility tasks and routes their edges around them.
func WithHiddenUtility(hide bool) Option {
	return func(m *Mermaid) {
		m.hideUtility = hide
	}
}

// Options select the variant of one Generate call.
type Options struct {
	// Title is written as a Mermaid comment below the header.
	Title string
	// TypeLabels labels unlabeled edges with the display name of the source
	// task type instead of a label derived from its rule summary.
	TypeLabels bool
	// Details appends rule-file details to node labels.
	Details bool
	// PNGSafe drops emoji and HTML and draws rectangles only.
	PNGSafe bool
}

// Mermaid generates flowchart text from flow graphs.
type Mermaid struct {
	reg         Registry
	direction   string
	scheme      string
	hideUtility bool
}

// NewMermaid creates a generator reading task styling from reg.
func NewMermaid(reg Registry, opts ...Option) *Mermaid {
	m := &Mermaid{
		reg:       reg,
		direction: reg.DiagramDirection(),
		scheme:    registry.DefaultScheme,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generate renders g. The result ends with a newline.
func (m *Mermaid) Generate(g *model.FlowGraph, opts Options) string {
	lines := []string{"graph " + m.direction}
	if opts.Title != "" {
		lines = append(lines, "%% "+opts.Title)
	}

	visible := m.visibleTasks(g)
	for _, t := range visible {
		lines = append(lines, m.node(t, opts))
	}
	for _, e := range m.visibleEdges(g, visible) {
		lines = append(lines, m.edge(g, e, opts.TypeLabels))
	}
	lines = append(lines, m.styles(visible)...)

	if m.scheme == SchemeDark {
		lines = append(lines, "linkStyle default stroke:#FFFFFF,stroke-width:2px;")
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *Mermaid) node(t *model.Task, opts Options) string {
	def, _ := m.reg.TaskDef(t.Type)
	label := t.DisplayLabel()
	if def.Icon != "" {
		label = strings.TrimSpace(def.Icon + " " + label)
	}
	if opts.Details {
		if details := taskDetails(t); details != "" {
			label += "<br/>" + details
		}
	}

	if opts.PNGSafe {
		label = emojiRE.ReplaceAllString(label, "")
		label = strings.NewReplacer("<br/>", " ", "\n", " ").Replace(label)
		label = strings.TrimSpace(spaceRE.ReplaceAllString(label, " "))
		label = strings.ReplaceAll(label, `"`, "'")
		return shapeSyntax(t.ID, label, registry.DefaultShape)
	}
	label = strings.NewReplacer(`"`, "'", "\n", "<br/>").Replace(label)
	return shapeSyntax(t.ID, label, m.reg.TaskShape(t.Type))
}

func shapeSyntax(id, label, shape string) string {
	switch shape {
	case "circle":
		return fmt.Sprintf(`%s((("%s")))`, id, label)
	case "rounded":
		return fmt.Sprintf(`%s("%s")`, id, label)
	case "subroutine":
		return fmt.Sprintf(`%s([["%s"]])`, id, label)
	case "hexagon":
		return fmt.Sprintf(`%s({"%s"})`, id, label)
	default:
		return fmt.Sprintf(`%s["%s"]`, id, label)
	}
}

// taskDetails describes what a task does with its rule files, for detailed
// node labels.
func taskDetails(t *model.Task) string {
	s, _ := t.RuleSummary()
	if s == nil {
		s = &model.RuleSummary{}
	}

	var details []string
	switch t.Type {
	case "Filter":
		if len(s.FilterTypes) > 0 {
			details = append(details, "Filter: "+strings.Join(head(s.FilterTypes, 2), ", "))
		}
	case "Merge", "MergeTables":
		if s.MergeRuleCount > 0 {
			details = append(details, fmt.Sprintf("%d merge %s", s.MergeRuleCount, plural("rule", s.MergeRuleCount)))
		}
		if n := len(s.TablesMerged); n > 0 && n <= 2 {
			details = append(details, "Tables: "+strings.Join(s.TablesMerged, ", "))
		}
	case "Mapping":
		if s.MappingCount > 0 {
			details = append(details, fmt.Sprintf("%d %s", s.MappingCount, plural("mapping", s.MappingCount)))
		}
	case "Aggregate", "AggregateV2":
		v, ok := t.Parameter(paramGroupBy)
		if !ok || v.Kind != model.KindSequence || len(v.Items) == 0 {
			break
		}
		if cols := v.Strings(); len(v.Items) <= 3 {
			details = append(details, "Group by: "+strings.Join(cols, ", "))
		} else {
			details = append(details, fmt.Sprintf("Group by %d cols", len(v.Items)))
		}
	}
	return strings.Join(details, "<br/>")
}

func (m *Mermaid) edge(g *model.FlowGraph, e *model.Edge, typeLabels bool) string {
	label := e.Label
	if label == "" {
		if src, ok := g.Task(e.Source); ok {
			if typeLabels {
				label = m.reg.DisplayName(src.Type)
			} else {
				label = m.derivedLabel(src)
			}
		}
	}
	if label != "" {
		return fmt.Sprintf("%s -->|%s| %s", e.Source, label, e.Target)
	}
	return fmt.Sprintf("%s --> %s", e.Source, e.Target)
}

// derivedLabel labels an edge after the work its source task does.
func (m *Mermaid) derivedLabel(src *model.Task) string {
	s, _ := src.RuleSummary()
	if s == nil {
		s = &model.RuleSummary{}
	}
	switch src.Type {
	case "Filter":
		if len(s.FilterTypes) == 0 {
			return "Filter"
		}
		kinds := append([]string(nil), s.FilterTypes...)
		sort.Strings(kinds)
		return "Filter " + strings.Join(kinds, ", ")
	case "Merge", "MergeTables":
		if s.MergeRuleCount > 0 {
			return fmt.Sprintf("MergeTables<br/>%d %s", s.MergeRuleCount, plural("rule", s.MergeRuleCount))
		}
		return "MergeTables"
	case "Mapping":
		if s.MappingCount > 0 {
			return fmt.Sprintf("Mapping<br/>%d %s", s.MappingCount, plural("rule", s.MappingCount))
		}
		return "Mapping"
	case "Aggregate", "AggregateV2":
		return "Aggregate"
	}
	return m.reg.DisplayName(src.Type)
}

// styles returns one classDef per category in first-use order, then one class
// assignment per task. A category takes the color of its last task.
func (m *Mermaid) styles(tasks []*model.Task) []string {
	var order, assigns []string
	colors := map[string]string{}
	for _, t := range tasks {
		cat := m.reg.TaskCategory(t.Type)
		if _, ok := colors[cat]; !ok {
			order = append(order, cat)
		}
		colors[cat] = m.reg.TaskColor(t.Type, m.scheme)
		assigns = append(assigns, fmt.Sprintf("class %s %s;", t.ID, cat))
	}
	defs := make([]string, 0, len(order)+len(assigns))
	for _, cat := range order {
		defs = append(defs, fmt.Sprintf("classDef %s fill:%s,stroke:#333,stroke-width:1px;", cat, colors[cat]))
	}
	return append(defs, assigns...)
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func plural(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
