package rules

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/ctxlog"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/model"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNotFound is returned when the rule file does not exist or is not a
	// regular file.
	ErrNotFound = errors.New("rule file not found")
	// ErrWrongExtension is returned for files that are not .yml or .yaml.
	ErrWrongExtension = errors.New("rule file must be .yml or .yaml")
)

// Analysis is the result of parsing one rule file.
type Analysis struct {
	FilePath       string
	FileType       FileType
	MergeRules     []*MergeRule
	FilterCriteria []*FilterCriteria
	MappingRules   []*MappingRule
	RawData        map[string]any
	Errors         []string
	Warnings       []string
}

// Rules returns every parsed rule in file order, grouped by kind.
func (a *Analysis) Rules() []Rule {
	out := make([]Rule, 0, len(a.MergeRules)+len(a.FilterCriteria)+len(a.MappingRules))
	for _, r := range a.MergeRules {
		out = append(out, r)
	}
	for _, c := range a.FilterCriteria {
		out = append(out, c)
	}
	for _, r := range a.MappingRules {
		out = append(out, r)
	}
	return out
}

// Summary condenses the analysis into the counts attached to tasks.
func (a *Analysis) Summary() *model.RuleSummary {
	s := &model.RuleSummary{
		MergeRuleCount: len(a.MergeRules),
		FilterCount:    len(a.FilterCriteria),
		MappingCount:   len(a.MappingRules),
	}
	for _, r := range a.MergeRules {
		s.TablesMerged = append(s.TablesMerged, r.Table)
	}
	types := make([]string, 0, len(a.FilterCriteria))
	for _, c := range a.FilterCriteria {
		types = append(types, c.CriteriaType)
	}
	s.FilterTypes = distinct(types)
	actions := make([]string, 0, len(a.MappingRules))
	for _, r := range a.MappingRules {
		actions = append(actions, r.Action)
	}
	s.MappingActions = distinct(actions)
	return s
}

// Option configures a Parser.
type Option func(*Parser)

// WithUnknownTags sets the policy for custom YAML tags.
func WithUnknownTags(fn UnknownTagFunc) Option {
	return func(p *Parser) {
		if fn != nil {
			p.onUnknown = fn
		}
	}
}

// Parser reads one rule file.
type Parser struct {
	path      string
	content   []byte
	onUnknown UnknownTagFunc
}

// NewParser checks and reads the file at path.
func NewParser(path string, opts ...Option) (*Parser, error) {
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
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
	default:
		return nil, fmt.Errorf("%w: %s", ErrWrongExtension, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	p := &Parser{path: path, content: content, onUnknown: TransparentTags}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Path returns the file the parser is bound to.
func (p *Parser) Path() string { return p.path }

// Parse decodes the file. It never returns nil and never panics; problems
// are recorded on the analysis.
func (p *Parser) Parse(ctx context.Context) (a *Analysis) {
	logger := ctxlog.FromContext(ctx).With("file", p.path)
	a = &Analysis{FilePath: p.path, FileType: TypeUnknown, RawData: map[string]any{}}

	defer func() {
		if r := recover(); r != nil {
			a.Errors = append(a.Errors, fmt.Sprintf("Unexpected error during YAML parsing: %v", r))
			logger.Error("Rules: Unexpected failure while parsing.", "panic", r)
		}
	}()

	logger.Debug("Rules: Parsing rule file.")

	var root yaml.Node
	if err := yaml.Unmarshal(p.content, &root); err != nil {
		a.Errors = append(a.Errors, fmt.Sprintf("YAML parse error: %v", err))
		logger.Warn("Rules: YAML syntax error.", "error", err)
		return a
	}

	conv := &converter{onUnknown: p.onUnknown}
	data, err := conv.decode(&root)
	if err != nil {
		a.Errors = append(a.Errors, fmt.Sprintf("YAML parse error: %v", err))
		logger.Warn("Rules: YAML decoding failed.", "error", err)
		return a
	}
	if data == nil {
		a.Warnings = append(a.Warnings, "YAML file is empty")
		return a
	}
	if m, ok := data.(map[string]any); ok {
		a.RawData = m
	}

	a.FileType = detectFileType(data)
	logger.Debug("Rules: Detected file type.", "type", a.FileType)

	switch a.FileType {
	case TypeMerge:
		parseMergeRules(data.(map[string]any), a)
	case TypeFilter:
		parseFilterCriteria(data, a)
	case TypeMapping:
		parseMappingRules(data.(map[string]any), a)
	case TypeUnknown:
		a.Warnings = append(a.Warnings, "Unknown YAML file type: "+filepath.Base(p.path))
	}

	logger.Debug("Rules: Parsing complete.",
		"merge_rules", len(a.MergeRules),
		"filters", len(a.FilterCriteria),
		"mappings", len(a.MappingRules),
		"warnings", len(a.Warnings),
	)
	return a
}

// detectFileType classifies decoded content. A top-level list is a filter
// file when every item is a mapping with a criteria key. A mapping is checked
// for merging_rules, then filter/filters, then mapping_rules.
func detectFileType(data any) FileType {
	switch t := data.(type) {
	case []any:
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return TypeUnknown
			}
			if _, ok := m["criteria"]; !ok {
				return TypeUnknown
			}
		}
		return TypeFilter
	case map[string]any:
		if _, ok := t["merging_rules"]; ok {
			return TypeMerge
		}
		_, hasFilter := t["filter"]
		_, hasFilters := t["filters"]
		if hasFilter || hasFilters {
			return TypeFilter
		}
		if _, ok := t["mapping_rules"]; ok {
			return TypeMapping
		}
	}
	return TypeUnknown
}

func parseMergeRules(data map[string]any, a *Analysis) {
	items, ok := listOrEmpty(data["merging_rules"])
	if !ok {
		a.Errors = append(a.Errors, "merging_rules must be a list")
		return
	}
	for idx, item := range items {
		rule, err := mergeRule(item)
		if err != nil {
			a.Warnings = append(a.Warnings, fmt.Sprintf("Failed to parse merge rule %d: %v", idx, err))
			continue
		}
		a.MergeRules = append(a.MergeRules, rule)
	}
}

func mergeRule(item any) (*MergeRule, error) {
	m, ok := item.(map[string]any)
	if !ok {
		return nil, errors.New("rule is not a mapping")
	}
	if _, ok := m["table"]; !ok {
		return nil, errors.New("rule has no table")
	}

	table := strings.TrimSpace(stringField(m, "table", ""))
	table = strings.TrimSpace(strings.TrimPrefix(table, "!env"))

	loading, err := mapField(m, "loading_params")
	if err != nil {
		return nil, err
	}
	merging, err := mapField(m, "merging_params")
	if err != nil {
		return nil, err
	}
	columns, err := stringListField(loading, "columns")
	if err != nil {
		return nil, err
	}
	leftOn, err := stringListField(merging, "left_on")
	if err != nil {
		return nil, err
	}
	rightOn, err := stringListField(merging, "right_on")
	if err != nil {
		return nil, err
	}

	suffixes := [2]string{"", ""}
	if raw, ok := merging["suffixes"]; ok && raw != nil {
		list, err := stringListField(merging, "suffixes")
		if err != nil {
			return nil, err
		}
		if len(list) != 2 {
			return nil, fmt.Errorf("suffixes must have two entries, got %d", len(list))
		}
		suffixes = [2]string{list[0], list[1]}
	}

	return &MergeRule{
		Table:       table,
		LeftOn:      leftOn,
		RightOn:     rightOn,
		MergeType:   stringField(merging, "how", "left"),
		Suffixes:    suffixes,
		Columns:     columns,
		Description: stringField(m, "description", ""),
	}, nil
}

func parseFilterCriteria(data any, a *Analysis) {
	var raw any = data
	if m, ok := data.(map[string]any); ok {
		if v, ok := m["filters"]; ok {
			raw = v
		} else {
			raw = m["filter"]
		}
	}
	items, ok := listOrEmpty(raw)
	if !ok {
		a.Errors = append(a.Errors, "Filter rules must be a list")
		return
	}
	for idx, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			a.Warnings = append(a.Warnings, fmt.Sprintf("Filter %d is not a dictionary", idx))
			continue
		}
		c, err := filterCriteria(idx, m)
		if err != nil {
			a.Warnings = append(a.Warnings, fmt.Sprintf("Failed to parse filter %d: %v", idx, err))
			continue
		}
		a.FilterCriteria = append(a.FilterCriteria, c)
	}
}

func filterCriteria(idx int, m map[string]any) (*FilterCriteria, error) {
	c := &FilterCriteria{
		CriteriaID:  stringField(m, "criteria_id", fmt.Sprintf("filter_%d", idx)),
		Description: stringField(m, "description", ""),
	}

	var def map[string]any
	switch t := m["criteria"].(type) {
	case map[string]any:
		def = t
	case string:
		def = map[string]any{"criteria": t}
	case nil:
		def = map[string]any{}
	default:
		return nil, errors.New("criteria must be a mapping")
	}

	c.CriteriaType = stringField(def, "criteria", "unknown")
	var err error
	switch c.CriteriaType {
	case CriteriaComparison:
		c.Field = stringField(def, "field", "")
		c.Operator = stringField(def, "operator", "")
		c.Value = def["value"]
	case CriteriaIsUnique:
		c.Keep = stringField(def, "keep", "first")
		c.Subset, err = stringListField(def, "subset")
	case CriteriaIsNull, CriteriaIsEmpty:
		c.Field = stringField(def, "field", "")
		c.Negate, err = boolField(def, "negate", false)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func parseMappingRules(data map[string]any, a *Analysis) {
	items, ok := listOrEmpty(data["mapping_rules"])
	if !ok {
		a.Errors = append(a.Errors, "mapping_rules must be a list")
		return
	}
	for idx, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			a.Warnings = append(a.Warnings, fmt.Sprintf("Mapping rule %d is not a dictionary", idx))
			continue
		}
		rule, err := mappingRule(idx, m)
		if err != nil {
			a.Warnings = append(a.Warnings, fmt.Sprintf("Failed to parse mapping rule %d: %v", idx, err))
			continue
		}
		a.MappingRules = append(a.MappingRules, rule)
	}
}

func mappingRule(idx int, m map[string]any) (*MappingRule, error) {
	overwrite, err := boolField(m, "overwrite", false)
	if err != nil {
		return nil, err
	}
	source, err := stringListField(m, "source")
	if err != nil {
		return nil, err
	}
	return &MappingRule{
		RuleID:      stringField(m, "id", fmt.Sprintf("mapping_%d", idx)),
		Description: stringField(m, "description", ""),
		Action:      stringField(m, "action", "unknown"),
		Value:       m["value"],
		Target:      stringField(m, "target", ""),
		Overwrite:   overwrite,
		Object:      stringField(m, "object", ""),
		Source:      source,
		Comment:     stringField(m, "comment", ""),
	}, nil
}

// listOrEmpty accepts a list or a missing/null value.
func listOrEmpty(v any) ([]any, bool) {
	if v == nil {
		return nil, true
	}
	list, ok := v.([]any)
	return list, ok
}

func distinct(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
