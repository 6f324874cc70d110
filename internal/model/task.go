// This file defines Task, one task instantiation discovered in a flow source
// file, together with the metadata keys the parser and builder attach to it.

package model

// Metadata keys written during enrichment.
const (
	MetaColor        = "color"
	MetaCategory     = "category"
	MetaIcon         = "icon"
	MetaDisplayLabel = "display_label"
	MetaRuleSummary  = "yaml_metadata"
)

// Task is a single task instantiation, e.g. `filtered = Filter(...)`.
type Task struct {
	ID         string           `json:"task_id"`
	Type       string           `json:"task_type"`
	Name       string           `json:"task_name"`
	Parameters map[string]Value `json:"parameters,omitempty"`
	Line       int              `json:"line_number,omitempty"`
	FilePath   string           `json:"file_path,omitempty"`
	Metadata   map[string]any   `json:"metadata,omitempty"`
}

// NewTask creates a task. An empty name defaults to the ID.
func NewTask(id, taskType, name string) *Task {
	if name == "" {
		name = id
	}
	return &Task{
		ID:         id,
		Type:       taskType,
		Name:       name,
		Parameters: map[string]Value{},
		Metadata:   map[string]any{},
	}
}

// Equal reports whether t and other denote the same task. Only IDs are compared.
func (t *Task) Equal(other *Task) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.ID == other.ID
}

// SetParameter records a resolved keyword argument.
func (t *Task) SetParameter(name string, v Value) {
	if t.Parameters == nil {
		t.Parameters = map[string]Value{}
	}
	t.Parameters[name] = v
}

// Parameter returns a resolved keyword argument.
func (t *Task) Parameter(name string) (Value, bool) {
	v, ok := t.Parameters[name]
	return v, ok
}

// SetMetadata stores an enrichment value.
func (t *Task) SetMetadata(key string, v any) {
	if t.Metadata == nil {
		t.Metadata = map[string]any{}
	}
	t.Metadata[key] = v
}

// MetadataString returns a string metadata value, or "" if absent.
func (t *Task) MetadataString(key string) string {
	s, _ := t.Metadata[key].(string)
	return s
}

// DisplayLabel is the label shown for the task in diagrams.
func (t *Task) DisplayLabel() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}

// RuleSummary returns the YAML rule summary attached during enrichment.
func (t *Task) RuleSummary() (*RuleSummary, bool) {
	s, ok := t.Metadata[MetaRuleSummary].(*RuleSummary)
	return s, ok && s != nil
}

// AddRuleSummary merges s into the task's attached summary.
func (t *Task) AddRuleSummary(s *RuleSummary) {
	if s == nil {
		return
	}
	if cur, ok := t.RuleSummary(); ok {
		cur.Merge(s)
		return
	}
	cp := s.Clone()
	t.SetMetadata(MetaRuleSummary, cp)
}
