package rules

// FileType is the detected kind of a rule file.
type FileType string

const (
	TypeMerge   FileType = "merge"
	TypeFilter  FileType = "filter"
	TypeMapping FileType = "mapping"
	TypeUnknown FileType = "unknown"
)

// Rule is implemented by every rule entity.
type Rule interface {
	// Kind returns the file type the rule belongs to.
	Kind() FileType
	// Identifier names the rule within its file.
	Identifier() string
	// Map renders the rule as plain values, e.g. for JSON output.
	Map() map[string]any
}

// MergeRule is one entry of a merging_rules list.
type MergeRule struct {
	Table       string
	LeftOn      []string
	RightOn     []string
	MergeType   string
	Suffixes    [2]string
	Columns     []string
	Description string
}

func (r *MergeRule) Kind() FileType     { return TypeMerge }
func (r *MergeRule) Identifier() string { return r.Table }

func (r *MergeRule) Map() map[string]any {
	return map[string]any{
		"table":       r.Table,
		"left_on":     r.LeftOn,
		"right_on":    r.RightOn,
		"merge_type":  r.MergeType,
		"suffixes":    []string{r.Suffixes[0], r.Suffixes[1]},
		"columns":     r.Columns,
		"description": r.Description,
	}
}

// Filter criteria types with dedicated fields. Any other type is kept opaque.
const (
	CriteriaComparison = "comparison"
	CriteriaIsUnique   = "is_unique"
	CriteriaIsNull     = "is_null"
	CriteriaIsEmpty    = "is_empty"
)

// FilterCriteria is one entry of a filter file. Which fields are set depends
// on CriteriaType.
type FilterCriteria struct {
	CriteriaType string
	CriteriaID   string
	Field        string
	Operator     string
	Value        any
	Keep         string
	Subset       []string
	Negate       bool
	Description  string
}

func (c *FilterCriteria) Kind() FileType     { return TypeFilter }
func (c *FilterCriteria) Identifier() string { return c.CriteriaID }

func (c *FilterCriteria) Map() map[string]any {
	return map[string]any{
		"criteria_type": c.CriteriaType,
		"criteria_id":   c.CriteriaID,
		"field":         c.Field,
		"operator":      c.Operator,
		"value":         c.Value,
		"keep":          c.Keep,
		"subset":        c.Subset,
		"negate":        c.Negate,
		"description":   c.Description,
	}
}

// MappingRule is one entry of a mapping_rules list. Action selects which of
// the remaining fields are meaningful.
type MappingRule struct {
	RuleID      string
	Description string
	Action      string
	Value       any
	Target      string
	Overwrite   bool
	Object      string
	Source      []string
	Comment     string
}

func (r *MappingRule) Kind() FileType     { return TypeMapping }
func (r *MappingRule) Identifier() string { return r.RuleID }

func (r *MappingRule) Map() map[string]any {
	return map[string]any{
		"rule_id":     r.RuleID,
		"description": r.Description,
		"action":      r.Action,
		"value":       r.Value,
		"target":      r.Target,
		"overwrite":   r.Overwrite,
		"object":      r.Object,
		"source":      r.Source,
		"comment":     r.Comment,
	}
}
