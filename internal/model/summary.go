// This file defines RuleSummary, the digest of YAML rule files that survives
// enrichment. Raw rule objects are discarded once summarized.

package model

import "sort"

// RuleSummary counts the rules a task's referenced YAML files declare and
// lists their distinct categorical values.
type RuleSummary struct {
	MergeRuleCount int      `json:"merge_rules_count,omitempty"`
	TablesMerged   []string `json:"tables_merged,omitempty"`
	FilterCount    int      `json:"filter_count,omitempty"`
	FilterTypes    []string `json:"filter_types,omitempty"`
	MappingCount   int      `json:"mapping_count,omitempty"`
	MappingActions []string `json:"mapping_actions,omitempty"`
}

// IsEmpty reports whether the summary counts nothing.
func (s *RuleSummary) IsEmpty() bool {
	return s == nil || (s.MergeRuleCount == 0 && s.FilterCount == 0 && s.MappingCount == 0)
}

// Merge adds other's counts to s and unions the distinct lists. TablesMerged
// keeps declaration order and may repeat a table.
func (s *RuleSummary) Merge(other *RuleSummary) {
	if other == nil {
		return
	}
	s.MergeRuleCount += other.MergeRuleCount
	s.TablesMerged = append(s.TablesMerged, other.TablesMerged...)
	s.FilterCount += other.FilterCount
	s.FilterTypes = union(s.FilterTypes, other.FilterTypes)
	s.MappingCount += other.MappingCount
	s.MappingActions = union(s.MappingActions, other.MappingActions)
}

// Clone returns a deep copy of s.
func (s *RuleSummary) Clone() *RuleSummary {
	if s == nil {
		return nil
	}
	cp := *s
	cp.TablesMerged = append([]string(nil), s.TablesMerged...)
	cp.FilterTypes = append([]string(nil), s.FilterTypes...)
	cp.MappingActions = append([]string(nil), s.MappingActions...)
	return &cp
}

// Map renders the summary with the keys used in JSON exports.
func (s *RuleSummary) Map() map[string]any {
	m := map[string]any{}
	if s.MergeRuleCount > 0 {
		m["merge_rules_count"] = s.MergeRuleCount
		m["tables_merged"] = s.TablesMerged
	}
	if s.FilterCount > 0 {
		m["filter_count"] = s.FilterCount
		m["filter_types"] = s.FilterTypes
	}
	if s.MappingCount > 0 {
		m["mapping_count"] = s.MappingCount
		m["mapping_actions"] = s.MappingActions
	}
	return m
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
