package testutil

import (
	"path/filepath"
	"testing"
)

// SampleObjectName is the directory name used by SampleObject.
const SampleObjectName = "product__v"

// SampleFlow is a creation flow touching every dependency form: explicit
// wiring, input_table, input_paths and a terminal chain left for auto-linking.
const SampleFlow = `from bmf.tasks import *

env = SetEnvironmentVariables(task_args=dict(name="Environment"))

products = ReadExcel(
    input_paths=["data/products.xlsx"],
    task_args=dict(name="Read products"),
)
countries = ReadCSV(input_paths=["data/countries.csv"])

active = Filter(
    input_table=products,
    criteria_descriptions_file=full_path("migrations/product__v/filter/active_filter.yml"),
    task_args=dict(name="Active products"),
)
merged = MergeTables(
    input_paths=[active, countries],
    merging_rules="merging_rules/product_merge.yml",
)
mapped = Mapping(input_table=merged, mapping_rules="mapping/product_mapping.yml")
created = CreateObjects(object_name="product__v")
report = GenerateReport(columns_to_groupby=["status__v"])

active.set_upstream(env)
`

// SampleFilter is a filter rule file referenced by SampleFlow.
const SampleFilter = `filters:
  - criteria_id: active_only
    criteria:
      criteria: comparison
      field: status__v
      operator: equal
      value: active__v
  - criteria:
      criteria: is_unique
      subset: [external_id__v]
`

// SampleMerge is a merge rule file referenced by SampleFlow.
const SampleMerge = `merging_rules:
  - table: countries
    merging_params:
      left_on: country_code
      right_on: code
      how: left
`

// SampleMapping is a mapping rule file referenced by SampleFlow.
const SampleMapping = `mapping_rules:
  - id: set_status
    action: set_value
    value: active__v
    target: status__v
  - action: lookup
    object: country__v
    source: [country_code]
    target: country__v
`

// SampleObjectFiles returns the files of a complete sample object, keyed by
// object-relative slash path.
func SampleObjectFiles() map[string]string {
	return map[string]string{
		"flows/creation_flow.py":          SampleFlow,
		"filter/active_filter.yml":        SampleFilter,
		"merging_rules/product_merge.yml": SampleMerge,
		"mapping/product_mapping.yml":     SampleMapping,
	}
}

// NewObject writes files into a fresh object directory named name and
// returns its path.
func NewObject(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), name)
	WriteFiles(t, root, files)
	return root
}

// SampleObject writes the sample object and returns its path.
func SampleObject(t *testing.T) string {
	t.Helper()
	return NewObject(t, SampleObjectName, SampleObjectFiles())
}
