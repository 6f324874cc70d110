package builder

import (
	"testing"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/model"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/registry"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ruleFiles = []string{
	"filter/active_filter.yml",
	"filter/archived.yaml",
	"merging_rules/product_merge.yml",
	"mapping/product_mapping.yml",
}

func TestStrategies(t *testing.T) {
	task := model.NewTask("active", "Filter", "")

	testCases := []struct {
		name     string
		strategy Strategy
		value    model.Value
		want     []string
	}{
		{
			name:     "exact filename in a relative path",
			strategy: ExactFilenameStrategy{},
			value:    model.String("rules/product_merge.yml"),
			want:     []string{"merging_rules/product_merge.yml"},
		},
		{
			name:     "exact filename from an identifier",
			strategy: ExactFilenameStrategy{},
			value:    model.Identifier("config.product_mapping.yml"),
			want:     []string{"mapping/product_mapping.yml"},
		},
		{
			name:     "exact filename ignores placeholders",
			strategy: ExactFilenameStrategy{},
			value:    model.Placeholder("full_path"),
		},
		{
			name:     "exact filename without a match",
			strategy: ExactFilenameStrategy{},
			value:    model.String("other.yml"),
		},
		{
			name:     "partial path inside an absolute path",
			strategy: PartialPathStrategy{},
			value:    model.String("/migrations/product__v/filter/archived.yaml"),
			want:     []string{"filter/archived.yaml"},
		},
		{
			name:     "partial path needs the directory",
			strategy: PartialPathStrategy{},
			value:    model.String("archived.yaml"),
		},
		{
			name:     "partial path ignores non-text values",
			strategy: PartialPathStrategy{},
			value:    model.Scalar(3),
		},
		{
			name:     "placeholder matches by task id",
			strategy: PlaceholderFallbackStrategy{},
			value:    model.Placeholder("full_path"),
			want:     []string{"filter/active_filter.yml"},
		},
		{
			name:     "placeholder of another helper",
			strategy: PlaceholderFallbackStrategy{},
			value:    model.Placeholder("os.path.join"),
		},
		{
			name:     "placeholder ignores literal strings",
			strategy: PlaceholderFallbackStrategy{},
			value:    model.String("active_filter.yml"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Act ---
			got := tc.strategy.Match(task, tc.value, ruleFiles)

			// --- Assert ---
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPlaceholderFallbackMatchesEveryCandidate(t *testing.T) {
	task := model.NewTask("product", "MergeTables", "")
	got := PlaceholderFallbackStrategy{}.Match(task, model.Placeholder("full_path"), ruleFiles)
	assert.Equal(t, []string{"merging_rules/product_merge.yml", "mapping/product_mapping.yml"}, got)
}

func TestStrategyNames(t *testing.T) {
	var names []string
	for _, s := range DefaultStrategies() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"exact-filename", "partial-path", "placeholder-fallback"}, names)
}

type fixedStrategy struct{ files []string }

func (fixedStrategy) Name() string { return "fixed" }

func (s fixedStrategy) Match(*model.Task, model.Value, []string) []string { return s.files }

func TestWithStrategies(t *testing.T) {
	// --- Arrange ---
	root := testutil.SampleObject(t)
	only := fixedStrategy{files: []string{"mapping/product_mapping.yml"}}

	// --- Act ---
	res := ForObject(root, registry.NewDefault(), WithStrategies(only)).Build(testutil.Context(t))

	// --- Assert ---
	require.True(t, res.Success, "errors: %v", res.Errors)
	for _, id := range []string{"active", "merged", "mapped"} {
		task, ok := res.Graph.Task(id)
		require.True(t, ok)
		s, ok := task.RuleSummary()
		require.True(t, ok, id)
		assert.Equal(t, 2, s.MappingCount, id)
		assert.Zero(t, s.FilterCount, id)
	}
	products, _ := res.Graph.Task("products")
	_, ok := products.RuleSummary()
	assert.False(t, ok, "tasks without reference parameters are not enriched")
}
