package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/render"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

// SetupAppTest creates an App for the sample object writing into a temp
// directory. mutate adjusts the config before validation.
func SetupAppTest(t *testing.T, mutate func(*Config), opts ...Option) (*App, *testutil.SafeBuffer) {
	t.Helper()

	cfg := Config{
		ObjectPath:  testutil.SampleObject(t),
		OutPath:     filepath.Join(t.TempDir(), "out", "flow.mmd"),
		Labels:      true,
		HideUtility: true,
		LogLevel:    "debug",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	config, err := NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &testutil.SafeBuffer{}
	opts = append([]Option{WithLogOutput(logBuffer), WithClock(func() time.Time { return fixedTime })}, opts...)
	testApp := NewApp(config, opts...)

	t.Cleanup(func() {
		if os.Getenv("FLOWVIZ_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return testApp, logBuffer
}

// fakeRasterizer records calls and fails the first failures of them.
type fakeRasterizer struct {
	mu       sync.Mutex
	calls    []string
	opts     []render.PNGOptions
	failures int
	err      error
}

func (f *fakeRasterizer) Rasterize(_ context.Context, code, out string, opts render.PNGOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, code)
	f.opts = append(f.opts, opts)
	if len(f.calls) <= f.failures {
		return f.err
	}
	return os.WriteFile(out, []byte("png"), 0o644)
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
		check   func(t *testing.T, c *Config)
	}{
		{
			name:    "object path required",
			cfg:     Config{},
			wantErr: "ObjectPath is a required configuration field",
		},
		{
			name: "defaults",
			cfg:  Config{ObjectPath: "obj"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, VariantDetailed, c.Variant)
				assert.Equal(t, FormatMermaid, c.Format)
				assert.Equal(t, "default", c.Scheme)
				assert.Equal(t, DefaultOutPath, c.OutPath)
				assert.Equal(t, "warn", c.LogLevel)
				assert.Equal(t, DefaultDebounce, c.WatchDebounce)
			},
		},
		{
			name: "case is normalized",
			cfg:  Config{ObjectPath: "obj", Variant: "BOTH", Scheme: "Dark", Direction: "lr"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, VariantBoth, c.Variant)
				assert.Equal(t, "dark", c.Scheme)
				assert.Equal(t, "LR", c.Direction)
			},
		},
		{
			name:    "unknown variant",
			cfg:     Config{ObjectPath: "obj", Variant: "fancy"},
			wantErr: `invalid Variant "fancy"`,
		},
		{
			name:    "unknown direction",
			cfg:     Config{ObjectPath: "obj", Direction: "RL"},
			wantErr: `invalid Direction "RL"`,
		},
		{
			name:    "negative width",
			cfg:     Config{ObjectPath: "obj", PNGWidth: -1},
			wantErr: "invalid PNGWidth",
		},
		{
			name:    "unknown log level",
			cfg:     Config{ObjectPath: "obj", LogLevel: "trace"},
			wantErr: "oneof debug info warn error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewConfig(tc.cfg)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			tc.check(t, c)
		})
	}
}

func TestVariants(t *testing.T) {
	c := &Config{Variant: VariantBoth, HideUtility: false}
	assert.Equal(t, []Variant{
		{Name: VariantDetailed, Details: true, HideUtility: false},
		{Name: VariantOverview, HideUtility: true},
	}, c.Variants())

	c.Variant = VariantOverview
	assert.Len(t, c.Variants(), 1)
}

func TestRunWritesDiagrams(t *testing.T) {
	// --- Arrange ---
	a, logs := SetupAppTest(t, func(c *Config) {
		c.Variant = VariantBoth
		c.HideUtility = false
	})

	// --- Act ---
	out, err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.True(t, out.Result.Success, "errors: %v", out.Result.Errors)
	require.Len(t, out.Artifacts, 2)

	dir := filepath.Dir(a.Config().OutPath)
	detailed, overview := out.Artifacts[0], out.Artifacts[1]
	assert.Equal(t, filepath.Join(dir, "product__v_flow_architecture_default_detailed_03042025050607.mmd"), detailed.Path)
	assert.Equal(t, filepath.Join(dir, "product__v_flow_architecture_default_overview_03042025050607.mmd"), overview.Path)

	code, err := os.ReadFile(detailed.Path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(code), "graph TD\n%% product__v (detailed)\n"))
	assert.Contains(t, string(code), "class env utility;")
	assert.Contains(t, string(code), "Filter: comparison, is_unique")

	code, err = os.ReadFile(overview.Path)
	require.NoError(t, err)
	assert.NotContains(t, string(code), "env")
	assert.NotContains(t, string(code), "<br/>1 merge rule")

	assert.Contains(t, logs.String(), "Build: Graph construction finished.")
}

func TestRunJSON(t *testing.T) {
	a, _ := SetupAppTest(t, func(c *Config) { c.Format = FormatJSON })

	out, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Artifacts, 1)
	assert.True(t, strings.HasSuffix(out.Artifacts[0].Path, "_default_graph_03042025050607.json"))

	data, err := os.ReadFile(out.Artifacts[0].Path)
	require.NoError(t, err)
	var doc struct {
		Graph struct {
			ObjectName string           `json:"object_name"`
			Tasks      []map[string]any `json:"tasks"`
			Edges      []map[string]any `json:"edges"`
		} `json:"graph"`
		Success bool `json:"success"`
		Object  struct {
			Name      string `json:"object_name"`
			YAMLFiles int    `json:"yaml_files_count"`
		} `json:"object"`
		Analysis struct {
			Layers   [][]string `json:"execution_layers"`
			Critical []string   `json:"critical_path"`
		} `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.True(t, doc.Success)
	assert.Equal(t, "product__v", doc.Graph.ObjectName)
	assert.Len(t, doc.Graph.Tasks, 8)
	assert.Len(t, doc.Graph.Edges, 7)
	assert.NotEmpty(t, doc.Analysis.Layers)
	assert.Equal(t, "report", doc.Analysis.Critical[len(doc.Analysis.Critical)-1])
	assert.Equal(t, "product__v", doc.Object.Name)
	assert.Equal(t, 3, doc.Object.YAMLFiles)
}

func TestRunChecksLayout(t *testing.T) {
	t.Run("complete object", func(t *testing.T) {
		a, _ := SetupAppTest(t, nil)

		out, err := a.Run(context.Background())

		require.NoError(t, err)
		assert.True(t, out.Layout.Valid())
		assert.Empty(t, out.Layout.Warnings)
	})

	t.Run("missing required directory", func(t *testing.T) {
		files := testutil.SampleObjectFiles()
		delete(files, "mapping/product_mapping.yml")
		object := testutil.NewObject(t, "obj", files)
		a, _ := SetupAppTest(t, func(c *Config) { c.ObjectPath = object })

		out, err := a.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"Required directory missing: mapping"}, out.Layout.Errors)
		assert.NotEmpty(t, out.Artifacts, "layout problems do not stop rendering")
	})
}

func TestRunWithoutGraph(t *testing.T) {
	a, _ := SetupAppTest(t, func(c *Config) { c.ObjectPath = filepath.Join(t.TempDir(), "missing") })

	out, err := a.Run(context.Background())

	require.ErrorIs(t, err, ErrNoGraph)
	assert.False(t, out.Result.Success)
	assert.Empty(t, out.Artifacts)
}

func TestRunPNG(t *testing.T) {
	t.Run("rendered", func(t *testing.T) {
		r := &fakeRasterizer{}
		a, _ := SetupAppTest(t, func(c *Config) {
			c.PNG = true
			c.Scheme = "dark"
			c.PNGScale = 3
		}, WithRasterizer(r))

		out, err := a.Run(context.Background())

		require.NoError(t, err)
		art := out.Artifacts[0]
		assert.Equal(t, strings.TrimSuffix(art.Path, ".mmd")+".png", art.PNGPath)
		assert.False(t, art.PNGFallback)
		require.Len(t, r.opts, 1)
		assert.Equal(t, render.PNGOptions{Scale: 3, Background: "#1e1e1e"}, r.opts[0])
		assert.FileExists(t, art.PNGPath)
	})

	t.Run("falls back to png-safe code", func(t *testing.T) {
		r := &fakeRasterizer{failures: 1, err: errors.New("parse error")}
		a, _ := SetupAppTest(t, func(c *Config) { c.PNG = true }, WithRasterizer(r))

		out, err := a.Run(context.Background())

		require.NoError(t, err)
		art := out.Artifacts[0]
		assert.True(t, art.PNGFallback)
		assert.NoError(t, art.PNGErr)
		require.Len(t, r.calls, 2)
		assert.Contains(t, r.calls[0], "<br/>")
		assert.NotContains(t, r.calls[1], "<br/>")
		assert.NotContains(t, r.calls[1], "(((")
	})

	t.Run("both attempts fail", func(t *testing.T) {
		r := &fakeRasterizer{failures: 2, err: errors.New("parse error")}
		a, _ := SetupAppTest(t, func(c *Config) { c.PNG = true }, WithRasterizer(r))

		out, err := a.Run(context.Background())

		require.NoError(t, err)
		assert.Empty(t, out.Artifacts[0].PNGPath)
		assert.EqualError(t, out.Artifacts[0].PNGErr, "parse error")
	})

	t.Run("rasterizer unavailable", func(t *testing.T) {
		r := &fakeRasterizer{failures: 1, err: render.ErrRasterizerUnavailable}
		a, _ := SetupAppTest(t, func(c *Config) { c.PNG = true }, WithRasterizer(r))

		out, err := a.Run(context.Background())

		require.NoError(t, err)
		assert.ErrorIs(t, out.Artifacts[0].PNGErr, render.ErrRasterizerUnavailable)
		assert.Len(t, r.calls, 1, "no png-safe retry")
	})

	t.Run("no rasterizer", func(t *testing.T) {
		a, _ := SetupAppTest(t, func(c *Config) { c.PNG = true })

		out, err := a.Run(context.Background())

		require.NoError(t, err)
		assert.ErrorIs(t, out.Artifacts[0].PNGErr, render.ErrRasterizerUnavailable)
	})
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "obj_flow_architecture_dark_overview_12312025235959.mmd",
		FileName("obj", "dark", "overview", "12312025235959", ".mmd"))
	assert.Equal(t, ".", outputDir("flow.mmd"))
	assert.Equal(t, "out", outputDir("out/flow.mmd"))
}
