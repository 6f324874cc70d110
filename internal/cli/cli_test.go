package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/app"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	object := testutil.SampleObject(t)

	t.Run("help exits cleanly", func(t *testing.T) {
		out := &bytes.Buffer{}

		cfg, shouldExit, err := Parse([]string{"-h"}, out)

		require.NoError(t, err)
		assert.True(t, shouldExit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
		assert.Contains(t, out.String(), "--hide-utility")
	})

	t.Run("no object path prints usage", func(t *testing.T) {
		out := &bytes.Buffer{}

		cfg, shouldExit, err := Parse(nil, out)

		require.NoError(t, err)
		assert.True(t, shouldExit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "flowviz OBJECT_PATH")
	})

	t.Run("defaults", func(t *testing.T) {
		cfg, shouldExit, err := Parse([]string{object}, io.Discard)

		require.NoError(t, err)
		assert.False(t, shouldExit)
		assert.Equal(t, object, cfg.ObjectPath)
		assert.Equal(t, app.DefaultOutPath, cfg.OutPath)
		assert.Equal(t, app.VariantDetailed, cfg.Variant)
		assert.Equal(t, app.FormatMermaid, cfg.Format)
		assert.Equal(t, "default", cfg.Scheme)
		assert.Empty(t, cfg.Direction)
		assert.True(t, cfg.Labels)
		assert.True(t, cfg.HideUtility)
		assert.False(t, cfg.PNG)
		assert.Equal(t, 2.0, cfg.PNGScale)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, app.DefaultDebounce, cfg.WatchDebounce)
	})

	t.Run("every flag", func(t *testing.T) {
		args := []string{
			object,
			"--out", "build/x.mmd",
			"--variant", "both",
			"--png", "--png-scale", "1.5", "--png-width", "800", "--png-height", "600", "--png-bg", "transparent",
			"--no-labels",
			"--scheme", "dark",
			"--direction", "lr",
			"--show-utility",
			"--format", "json",
			"--registry-dir", "conf",
			"--log-level", "DEBUG",
			"--log-format", "json",
			"--watch", "--debounce", "1s",
		}

		cfg, _, err := Parse(args, io.Discard)

		require.NoError(t, err)
		assert.Equal(t, &app.Config{
			ObjectPath:    object,
			OutPath:       "build/x.mmd",
			Variant:       app.VariantBoth,
			Format:        app.FormatJSON,
			Scheme:        "dark",
			Direction:     "LR",
			Labels:        false,
			HideUtility:   false,
			PNG:           true,
			PNGScale:      1.5,
			PNGWidth:      800,
			PNGHeight:     600,
			PNGBackground: "transparent",
			RegistryDir:   "conf",
			LogFormat:     "json",
			LogLevel:      "debug",
			Watch:         true,
			WatchDebounce: time.Second,
		}, cfg)
	})

	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"unknown flag", []string{object, "--nope"}, "unknown flag: --nope"},
		{"too many arguments", []string{object, object}, "accepts at most 1 arg(s)"},
		{"missing object", []string{filepath.Join(object, "missing")}, "does not exist"},
		{"object is a file", []string{filepath.Join(object, "flows", "creation_flow.py")}, "is a file"},
		{"bad variant", []string{object, "--variant", "full"}, `invalid Variant "full"`},
		{"bad scheme", []string{object, "--scheme", "neon"}, `invalid Scheme "neon"`},
		{"conflicting flags", []string{object, "--labels", "--no-labels"}, "none of the others can be"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, shouldExit, err := Parse(tc.args, io.Discard)

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.False(t, shouldExit)
			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}

func TestRun(t *testing.T) {
	fixed := app.WithClock(func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) })

	t.Run("writes and reports", func(t *testing.T) {
		outDir := t.TempDir()
		cfg, err := app.NewConfig(app.Config{
			ObjectPath:  testutil.SampleObject(t),
			OutPath:     filepath.Join(outDir, "flow.mmd"),
			Labels:      true,
			HideUtility: true,
		})
		require.NoError(t, err)
		out := &bytes.Buffer{}

		err = Run(context.Background(), cfg, out, app.WithLogOutput(io.Discard), fixed)

		require.NoError(t, err)
		want := filepath.Join(outDir, "product__v_flow_architecture_default_detailed_01022025030405.mmd")
		assert.Contains(t, out.String(), "Wrote detailed Mermaid to "+want)
		assert.Contains(t, out.String(), " - Linked Mapping -> CreateObjects (auto)")
		assert.NotContains(t, out.String(), "Build failed:")
		assert.FileExists(t, want)
	})

	t.Run("build without graph exits with code 1", func(t *testing.T) {
		cfg, err := app.NewConfig(app.Config{
			ObjectPath: testutil.NewObject(t, "empty", map[string]string{"filter/a.yml": "filters: []"}),
			OutPath:    filepath.Join(t.TempDir(), "flow.mmd"),
		})
		require.NoError(t, err)
		out := &bytes.Buffer{}

		err = Run(context.Background(), cfg, out, app.WithLogOutput(io.Discard), fixed)

		var exitErr *ExitError
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, 1, exitErr.Code)
		assert.Contains(t, out.String(), "Build failed:\n - creation_flow.py not found\n")
	})

	t.Run("failed build with a graph still renders", func(t *testing.T) {
		files := testutil.SampleObjectFiles()
		files["flows/creation_flow.py"] = "a = ReadExcel()\nb = Filter(input_table=a)\nlonely = ReadCSV()\n"
		cfg, err := app.NewConfig(app.Config{
			ObjectPath: testutil.NewObject(t, "obj", files),
			OutPath:    filepath.Join(t.TempDir(), "flow.mmd"),
		})
		require.NoError(t, err)
		out := &bytes.Buffer{}

		err = Run(context.Background(), cfg, out, app.WithLogOutput(io.Discard), fixed)

		require.NoError(t, err)
		assert.Contains(t, out.String(), " - Isolated tasks found: lonely")
		assert.Contains(t, out.String(), "Wrote detailed Mermaid to")
	})
}
