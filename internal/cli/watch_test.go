package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	testCases := []struct {
		path string
		want bool
	}{
		{"flows/creation_flow.py", true},
		{"filter/a.yml", true},
		{"mapping/B.YAML", true},
		{"product_flow_architecture_default_detailed_01022025030405.mmd", false},
		{"x.png", false},
		{"flows/.creation_flow.py.swp", false},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, relevant(tc.path))
		})
	}
}

func TestWatcherRebuildsAfterChange(t *testing.T) {
	// --- Arrange ---
	root := testutil.SampleObject(t)
	w, err := NewWatcher(root, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(testutil.Context(t))
	defer cancel()
	calls := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) error {
			calls <- changed
			return nil
		})
	}()

	// --- Act ---
	target := filepath.Join(root, "filter", "active_filter.yml")
	require.NoError(t, os.WriteFile(target, []byte(testutil.SampleFilter+"\n"), 0o644))

	// --- Assert ---
	select {
	case changed := <-calls:
		assert.Contains(t, changed, target)
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after change")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherStopsOnRebuildError(t *testing.T) {
	root := testutil.SampleObject(t)
	w, err := NewWatcher(root, 10*time.Millisecond)
	require.NoError(t, err)

	boom := errors.New("boom")
	done := make(chan error, 1)
	go func() {
		done <- w.Run(context.Background(), func(context.Context, []string) error { return boom })
	}()

	require.NoError(t, os.WriteFile(filepath.Join(root, "flows", "creation_flow.py"), []byte(testutil.SampleFlow), 0o644))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not return the rebuild error")
	}
}

func TestNewWatcherMissingRoot(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), time.Millisecond)
	assert.Error(t, err)
}

func TestWatchNewDirLogsFailure(t *testing.T) {
	// --- Arrange ---
	w, err := NewWatcher(t.TempDir(), time.Millisecond)
	require.NoError(t, err)
	defer w.fsw.Close()
	logs := &testutil.SafeBuffer{}
	gone := filepath.Join(t.TempDir(), "removed")

	// --- Act ---
	w.watchNewDir(testutil.NewLogger(logs), gone)

	// --- Assert ---
	assert.Contains(t, logs.String(), "Watch: Failed to watch new directory.")
	assert.Contains(t, logs.String(), gone)
}
