// Package testutil runs the whole application against scenes written to a
// temporary directory.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/shaderplan/internal/app"
	"github.com/vk/shaderplan/internal/hcl"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of a harness run.
type HarnessResult struct {
	Output    string
	LogOutput string
	Err       error
	App       *app.App
}

// WriteScene writes files into a fresh temp directory and returns it. Names
// may contain subdirectories.
func WriteScene(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// NewApp builds an app for the scene directory with debug logging. configure,
// when non-nil, may adjust the config before validation.
func NewApp(t *testing.T, dir string, configure func(*app.Config), opts ...app.Option) (*app.App, *SafeBuffer, *SafeBuffer) {
	t.Helper()

	cfg := app.Config{
		ScenePath: dir,
		LogLevel:  "debug",
		LogFormat: "text",
		Verify:    true,
	}
	if configure != nil {
		configure(&cfg)
	}
	validated, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out, logs := &SafeBuffer{}, &SafeBuffer{}
	a, err := app.NewApp(out, logs, validated, hcl.NewLoader(nil), opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("SHADERPLAN_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return a, out, logs
}

// RunScene writes files, runs the app once and collects its output.
func RunScene(t *testing.T, files map[string]string, configure func(*app.Config), opts ...app.Option) *HarnessResult {
	t.Helper()
	return RunSceneWithContext(context.Background(), t, files, configure, opts...)
}

// RunSceneWithContext is RunScene with a caller supplied context.
func RunSceneWithContext(ctx context.Context, t *testing.T, files map[string]string, configure func(*app.Config), opts ...app.Option) *HarnessResult {
	t.Helper()

	a, out, logs := NewApp(t, WriteScene(t, files), configure, opts...)
	err := a.Run(ctx)
	return &HarnessResult{
		Output:    out.String(),
		LogOutput: logs.String(),
		Err:       err,
		App:       a,
	}
}
