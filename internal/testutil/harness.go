// Package testutil provides shared helpers for the integration tests.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/ensure/internal/app"
	"github.com/specialistvlad/ensure/internal/logsink"
	"github.com/stretchr/testify/require"
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

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	// Tree is everything rendered to the user-facing output.
	Tree string
	// LogOutput is everything written to the log sink: engine logs and raw
	// action output.
	LogOutput string
	Err       error
	App       *app.App
}

// Harness is a temporary search root plus the configuration used to run
// units from it.
type Harness struct {
	t *testing.T
	// Root is the search root the unit files are written to.
	Root string
	// Config is the base configuration of every run. Unit and Args are
	// overwritten by Run.
	Config app.Config
}

// NewHarness creates a search root in a temporary directory and writes files
// into it. Keys are paths relative to the root, e.g. "pkg/git.hcl".
func NewHarness(t *testing.T, files map[string]string) *Harness {
	t.Helper()

	root := t.TempDir()
	h := &Harness{
		t:    t,
		Root: root,
		Config: app.Config{
			Roots:     []string{root},
			LogLevel:  "debug",
			LogFormat: "text",
			NoColor:   true,
		},
	}
	for name, content := range files {
		h.WriteFile(name, content)
	}
	return h
}

// WriteFile writes a file below the harness root, creating directories as
// needed.
func (h *Harness) WriteFile(name, content string) {
	h.t.Helper()
	path := filepath.Join(h.Root, filepath.FromSlash(name))
	require.NoError(h.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0o644))
}

// Run resolves unit with args using a background context.
func (h *Harness) Run(unit string, args ...string) *HarnessResult {
	h.t.Helper()
	return h.RunWithContext(context.Background(), unit, args...)
}

// RunWithContext resolves unit with args. The log sink is captured in memory.
func (h *Harness) RunWithContext(ctx context.Context, unit string, args ...string) *HarnessResult {
	h.t.Helper()

	cfg := h.Config
	cfg.Unit = unit
	cfg.Args = args
	cfg.LogFile = filepath.Join(h.t.TempDir(), "ensure.log")
	config, err := app.NewConfig(cfg)
	require.NoError(h.t, err)

	tree := &SafeBuffer{}
	logs := &SafeBuffer{}
	testApp := app.NewAppWithSink(tree, config, logsink.New(logs))
	runErr := testApp.Run(ctx)
	require.NoError(h.t, testApp.Close())

	if os.Getenv("ENSURE_TEST_LOGS") == "true" {
		h.t.Logf("--- Tree for %s ---\n%s", h.t.Name(), tree.String())
		h.t.Logf("--- Full Log Output for %s ---\n%s", h.t.Name(), logs.String())
	}

	return &HarnessResult{
		Tree:      tree.String(),
		LogOutput: logs.String(),
		Err:       runErr,
		App:       testApp,
	}
}

// List runs the app in list mode.
func (h *Harness) List() *HarnessResult {
	h.t.Helper()

	cfg := h.Config
	cfg.List = true
	cfg.LogFile = filepath.Join(h.t.TempDir(), "ensure.log")
	config, err := app.NewConfig(cfg)
	require.NoError(h.t, err)

	out := &SafeBuffer{}
	logs := &SafeBuffer{}
	testApp := app.NewAppWithSink(out, config, logsink.New(logs))
	runErr := testApp.Run(context.Background())

	return &HarnessResult{
		Tree:      out.String(),
		LogOutput: logs.String(),
		Err:       runErr,
		App:       testApp,
	}
}

// Marker returns a path inside a fresh temporary directory that tests use as
// an on-disk side effect of remediation.
func Marker(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}
