package localexecutor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/ensure/internal/logsink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CommandExitStatus(t *testing.T) {
	executor := New(nil, "", "")
	ctx := context.Background()

	assert.True(t, executor.Run(ctx, Action{Unit: "ok", Kind: "check", Command: []string{"true"}}))
	assert.False(t, executor.Run(ctx, Action{Unit: "fail", Kind: "check", Command: []string{"false"}}))
}

func TestRun_MissingBinaryIsNotMet(t *testing.T) {
	var buf bytes.Buffer
	executor := New(logsink.New(&buf), "", "")

	ok := executor.Run(context.Background(), Action{
		Unit:    "ghost",
		Kind:    "check",
		Command: []string{"ensure-test-binary-that-does-not-exist"},
	})
	assert.False(t, ok)
	assert.Contains(t, buf.String(), "ghost check |")
}

func TestRun_ScriptReceivesArgsAndEnv(t *testing.T) {
	var buf bytes.Buffer
	runDir := t.TempDir()
	executor := New(logsink.New(&buf), "", runDir)

	ok := executor.Run(context.Background(), Action{
		Unit:      "pkg",
		Kind:      "remediate",
		Script:    `echo "unit=$ENSURE_UNIT first=$1 second=$2 extra=$EXTRA" && test "$ENSURE_RUN_DIR" = "` + runDir + `"`,
		Args:      []string{"git", "2.40"},
		OriginDir: "/units",
		Env:       map[string]string{"EXTRA": "yes"},
	})
	require.True(t, ok, buf.String())
	assert.Contains(t, buf.String(), "pkg remediate | unit=pkg first=git second=2.40 extra=yes")
}

func TestRun_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), nil, 0o644))

	executor := New(nil, "", "")
	assert.True(t, executor.Run(context.Background(), Action{
		Unit:    "wd",
		Kind:    "check",
		Command: []string{"test", "-f", "marker"},
		Dir:     dir,
	}))
}

func TestRun_EmptyActionFails(t *testing.T) {
	executor := New(nil, "", "")
	assert.False(t, executor.Run(context.Background(), Action{Unit: "empty", Kind: "check"}))
}
