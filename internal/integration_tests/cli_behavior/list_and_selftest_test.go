package integration_tests

import (
	"testing"

	"github.com/specialistvlad/ensure/internal/testutil"
	"github.com/stretchr/testify/require"
)

// TestList_PrintsUnitsAcrossRoots checks that --list enumerates unit files in
// every root, sorted and without duplicates.
func TestList_PrintsUnitsAcrossRoots(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	first := testutil.NewHarness(t, map[string]string{
		"git.hcl":       "",
		"pkg/brew.hcl":  "",
		"notes.txt":     "not a unit",
		"pkg/readme.md": "not a unit",
	})
	second := testutil.NewHarness(t, map[string]string{
		"git.hcl":   "",
		"zsh.hcl":   "",
		"a/b/c.hcl": "",
	})
	first.Config.Roots = append(first.Config.Roots, second.Root)

	// --- Act ---
	result := first.List()

	// --- Assert ---
	require.NoError(t, result.Err)
	require.Equal(t, "a/b/c\ngit\npkg/brew\nzsh\n", result.Tree)
}

// TestList_EarlierRootWins checks that the first root holding a unit provides
// its definition.
func TestList_EarlierRootWins(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	primary := testutil.NewHarness(t, map[string]string{
		"tool.hcl": `
			check {
				command = ["true"]
			}
			remediate {
				command = ["false"]
			}
		`,
	})
	fallback := testutil.NewHarness(t, map[string]string{
		"tool.hcl": `
			check {
				command = ["false"]
			}
			remediate {
				command = ["false"]
			}
		`,
	})
	primary.Config.Roots = append(primary.Config.Roots, fallback.Root)

	// --- Act ---
	result := primary.Run("tool")

	// --- Assert ---
	require.NoError(t, result.Err)
}

// TestSelftest_PassesThroughTheEngine runs the embedded self-test units.
func TestSelftest_PassesThroughTheEngine(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	h := testutil.NewHarness(t, nil)

	// --- Act ---
	result := h.Run("selftest")

	// --- Assert ---
	require.NoError(t, result.Err, result.Tree)
	require.Contains(t, result.Tree, "│  » running self-tests\n")
	require.Contains(t, result.Tree, "├─ selftest/args one two …\n")
	require.Contains(t, result.Tree, "│  ✓ selftest/remediate (remediated)\n")
	require.Contains(t, result.Tree, "│  │  ✓ true\n")
	require.Contains(t, result.Tree, "│  │  │  » inner sees: hello world\n")
	require.Contains(t, result.Tree, "✓ selftest\n")
}

// TestReport_UnreachableBroadcastDoesNotFailRun checks that the optional tree
// broadcast never influences the outcome of a run.
func TestReport_UnreachableBroadcastDoesNotFailRun(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	h := testutil.NewHarness(t, map[string]string{
		"ok.hcl": `
			check {
				command = ["true"]
			}
			remediate {
				command = ["false"]
			}
		`,
	})
	h.Config.ReportURL = "/missing/scheme"

	// --- Act ---
	result := h.Run("ok")

	// --- Assert ---
	require.NoError(t, result.Err)
	require.Equal(t, "ok …\n✓ ok\n", result.Tree)
	require.Contains(t, result.LogOutput, "Tree broadcast unavailable")
}
