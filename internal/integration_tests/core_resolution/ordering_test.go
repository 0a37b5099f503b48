package integration_tests

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/ensure/internal/node"
	"github.com/specialistvlad/ensure/internal/testutil"
	"github.com/stretchr/testify/require"
)

// recordingUnit appends its name to journal when checked and always passes.
func recordingUnit(journal, requires string) string {
	return requires + `
		check {
			script = "echo ${name} >> ` + journal + `"
		}
		remediate {
			command = ["true"]
		}
	`
}

// TestResolve_DepthFirstDeclarationOrder checks that prerequisites resolve
// depth-first, left to right, and that the tree follows the same order.
func TestResolve_DepthFirstDeclarationOrder(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	journal := testutil.Marker(t, "journal")
	h := testutil.NewHarness(t, map[string]string{
		"root.hcl": recordingUnit(journal, `
			requires "a" {}
			requires "b" {}
		`),
		"a.hcl":  recordingUnit(journal, `requires "a1" {}`),
		"a1.hcl": recordingUnit(journal, ""),
		"b.hcl":  recordingUnit(journal, ""),
	})

	// --- Act ---
	result := h.Run("root")

	// --- Assert ---
	require.NoError(t, result.Err)

	data, err := os.ReadFile(journal)
	require.NoError(t, err)
	require.Equal(t, []string{"a1", "a", "b", "root"}, strings.Fields(string(data)))

	want := "root …\n" +
		"├─ a …\n" +
		"│  ├─ a1 …\n" +
		"│  │  ✓ a1\n" +
		"│  ✓ a\n" +
		"├─ b …\n" +
		"│  ✓ b\n" +
		"✓ root\n"
	if diff := cmp.Diff(want, result.Tree); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

// TestResolve_FailFastSkipsLaterSiblings checks that the first failure aborts
// the whole run: later siblings are neither evaluated nor drawn.
func TestResolve_FailFastSkipsLaterSiblings(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	journal := testutil.Marker(t, "journal")
	h := testutil.NewHarness(t, map[string]string{
		"root.hcl": recordingUnit(journal, `
			requires "ok" {}
			requires "broken" {}
			requires "never" {}
		`),
		"ok.hcl": recordingUnit(journal, ""),
		"broken.hcl": `
			check {
				command = ["false"]
			}
			remediate {
				command = ["false"]
			}
		`,
		"never.hcl": recordingUnit(journal, ""),
	})

	// --- Act ---
	result := h.Run("root")

	// --- Assert ---
	require.Error(t, result.Err)
	require.True(t, errors.Is(result.Err, node.ErrRemediationIneffective))

	data, err := os.ReadFile(journal)
	require.NoError(t, err)
	require.Equal(t, []string{"ok"}, strings.Fields(string(data)))

	want := "root …\n" +
		"├─ ok …\n" +
		"│  ✓ ok\n" +
		"├─ broken …\n" +
		"│  ✗ broken: remediation ineffective\n" +
		"✗ root: prerequisite failed\n"
	if diff := cmp.Diff(want, result.Tree); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

// TestResolve_RepeatedRequirementIsReevaluated checks that a unit required at
// two places of the tree is resolved independently at each.
func TestResolve_RepeatedRequirementIsReevaluated(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	journal := testutil.Marker(t, "journal")
	h := testutil.NewHarness(t, map[string]string{
		"root.hcl": recordingUnit(journal, `
			requires "a" {}
			requires "shared" {}
		`),
		"a.hcl":      recordingUnit(journal, `requires "shared" {}`),
		"shared.hcl": recordingUnit(journal, ""),
	})

	// --- Act ---
	result := h.Run("root")

	// --- Assert ---
	require.NoError(t, result.Err)

	data, err := os.ReadFile(journal)
	require.NoError(t, err)
	require.Equal(t, []string{"shared", "a", "shared", "root"}, strings.Fields(string(data)))
	require.Equal(t, 2, strings.Count(result.Tree, "✓ shared\n"))
}
