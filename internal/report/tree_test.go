package report

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/ensure/internal/node"
	"github.com/specialistvlad/ensure/internal/runner"
	"github.com/stretchr/testify/assert"
)

func TestTree_SuccessfulRun(t *testing.T) {
	var buf bytes.Buffer
	tree := NewTree(&buf, Options{NoColor: true})

	tree.Enter(0, "beta", nil)
	tree.Message(0, node.Message{Text: "checking beta"})
	tree.Enter(1, "alpha", []string{"x"})
	tree.Message(1, node.Message{Text: "installing alpha"})
	tree.Leave(1, "alpha", []string{"x"}, runner.ResultRemediated, nil)
	tree.Leave(0, "beta", nil, runner.ResultMet, nil)

	expected := "" +
		"beta …\n" +
		"│  » checking beta\n" +
		"├─ alpha x …\n" +
		"│  │  » installing alpha\n" +
		"│  ✓ alpha x (remediated)\n" +
		"✓ beta\n"
	if diff := cmp.Diff(expected, buf.String()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestTree_FailureKeepsCompletedNodes(t *testing.T) {
	var buf bytes.Buffer
	tree := NewTree(&buf, Options{NoColor: true})

	notFound := &node.NotFoundError{Name: "delta"}
	tree.Enter(0, "gamma", nil)
	tree.Enter(1, "ok", nil)
	tree.Leave(1, "ok", nil, runner.ResultMet, nil)
	tree.Enter(1, "delta", nil)
	tree.Leave(1, "delta", nil, runner.ResultMet, notFound)
	tree.Leave(0, "gamma", nil, runner.ResultMet, errors.Join(node.ErrPrerequisiteFailed, notFound))

	expected := "" +
		"gamma …\n" +
		"├─ ok …\n" +
		"│  ✓ ok\n" +
		"├─ delta …\n" +
		"│  ✗ delta: not found\n" +
		"✗ gamma: prerequisite failed\n"
	if diff := cmp.Diff(expected, buf.String()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestTree_DeepConnectors(t *testing.T) {
	var buf bytes.Buffer
	tree := NewTree(&buf, Options{NoColor: true})

	tree.Enter(2, "leaf", nil)
	tree.Leave(2, "leaf", nil, runner.ResultMet, nil)

	assert.Equal(t, "│  ├─ leaf …\n│  │  ✓ leaf\n", buf.String())
}

func TestTree_Timestamps(t *testing.T) {
	var buf bytes.Buffer
	tree := NewTree(&buf, Options{NoColor: true, Timestamps: true})

	at := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	tree.Message(0, node.Message{Text: "hello", Time: at})

	assert.Equal(t, "│  » [15:04:05] hello\n", buf.String())
}

func TestTree_ColorlessOnPlainWriter(t *testing.T) {
	var buf bytes.Buffer
	tree := NewTree(&buf, Options{})

	tree.Enter(0, "alpha", nil)
	tree.Leave(0, "alpha", nil, runner.ResultMet, nil)

	assert.Equal(t, "alpha …\n✓ alpha\n", buf.String())
}
