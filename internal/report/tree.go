// Package report renders resolution events as an indented tree.
//
// Output is incremental: a node's entry line is written as soon as the node
// is entered, with a pending marker, and its terminal line once its status
// is known. A failed run therefore leaves every completed node visible.
//
//	beta …
//	│  » checking beta
//	├─ alpha …
//	│  │  » installing alpha
//	│  ✓ alpha (remediated)
//	✓ beta
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/specialistvlad/ensure/internal/node"
	"github.com/specialistvlad/ensure/internal/runner"
)

// Glyphs used by the tree.
const (
	MarkPending = "…"
	MarkOK      = "✓"
	MarkFail    = "✗"
	MarkMessage = "»"

	connector = "├─ "
	rail      = "│  "
)

// Options tune the rendering.
type Options struct {
	// NoColor disables styling even on a color-capable terminal.
	NoColor bool
	// Timestamps prefixes each message with the time it was emitted.
	Timestamps bool
}

// Tree is a resolver.Reporter writing to an io.Writer.
type Tree struct {
	mu   sync.Mutex
	w    io.Writer
	opts Options

	pending lipgloss.Style
	ok      lipgloss.Style
	fail    lipgloss.Style
	message lipgloss.Style
	dim     lipgloss.Style
}

// NewTree creates a tree renderer. Styles are resolved against w, so a plain
// buffer or a redirected file gets no escape sequences.
func NewTree(w io.Writer, opts Options) *Tree {
	t := &Tree{w: w, opts: opts}
	if opts.NoColor {
		plain := lipgloss.NewStyle()
		t.pending, t.ok, t.fail, t.message, t.dim = plain, plain, plain, plain, plain
		return t
	}

	r := lipgloss.NewRenderer(w)
	t.pending = r.NewStyle().Foreground(lipgloss.Color("3"))
	t.ok = r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	t.fail = r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	t.message = r.NewStyle().Foreground(lipgloss.Color("6"))
	t.dim = r.NewStyle().Faint(true)
	return t
}

// Enter writes the node's entry line with the pending marker.
func (t *Tree) Enter(depth int, name string, args []string) {
	t.printf("%s%s %s\n", entryPrefix(depth), node.Label(name, args), t.pending.Render(MarkPending))
}

// Message writes a message line under the node at depth.
func (t *Tree) Message(depth int, msg node.Message) {
	text := msg.Text
	if t.opts.Timestamps && !msg.Time.IsZero() {
		text = t.dim.Render("["+msg.Time.Format(time.TimeOnly)+"]") + " " + text
	}
	t.printf("%s%s %s\n", bodyPrefix(depth), t.message.Render(MarkMessage), text)
}

// Leave writes the node's terminal line.
func (t *Tree) Leave(depth int, name string, args []string, result runner.Result, err error) {
	label := node.Label(name, args)
	if err != nil {
		t.printf("%s%s %s: %s\n", closePrefix(depth), t.fail.Render(MarkFail), label, node.Reason(err))
		return
	}
	if result == runner.ResultRemediated {
		label += t.dim.Render(" (remediated)")
	}
	t.printf("%s%s %s\n", closePrefix(depth), t.ok.Render(MarkOK), label)
}

func (t *Tree) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, format, args...)
}

// entryPrefix draws the rails of the ancestors and the connector of the node.
func entryPrefix(depth int) string {
	if depth == 0 {
		return ""
	}
	return strings.Repeat(rail, depth-1) + connector
}

// bodyPrefix is used for lines that belong to the node at depth: its
// messages.
func bodyPrefix(depth int) string {
	return strings.Repeat(rail, depth+1)
}

// closePrefix is used for the terminal line of the node at depth.
func closePrefix(depth int) string {
	return strings.Repeat(rail, depth)
}
