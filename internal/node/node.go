// Package node defines the evaluated form of a unit: the descriptor the
// resolver walks, the operations the runner executes, and the error types
// shared by every stage of a run.
package node

import (
	"context"
	"strings"
	"time"

	"github.com/specialistvlad/ensure/internal/scope"
)

// Descriptor is a unit evaluated against one set of bound arguments.
type Descriptor struct {
	// Name is the unit name, unique along one resolution path.
	Name string
	// Args are the values supplied by the requiring caller, in order.
	Args []string
	// OriginDir is the directory the unit's definition was loaded from.
	OriginDir string
	// Description is the optional human-readable summary of the unit.
	Description string

	// Prerequisites are the declared requirements, in declaration order.
	Prerequisites []Prerequisite

	// Check reports whether the unit's goal is already met.
	Check Operation
	// Remediate performs the side effects that should make Check pass.
	Remediate Operation

	// Messages holds every message emitted while the unit was evaluated.
	Messages []Message

	// Scope is the node's own layer of the scope chain.
	Scope *scope.Scope
}

// Label renders the node name followed by its arguments.
func (d *Descriptor) Label() string {
	return Label(d.Name, d.Args)
}

// Label renders a unit name followed by its arguments, as shown in the tree.
func Label(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// Prerequisite is a recorded requirement. Recording it does not resolve it.
type Prerequisite struct {
	Name string
	Args []string
}

// Message is a progress line emitted by a unit.
type Message struct {
	Text string
	Time time.Time
}

// Operation is one half of a unit's check/remediate contract. The boolean is
// the binary met (for checks) or succeeded (for remediations) signal. A
// non-nil error is not a signal: it aborts the whole run.
type Operation interface {
	Execute(ctx context.Context, sc *scope.Scope) (bool, error)
}

// OperationFunc adapts a plain function to the Operation interface.
type OperationFunc func(ctx context.Context, sc *scope.Scope) (bool, error)

// Execute implements Operation.
func (f OperationFunc) Execute(ctx context.Context, sc *scope.Scope) (bool, error) {
	return f(ctx, sc)
}
