package report

import (
	"github.com/specialistvlad/ensure/internal/node"
	"github.com/specialistvlad/ensure/internal/runner"
)

// Reporter is the set of tree events a renderer consumes. It mirrors
// resolver.Reporter so renderers do not depend on the resolver.
type Reporter interface {
	Enter(depth int, name string, args []string)
	Message(depth int, msg node.Message)
	Leave(depth int, name string, args []string, result runner.Result, err error)
}

// Multi forwards every event to each reporter, in order.
type Multi []Reporter

// Enter implements Reporter.
func (m Multi) Enter(depth int, name string, args []string) {
	for _, r := range m {
		r.Enter(depth, name, args)
	}
}

// Message implements Reporter.
func (m Multi) Message(depth int, msg node.Message) {
	for _, r := range m {
		r.Message(depth, msg)
	}
}

// Leave implements Reporter.
func (m Multi) Leave(depth int, name string, args []string, result runner.Result, err error) {
	for _, r := range m {
		r.Leave(depth, name, args, result, err)
	}
}
