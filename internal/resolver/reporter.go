package resolver

import (
	"github.com/specialistvlad/ensure/internal/node"
	"github.com/specialistvlad/ensure/internal/runner"
)

// Reporter consumes tree events as they happen. Events for one node always
// arrive as Enter, zero or more Message, then exactly one Leave; the events of
// its prerequisites nest between its Enter and its Leave.
type Reporter interface {
	Enter(depth int, name string, args []string)
	Message(depth int, msg node.Message)
	// Leave reports the node's terminal status. err is nil on success, in
	// which case result tells whether remediation was needed.
	Leave(depth int, name string, args []string, result runner.Result, err error)
}

type nopReporter struct{}

func (nopReporter) Enter(int, string, []string)                       {}
func (nopReporter) Message(int, node.Message)                         {}
func (nopReporter) Leave(int, string, []string, runner.Result, error) {}
