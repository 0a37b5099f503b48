package evaluator

import (
	"context"
	"time"

	"github.com/specialistvlad/ensure/internal/ctxlog"
	"github.com/specialistvlad/ensure/internal/localexecutor"
	"github.com/specialistvlad/ensure/internal/node"
	"github.com/specialistvlad/ensure/internal/scope"
)

// actionOperation is the Operation built from a check or remediate block.
type actionOperation struct {
	action  localexecutor.Action
	message string

	runner  ActionRunner
	invoker Invoker
	emit    func(node.Message)
	now     func() time.Time
}

// Execute runs the action. When the first word of an argv action names a unit
// visible in sc, that unit is resolved instead of running a process. The
// runner hides the executing unit's own name from sc, so a unit named like
// the program it wraps still runs the program.
func (o *actionOperation) Execute(ctx context.Context, sc *scope.Scope) (bool, error) {
	if o.message != "" {
		o.emit(node.Message{Text: o.message, Time: o.now()})
	}

	if len(o.action.Command) > 0 && o.invoker != nil {
		name := o.action.Command[0]
		if _, ok := sc.Lookup(name); ok {
			ctxlog.FromContext(ctx).Debug("Action invokes an in-scope unit.", "unit", o.action.Unit, "invoked", name)
			if err := o.invoker.Invoke(ctx, name, o.action.Command[1:], sc); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	return o.runner.Run(ctx, o.action), nil
}
