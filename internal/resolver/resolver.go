// Package resolver walks a unit's prerequisite graph depth-first, applies the
// check/remediate contract to every node and aborts the whole run on the
// first failure.
package resolver

import (
	"context"
	"fmt"

	"github.com/specialistvlad/ensure/internal/ctxlog"
	"github.com/specialistvlad/ensure/internal/evaluator"
	"github.com/specialistvlad/ensure/internal/loader"
	"github.com/specialistvlad/ensure/internal/node"
	"github.com/specialistvlad/ensure/internal/runner"
	"github.com/specialistvlad/ensure/internal/scope"
	"github.com/specialistvlad/ensure/internal/unit"
)

// Finder locates unit definitions that are not nested in the scope chain.
type Finder interface {
	Find(ctx context.Context, name string) (*loader.Source, error)
}

// Evaluator turns a definition into a node descriptor.
type Evaluator interface {
	Evaluate(ctx context.Context, req evaluator.Request) (*node.Descriptor, error)
}

// Applier applies the check/remediate contract to a node.
type Applier interface {
	Apply(ctx context.Context, d *node.Descriptor) (runner.Result, error)
}

// Resolver orchestrates one resolution run.
type Resolver struct {
	finder    Finder
	evaluator Evaluator
	applier   Applier
	reporter  Reporter
}

// New creates a resolver. A nil reporter discards all tree events.
func New(finder Finder, eval Evaluator, applier Applier, reporter Reporter) *Resolver {
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Resolver{
		finder:    finder,
		evaluator: eval,
		applier:   applier,
		reporter:  reporter,
	}
}

// Resolve resolves name with args inside the root scope. It returns nil only
// if the node and every node beneath it succeeded.
func (r *Resolver) Resolve(ctx context.Context, root *scope.Scope, name string, args []string) error {
	return r.resolve(ctx, root, name, args)
}

// Invoke implements evaluator.Invoker: a unit called from an action is
// resolved as a child of the calling node.
func (r *Resolver) Invoke(ctx context.Context, name string, args []string, sc *scope.Scope) error {
	if err := r.resolve(ctx, sc, name, args); err != nil {
		return &prerequisiteError{name: name, err: err}
	}
	return nil
}

// resolve is the recursive step. The node is drawn at enclosing.Depth() and
// its own scope layer, created by the evaluator, exists only for the
// duration of this call.
func (r *Resolver) resolve(ctx context.Context, enclosing *scope.Scope, name string, args []string) (err error) {
	depth := enclosing.Depth()
	ctx = ctxlog.With(ctx, "unit", name, "depth", depth)
	logger := ctxlog.FromContext(ctx)

	r.reporter.Enter(depth, name, args)
	result := runner.ResultMet
	defer func() {
		r.reporter.Leave(depth, name, args, result, err)
	}()

	if enclosing.Contains(name) {
		return &node.CycleError{Path: enclosing.Path(), Name: name}
	}

	def, err := r.lookup(ctx, enclosing, name)
	if err != nil {
		return err
	}

	d, err := r.evaluator.Evaluate(ctx, evaluator.Request{
		Definition: def,
		Args:       args,
		Enclosing:  enclosing,
		Emit: func(msg node.Message) {
			r.reporter.Message(depth, msg)
		},
		Invoker: r,
	})
	if err != nil {
		return err
	}

	for _, prereq := range d.Prerequisites {
		if err := r.resolve(ctx, d.Scope, prereq.Name, prereq.Args); err != nil {
			logger.Debug("Prerequisite failed, aborting.", "prerequisite", prereq.Name)
			return &prerequisiteError{name: prereq.Name, err: err}
		}
	}

	result, err = r.applier.Apply(ctx, d)
	if err != nil {
		return err
	}
	logger.Debug("Unit resolved.", "result", result)
	return nil
}

// lookup prefers a nested definition visible in the scope chain and falls
// back to the finder.
func (r *Resolver) lookup(ctx context.Context, sc *scope.Scope, name string) (*unit.Definition, error) {
	if def, ok := sc.Lookup(name); ok {
		ctxlog.FromContext(ctx).Debug("Using nested definition.", "file", def.Filename)
		return def, nil
	}

	src, err := r.finder.Find(ctx, name)
	if err != nil {
		return nil, err
	}
	def, err := unit.Parse(src.Name, src.Filename, src.OriginDir, src.Body)
	if err != nil {
		return nil, &node.MalformedDefinitionError{Name: name, Filename: src.Filename, Err: err}
	}
	return def, nil
}

// prerequisiteError marks an ancestor of the failed node. It unwraps to both
// node.ErrPrerequisiteFailed and the original failure.
type prerequisiteError struct {
	name string
	err  error
}

func (e *prerequisiteError) Error() string {
	return fmt.Sprintf("prerequisite %q failed: %v", e.name, e.err)
}

func (e *prerequisiteError) Unwrap() []error {
	return []error{node.ErrPrerequisiteFailed, e.err}
}
