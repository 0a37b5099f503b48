package evaluator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/ensure/internal/ctxlog"
	"github.com/specialistvlad/ensure/internal/hclutil"
	"github.com/specialistvlad/ensure/internal/localexecutor"
	"github.com/specialistvlad/ensure/internal/node"
	"github.com/specialistvlad/ensure/internal/scope"
	"github.com/specialistvlad/ensure/internal/unit"
	"github.com/zclconf/go-cty/cty"
)

// ActionRunner executes external actions. It is satisfied by
// *localexecutor.Executor.
type ActionRunner interface {
	Run(ctx context.Context, a localexecutor.Action) bool
}

// Invoker resolves a unit called by name from inside an action.
type Invoker interface {
	Invoke(ctx context.Context, name string, args []string, sc *scope.Scope) error
}

// Request carries everything needed to evaluate one occurrence of a unit.
type Request struct {
	Definition *unit.Definition
	Args       []string
	Enclosing  *scope.Scope
	// Emit receives messages as soon as they are produced, both during
	// evaluation and later when an action with a message executes.
	Emit func(node.Message)
	// Invoker may be nil, in which case actions never call units.
	Invoker Invoker
}

// Evaluator evaluates unit definitions.
type Evaluator struct {
	actions ActionRunner
	now     func() time.Time
}

// New creates an evaluator whose operations run through actions.
func New(actions ActionRunner) *Evaluator {
	return &Evaluator{actions: actions, now: time.Now}
}

// Evaluate evaluates the definition exactly once and returns its descriptor.
// Any structural or expression error is reported as a
// *node.MalformedDefinitionError.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (*node.Descriptor, error) {
	def := req.Definition
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Evaluating unit.", "file", def.Filename, "nested", def.Nested, "args", req.Args)

	emit := req.Emit
	if emit == nil {
		emit = func(node.Message) {}
	}
	malformed := func(err error) error {
		return &node.MalformedDefinitionError{Name: def.Name, Filename: def.Filename, Err: err}
	}

	content, diags := def.Body.Content(unitSchema)
	if diags.HasErrors() {
		return nil, malformed(diags)
	}

	vars := map[string]cty.Value{
		VarArgs:      hclutil.StringListVal(req.Args),
		VarName:      cty.StringVal(def.Name),
		VarOriginDir: cty.StringVal(def.OriginDir),
	}

	units, diags := nestedUnits(def, content.Blocks)
	if diags.HasErrors() {
		return nil, malformed(diags)
	}

	locals, diags := evalLocals(req.Enclosing, vars, content.Blocks)
	if diags.HasErrors() {
		return nil, malformed(diags)
	}

	sc := req.Enclosing.Child(scope.Bindings{
		Node:   def.Name,
		Vars:   vars,
		Locals: locals,
		Units:  units,
	})
	evalCtx := sc.EvalContext()

	d := &node.Descriptor{
		Name:      def.Name,
		Args:      append([]string(nil), req.Args...),
		OriginDir: def.OriginDir,
		Scope:     sc,
	}

	if attr, ok := content.Attributes["description"]; ok {
		diags = gohcl.DecodeExpression(attr.Expr, evalCtx, &d.Description)
		if diags.HasErrors() {
			return nil, malformed(diags)
		}
	}

	if attr, ok := content.Attributes["messages"]; ok {
		val, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, malformed(diags)
		}
		texts, err := hclutil.StringList(val)
		if err != nil {
			return nil, malformed(fmt.Errorf("%s: invalid messages: %w", attr.NameRange, err))
		}
		for _, text := range texts {
			msg := node.Message{Text: text, Time: e.now()}
			d.Messages = append(d.Messages, msg)
			emit(msg)
		}
	}

	for _, block := range hclutil.BlocksOfType(content.Blocks, "requires") {
		var body requiresBlock
		if diags := gohcl.DecodeBody(block.Body, evalCtx, &body); diags.HasErrors() {
			return nil, malformed(diags)
		}
		d.Prerequisites = append(d.Prerequisites, node.Prerequisite{
			Name: block.Labels[0],
			Args: body.Args,
		})
	}

	check, err := e.operation(def, "check", content.Blocks, evalCtx, req, emit)
	if err != nil {
		return nil, malformed(err)
	}
	remediate, err := e.operation(def, "remediate", content.Blocks, evalCtx, req, emit)
	if err != nil {
		return nil, malformed(err)
	}
	d.Check = check
	d.Remediate = remediate

	logger.Debug("Unit evaluated.",
		"prerequisites", len(d.Prerequisites),
		"nested_units", len(units),
		"locals", len(locals),
		"messages", len(d.Messages),
	)
	return d, nil
}

// nestedUnits registers every `unit` block of the body as a local definition.
func nestedUnits(parent *unit.Definition, blocks hcl.Blocks) (map[string]*unit.Definition, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	units := make(map[string]*unit.Definition)
	for _, block := range hclutil.BlocksOfType(blocks, "unit") {
		name := block.Labels[0]
		if existing, ok := units[name]; ok {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate nested unit",
				Detail:   fmt.Sprintf("Unit %q was already declared at %s.", name, existing.DefRange),
				Subject:  block.DefRange.Ptr(),
			})
			continue
		}
		units[name] = unit.NewNested(parent, block)
	}
	return units, diags
}

// evalLocals evaluates the locals blocks in source order. Every attribute can
// refer to the locals declared before it, including those of outer scopes.
func evalLocals(enclosing *scope.Scope, vars map[string]cty.Value, blocks hcl.Blocks) (map[string]cty.Value, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	locals := make(map[string]cty.Value)

	for _, block := range hclutil.BlocksOfType(blocks, "locals") {
		attrs, attrDiags := block.Body.JustAttributes()
		diags = append(diags, attrDiags...)
		if attrDiags.HasErrors() {
			return nil, diags
		}

		ordered := make([]*hcl.Attribute, 0, len(attrs))
		for _, attr := range attrs {
			ordered = append(ordered, attr)
		}
		sort.Slice(ordered, func(i, j int) bool {
			return ordered[i].Range.Start.Byte < ordered[j].Range.Start.Byte
		})

		for _, attr := range ordered {
			val, valDiags := attr.Expr.Value(enclosing.EvalContextWith(vars, locals))
			diags = append(diags, valDiags...)
			if valDiags.HasErrors() {
				return nil, diags
			}
			locals[attr.Name] = val
		}
	}
	return locals, diags
}

// operation decodes the single block of the given kind into an Operation.
func (e *Evaluator) operation(def *unit.Definition, kind string, blocks hcl.Blocks, evalCtx *hcl.EvalContext, req Request, emit func(node.Message)) (node.Operation, error) {
	block, diags := hclutil.FindUniqueBlock(blocks, kind)
	if diags.HasErrors() {
		return nil, diags
	}
	if block == nil {
		return nil, hcl.Diagnostics{hclutil.MissingBlock(kind, def.DefRange.Ptr())}
	}

	var body actionBlock
	if diags := gohcl.DecodeBody(block.Body, evalCtx, &body); diags.HasErrors() {
		return nil, diags
	}

	hasScript := body.Script != nil && *body.Script != ""
	if (len(body.Command) > 0) == hasScript {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid \"" + kind + "\" block",
			Detail:   "Exactly one of \"command\" or \"script\" must be set.",
			Subject:  block.DefRange.Ptr(),
		}}
	}

	action := localexecutor.Action{
		Unit:      def.Name,
		Kind:      kind,
		Command:   body.Command,
		Args:      append([]string(nil), req.Args...),
		OriginDir: def.OriginDir,
		Env:       body.Env,
	}
	if hasScript {
		action.Script = *body.Script
	}
	if body.Dir != nil {
		action.Dir = *body.Dir
	}

	op := &actionOperation{
		action:  action,
		runner:  e.actions,
		invoker: req.Invoker,
		emit:    emit,
		now:     e.now,
	}
	if body.Message != nil {
		op.message = *body.Message
	}
	return op, nil
}
