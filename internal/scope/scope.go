// Package scope implements the chain of bindings visible while a unit is
// evaluated and executed.
//
// Every resolved node owns one layer. A layer is built once and never
// changed; lookups walk outward towards the root. Nested unit definitions
// registered in a layer are therefore visible to the owning node and its
// descendants, never to siblings or ancestors.
package scope

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/ensure/internal/unit"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// LocalsVar is the variable name under which locals are exposed to expressions.
const LocalsVar = "local"

// Bindings is everything a node layer introduces.
type Bindings struct {
	// Node is the name of the unit owning the layer.
	Node string
	// Vars are plain variables such as args and origin_dir.
	Vars map[string]cty.Value
	// Locals are the values declared in the unit's locals blocks.
	Locals map[string]cty.Value
	// Units are the nested definitions declared in the unit's body.
	Units map[string]*unit.Definition
}

// Scope is one immutable layer of the chain.
type Scope struct {
	parent *Scope
	depth  int

	node   string
	hidden string

	vars      map[string]cty.Value
	locals    map[string]cty.Value
	units     map[string]*unit.Definition
	functions map[string]function.Function
}

// NewRoot creates the outermost scope of a run.
func NewRoot(vars map[string]cty.Value, functions map[string]function.Function) *Scope {
	return &Scope{
		vars:      copyValues(vars),
		functions: functions,
	}
}

// Child creates the layer owned by a node resolved inside s. Its depth is one
// more than s, which is the tree depth of the node's prerequisites.
func (s *Scope) Child(b Bindings) *Scope {
	units := make(map[string]*unit.Definition, len(b.Units))
	for name, def := range b.Units {
		units[name] = def
	}
	return &Scope{
		parent: s,
		depth:  s.depth + 1,
		node:   b.Node,
		vars:   copyValues(b.Vars),
		locals: copyValues(b.Locals),
		units:  units,
	}
}

// Hide returns a layer over s in which name cannot be looked up. Everything
// else is inherited unchanged, including depth.
func (s *Scope) Hide(name string) *Scope {
	return &Scope{
		parent: s,
		depth:  s.depth,
		hidden: name,
	}
}

// Depth is the tree depth at which units resolved in this scope are drawn.
func (s *Scope) Depth() int {
	return s.depth
}

// Node returns the name of the node owning the layer, or "" for the root and
// hide layers.
func (s *Scope) Node() string {
	return s.node
}

// Lookup finds a nested definition by walking outward through the chain.
func (s *Scope) Lookup(name string) (*unit.Definition, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.hidden != "" && cur.hidden == name {
			return nil, false
		}
		if def, ok := cur.units[name]; ok {
			return def, true
		}
	}
	return nil, false
}

// Path returns the names of the nodes owning the chain, outermost first.
func (s *Scope) Path() []string {
	var path []string
	for cur := s; cur != nil; cur = cur.parent {
		if cur.node != "" {
			path = append(path, cur.node)
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Contains reports whether a node with the given name owns a layer of the chain.
func (s *Scope) Contains(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.node == name {
			return true
		}
	}
	return false
}

// Units lists the nested definitions visible from s, sorted by name.
func (s *Scope) Units() []string {
	seen := make(map[string]struct{})
	hidden := make(map[string]struct{})
	for cur := s; cur != nil; cur = cur.parent {
		if cur.hidden != "" {
			hidden[cur.hidden] = struct{}{}
		}
		for name := range cur.units {
			if _, ok := hidden[name]; ok {
				continue
			}
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EvalContext flattens the chain into an hcl.EvalContext. Inner variables
// shadow outer ones and locals from every layer are merged into one object.
func (s *Scope) EvalContext() *hcl.EvalContext {
	return s.evalContext(nil, nil)
}

// EvalContextWith is EvalContext plus bindings that have not been turned into
// a layer yet. The evaluator uses it while a node's own layer is being built.
func (s *Scope) EvalContextWith(vars, locals map[string]cty.Value) *hcl.EvalContext {
	return s.evalContext(vars, locals)
}

func (s *Scope) evalContext(extraVars, extraLocals map[string]cty.Value) *hcl.EvalContext {
	var chain []*Scope
	for cur := s; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}

	vars := make(map[string]cty.Value)
	locals := make(map[string]cty.Value)
	var functions map[string]function.Function

	for i := len(chain) - 1; i >= 0; i-- {
		layer := chain[i]
		for k, v := range layer.vars {
			vars[k] = v
		}
		for k, v := range layer.locals {
			locals[k] = v
		}
		if layer.functions != nil {
			functions = layer.functions
		}
	}
	for k, v := range extraVars {
		vars[k] = v
	}
	for k, v := range extraLocals {
		locals[k] = v
	}

	if len(locals) == 0 {
		vars[LocalsVar] = cty.EmptyObjectVal
	} else {
		vars[LocalsVar] = cty.ObjectVal(locals)
	}

	return &hcl.EvalContext{
		Variables: vars,
		Functions: functions,
	}
}

func copyValues(in map[string]cty.Value) map[string]cty.Value {
	out := make(map[string]cty.Value, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
