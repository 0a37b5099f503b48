package evaluator

import "github.com/hashicorp/hcl/v2"

// Variable names bound in every node layer.
const (
	VarArgs      = "args"
	VarName      = "name"
	VarOriginDir = "origin_dir"
	VarRunDir    = "run_dir"
)

// unitSchema is the shape of a unit file body and of a nested unit block.
var unitSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "description"},
		{Name: "messages"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "locals"},
		{Type: "unit", LabelNames: []string{"name"}},
		{Type: "requires", LabelNames: []string{"name"}},
		{Type: "check"},
		{Type: "remediate"},
	},
}

// requiresBlock is the body of a `requires "name" { ... }` block.
type requiresBlock struct {
	Args []string `hcl:"args,optional"`
}

// actionBlock is the body of a `check` or `remediate` block.
type actionBlock struct {
	Command []string          `hcl:"command,optional"`
	Script  *string           `hcl:"script,optional"`
	Dir     *string           `hcl:"dir,optional"`
	Env     map[string]string `hcl:"env,optional"`
	Message *string           `hcl:"message,optional"`
}
