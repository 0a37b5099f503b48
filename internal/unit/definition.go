// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package unit

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Definition is the unevaluated form of a unit.
type Definition struct {
	// Name is the unit name the definition was registered under.
	Name string
	// Filename is the file the body was parsed from. Nested definitions share
	// the filename of the unit that declares them.
	Filename string
	// OriginDir is the directory handed to the unit as origin_dir.
	OriginDir string
	// Nested is true for definitions declared inside another unit's body.
	Nested bool
	// Body is the raw HCL body, evaluated later against a scope.
	Body hcl.Body
	// DefRange points at the declaring block for nested definitions, or the
	// start of the file otherwise.
	DefRange hcl.Range
}

// Parse parses unit source into a Definition.
func Parse(name, filename, originDir string, src []byte) (*Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	return &Definition{
		Name:      name,
		Filename:  filename,
		OriginDir: originDir,
		Body:      file.Body,
		DefRange:  hcl.Range{Filename: filename, Start: hcl.InitialPos, End: hcl.InitialPos},
	}, nil
}

// NewNested builds the definition for a `unit` block declared in parent's body.
func NewNested(parent *Definition, block *hcl.Block) *Definition {
	return &Definition{
		Name:      block.Labels[0],
		Filename:  parent.Filename,
		OriginDir: parent.OriginDir,
		Nested:    true,
		Body:      block.Body,
		DefRange:  block.DefRange,
	}
}
