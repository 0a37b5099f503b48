// Package runner applies the check → remediate → re-check contract to a
// single evaluated node.
package runner

import (
	"context"
	"fmt"

	"github.com/specialistvlad/ensure/internal/ctxlog"
	"github.com/specialistvlad/ensure/internal/node"
)

// Result is the outcome of a successful Apply.
type Result int

const (
	// ResultMet means the first check passed and nothing was remediated.
	ResultMet Result = iota
	// ResultRemediated means remediation ran and the re-check passed.
	ResultRemediated
)

func (r Result) String() string {
	switch r {
	case ResultMet:
		return "met"
	case ResultRemediated:
		return "remediated"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Runner applies the idempotency contract.
type Runner struct{}

// New creates a Runner.
func New() *Runner {
	return &Runner{}
}

// Apply checks the node and, when the check is not met, remediates once and
// checks again. The remediation's own status is ignored; only the re-check
// decides. There are no retries beyond this single cycle.
//
// The node's own name is hidden from the scope its operations execute in.
func (r *Runner) Apply(ctx context.Context, d *node.Descriptor) (Result, error) {
	logger := ctxlog.FromContext(ctx)
	sc := d.Scope.Hide(d.Name)

	met, err := d.Check.Execute(ctx, sc)
	if err != nil {
		return ResultMet, err
	}
	if met {
		logger.Debug("Check met, skipping remediation.")
		return ResultMet, nil
	}

	logger.Debug("Check not met, remediating.")
	ok, err := d.Remediate.Execute(ctx, sc)
	if err != nil {
		return ResultMet, err
	}
	logger.Debug("Remediation finished.", "succeeded", ok)

	met, err = d.Check.Execute(ctx, sc)
	if err != nil {
		return ResultMet, err
	}
	if !met {
		logger.Info("Check still not met after remediation.")
		return ResultMet, &node.RemediationIneffectiveError{Name: d.Name}
	}
	return ResultRemediated, nil
}
