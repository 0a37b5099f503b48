package node

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound matches a unit that has neither a nested nor a file definition.
	ErrNotFound = errors.New("unit not found")
	// ErrMalformedDefinition matches a unit whose evaluation did not produce a
	// valid check/remediate contract.
	ErrMalformedDefinition = errors.New("malformed unit definition")
	// ErrRemediationIneffective matches a unit whose check still fails after
	// remediation ran.
	ErrRemediationIneffective = errors.New("remediation ineffective")
	// ErrCycle matches a unit that requires itself, directly or indirectly.
	ErrCycle = errors.New("dependency cycle")
	// ErrPrerequisiteFailed marks ancestors of the node that failed.
	ErrPrerequisiteFailed = errors.New("prerequisite failed")
)

// NotFoundError reports a unit name that no scope and no search root provides.
type NotFoundError struct {
	Name  string
	Roots []string
}

func (e *NotFoundError) Error() string {
	if len(e.Roots) == 0 {
		return fmt.Sprintf("unit %q not found", e.Name)
	}
	return fmt.Sprintf("unit %q not found in %s", e.Name, strings.Join(e.Roots, ", "))
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// MalformedDefinitionError reports a definition that could not be turned into
// a descriptor.
type MalformedDefinitionError struct {
	Name     string
	Filename string
	Err      error
}

func (e *MalformedDefinitionError) Error() string {
	return fmt.Sprintf("unit %q (%s): %v", e.Name, e.Filename, e.Err)
}

func (e *MalformedDefinitionError) Unwrap() []error { return []error{ErrMalformedDefinition, e.Err} }

// RemediationIneffectiveError reports a unit still not met after remediation.
type RemediationIneffectiveError struct {
	Name string
}

func (e *RemediationIneffectiveError) Error() string {
	return fmt.Sprintf("unit %q: check still fails after remediation", e.Name)
}

func (e *RemediationIneffectiveError) Unwrap() error { return ErrRemediationIneffective }

// CycleError reports a unit already present on the current resolution path.
type CycleError struct {
	Path []string
	Name string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("unit %q requires itself: %s -> %s", e.Name, strings.Join(e.Path, " -> "), e.Name)
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// Reason is the short explanation shown next to a failed node in the tree.
func Reason(err error) string {
	var (
		notFound  *NotFoundError
		malformed *MalformedDefinitionError
		cycle     *CycleError
	)
	switch {
	case errors.Is(err, ErrPrerequisiteFailed):
		return "prerequisite failed"
	case errors.As(err, &notFound):
		return "not found"
	case errors.As(err, &malformed):
		return "malformed definition: " + firstLine(malformed.Err.Error())
	case errors.As(err, &cycle):
		return "dependency cycle"
	case errors.Is(err, ErrRemediationIneffective):
		return "remediation ineffective"
	default:
		return firstLine(err.Error())
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
