// Package evaluator turns a unit definition into a node descriptor.
//
// Evaluation happens once per occurrence of a unit in the resolution tree.
// The unit's body is evaluated against a fresh scope layer, child of the
// requiring node's layer, seeded with the bound arguments and the origin
// directory. Requirements are only recorded here; resolving them is the
// resolver's job.
package evaluator
