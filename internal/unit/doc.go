// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package unit provides the in-memory representation of a unit definition.
//
// A unit is written in HCL. Its body is kept as a raw hcl.Body rather than
// being decoded up front: the same definition is evaluated once per
// occurrence in a resolution tree, each time with different bound arguments
// and a different enclosing scope, so the decoding into concrete values
// belongs to the evaluator.
//
// Definitions come from two places:
//
//   - Files found by the loader. The definition's origin directory is the
//     directory the file was found in.
//
//   - Nested `unit "name" { ... }` blocks inside another unit's body. These
//     inherit the origin directory of the file that declares them.
package unit
