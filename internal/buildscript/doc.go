// SPDX-License-Identifier: MPL-2.0

// Package buildscript finds and loads lever build scripts.
//
// A build script is a CUE file validated against an embedded #Build schema.
// Each entry of its tasks list becomes a task whose body runs the entry's
// shell script through a runtime. Loading rejects duplicate names, unknown
// dependencies, dependency cycles, an undeclared default and scripts that do
// not parse, so a malformed file fails before any task runs.
package buildscript
