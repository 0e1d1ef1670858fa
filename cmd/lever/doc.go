// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands of lever.
//
// The root command resolves the task tokens given on the command line against
// the build script and runs them. Subcommands list and describe tasks, create a
// starter build script, manage the user configuration and rerun tasks when
// files change.
package cmd
