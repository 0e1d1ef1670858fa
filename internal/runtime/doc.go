// SPDX-License-Identifier: MPL-2.0

// Package runtime runs the shell scripts of tasks declared in a build script.
//
// Two runtimes exist: "virtual" interprets the script with the embedded
// mvdan/sh POSIX shell, and "native" hands it to the host sh. Both see the same
// environment (host variables, env files, the task's env entries, keyword
// arguments and LEVER_TASK) and receive positional arguments as $1..$n.
package runtime
