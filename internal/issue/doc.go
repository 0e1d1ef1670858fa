// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the operation that failed, the resource involved and
// suggestions for fixing it. Errors that map to a known situation also point at
// an Issue: a Markdown page rendered with glamour when the CLI reports the error.
package issue
