// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs work when files change.
//
// A Watcher registers every directory under its root with fsnotify, filters
// events through doublestar glob patterns and calls its ChangeFunc once the
// tree has been quiet for the debounce period. Events that arrive while the
// callback runs are kept for the next call, so no change is lost and calls
// never overlap.
package watch
