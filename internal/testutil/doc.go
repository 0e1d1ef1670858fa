// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include environment variable management (MustSetenv, MustUnsetenv),
// filesystem setup (MustChdir, MustMkdirAll, MustWriteFile), a controllable clock
// (FakeClock) and a RecordingSink that captures task lifecycle events.
package testutil
