// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] encapsulates the timeout safety valve pattern
// (select with a time.After fallback) so individual tests do not need
// direct time.After calls. These are the only wall-clock timeouts in
// the test suite; everything else runs on lib/clock fakes.
//
// [SocketDir] creates a short-pathed temporary directory for Unix
// domain sockets, working around the 108-byte sun_path limit that
// deeply nested test tmpdirs exceed.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
