// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [SocketDir] creates a temporary directory in /tmp suitable for Unix
// domain sockets. Unix domain socket paths are limited to 108 bytes
// (sun_path in sockaddr_un), and t.TempDir() can exceed that under
// build systems that set deeply nested temporary roots.
//
// [RequireReceive] encapsulates the timeout safety valve (select with
// a time.After fallback) so individual tests do not need their own
// time.After calls when waiting on a goroutine.
//
// [UniqueID] generates monotonically increasing identifiers, used by
// fake daemons to mint session tokens.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
