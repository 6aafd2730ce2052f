// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logtest drives the analysis daemon's log-test socket: it
// submits raw log lines, keeps the daemon-assigned session token, and
// interprets the three-phase result the daemon sends back.
//
// The package is organized around the request data flow:
//
//   - transport.go: [SocketTransport], one Unix socket connection per
//     exchange, framed with lib/frame
//   - session.go: [Session], which owns the fixed request fields and
//     the current token and runs log_processing and remove_session
//   - result.go: [Result] and [Output], the typed reply, validated once
//     when it is decoded
//   - summary.go: [Summarize], the pure phase-by-phase view of a result
//   - tuple.go: [Tuple], the (rule id, rule level, decoder name) triple
//     compared in unit-test mode
//   - render.go: [Renderer], terminal output for summaries
//
// # Session lifecycle
//
// The daemon creates a session the first time it sees a log line
// without a token and returns the new token in the reply. Callers pass
// [Session.Token] back on every later call so that the daemon keeps
// its contextual state (correlation rules, frequency counters). A reply
// whose token differs from the one supplied means the daemon discarded
// the old session and created a new one.
//
// Only the most recent session is removed at shutdown, via
// [Session.Close]. Earlier sessions replaced mid-run are left for the
// daemon to expire.
//
// # Errors
//
// Every exchange failure is an [*Error] whose Kind says whether the
// daemon was unreachable ([ErrTransport]) or replied with something
// unusable ([ErrProtocol]). Neither kind is retried. A failed exchange
// never changes the held token.
//
// # Timeouts
//
// The daemon protocol defines none and by default none are applied: a
// daemon that accepts the connection and never answers blocks the
// caller until ctx is cancelled. [TransportConfig] exposes opt-in dial
// and exchange bounds.
//
// A Session is not safe for concurrent use.
package logtest
