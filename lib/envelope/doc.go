// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package envelope encodes and decodes the JSON envelope that the
// analysis daemons wrap around every request and reply.
//
// A request names its protocol version, the identity of the sender,
// the command, and the command's parameters:
//
//	{"version":1,"origin":{"name":"wazuh-logtest","module":"wazuh-logtest"},
//	 "command":"log_processing","parameters":{...}}
//
// A reply carries a status code, an optional message, and the payload:
//
//	{"error":0,"message":"","data":{...}}
//
// [Unwrap] validates the reply once, at this boundary: the text must be
// a JSON object with a "data" member, and a non-zero "error" is turned
// into a [*StatusError]. Every failure returned by this package wraps
// [ErrMalformed] or is a [*StatusError], so callers can tell "the daemon
// replied garbage" or "the daemon refused" from a transport failure
// without inspecting message text.
//
// JSON encoding uses encoding/json: the envelope is a fixed external
// format and the payloads are small.
package envelope
