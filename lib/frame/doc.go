// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package frame implements the length-prefixed framing used on the
// analysis daemon's local sockets.
//
// Every message in either direction is a 4-byte little-endian unsigned
// length followed by exactly that many bytes of payload:
//
//	[u32 length, little-endian] [payload]
//
// The length counts encoded bytes, not characters, so a payload holding
// multi-byte UTF-8 text is framed by its byte length. [ReadMessage]
// accumulates partial reads until the full count arrives; a stream that
// ends early is reported as [ErrTruncated].
//
// The package knows nothing about what the payload contains. The JSON
// envelope carried inside each frame lives in lib/envelope.
package frame
