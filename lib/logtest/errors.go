// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logtest

import (
	"errors"
	"fmt"
)

// Kind classifies an exchange failure so callers can branch on it
// without matching message text.
type Kind string

const (
	// KindTransport means the exchange could not complete: connection
	// refused or reset, or the stream ended mid-message. The daemon may
	// be down or restarting.
	KindTransport Kind = "transport"

	// KindProtocol means the daemon answered but the reply is unusable:
	// invalid JSON, missing envelope fields, a schema violation in the
	// result, an oversized frame, or a non-zero status code.
	KindProtocol Kind = "protocol"
)

var (
	// ErrTransport matches every *Error of KindTransport under errors.Is.
	ErrTransport = errors.New("transport error")

	// ErrProtocol matches every *Error of KindProtocol under errors.Is.
	ErrProtocol = errors.New("protocol error")

	// ErrEmptyEvent is returned by ProcessLog for an empty log line.
	// No exchange is attempted.
	ErrEmptyEvent = errors.New("logtest: empty event")
)

// Error is a classified exchange failure. It wraps the underlying
// cause, so errors.As still reaches *envelope.StatusError, net.OpError
// and the like.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Command is the daemon command being exchanged, if known.
	Command string

	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Command, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrProtocol:
		return e.Kind == KindProtocol
	}
	return false
}

func transportError(format string, args ...any) *Error {
	return &Error{Kind: KindTransport, Err: fmt.Errorf(format, args...)}
}

func protocolError(format string, args ...any) *Error {
	return &Error{Kind: KindProtocol, Err: fmt.Errorf(format, args...)}
}

// classify attaches command to err. Errors that already carry a kind
// keep it; anything else an Exchanger returns is a transport failure.
func classify(command string, err error) *Error {
	var classified *Error
	if errors.As(err, &classified) {
		return &Error{Kind: classified.Kind, Command: command, Err: classified.Err}
	}
	return &Error{Kind: KindTransport, Command: command, Err: err}
}
