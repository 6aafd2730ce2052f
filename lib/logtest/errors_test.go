// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logtest

import (
	"errors"
	"io"
	"testing"

	"github.com/bureau-foundation/logtest/lib/envelope"
)

func TestClassify(t *testing.T) {
	status := &envelope.StatusError{Code: 1, Message: "bad"}
	tests := []struct {
		name     string
		err      error
		wantKind Kind
	}{
		{name: "plain error is transport", err: io.ErrUnexpectedEOF, wantKind: KindTransport},
		{name: "protocol kept", err: protocolError("reply: %w", status), wantKind: KindProtocol},
		{name: "transport kept", err: transportError("dial: %w", io.EOF), wantKind: KindTransport},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			classified := classify(CommandLogProcessing, test.err)
			if classified.Kind != test.wantKind {
				t.Errorf("kind: got %s, want %s", classified.Kind, test.wantKind)
			}
			if classified.Command != CommandLogProcessing {
				t.Errorf("command: got %q", classified.Command)
			}
		})
	}
}

func TestErrorMatching(t *testing.T) {
	status := &envelope.StatusError{Code: 1, Message: "bad"}
	err := error(classify(CommandRemoveSession, protocolError("reply: %w", status)))

	if !errors.Is(err, ErrProtocol) {
		t.Error("protocol error does not match ErrProtocol")
	}
	if errors.Is(err, ErrTransport) {
		t.Error("protocol error matches ErrTransport")
	}
	var statusErr *envelope.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != 1 {
		t.Errorf("status error not reachable through %v", err)
	}
	if got, want := err.Error(), "remove_session: protocol error: reply: "+status.Error(); got != want {
		t.Errorf("message: got %q, want %q", got, want)
	}
}
