// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logtest

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/logtest/lib/envelope"
	"github.com/bureau-foundation/logtest/lib/frame"
	"github.com/bureau-foundation/logtest/lib/logtest/daemontest"
	"github.com/bureau-foundation/logtest/lib/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startDaemon runs a fake daemon for the duration of the test.
func startDaemon(t *testing.T) *daemontest.Server {
	t.Helper()
	server := daemontest.NewServer(testutil.SocketPath(t, "logtest"), testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	if err := server.Start(ctx); err != nil {
		cancel()
		t.Fatalf("starting fake daemon: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		server.Wait()
	})
	return server
}

// sshdAnalyzer reports the worked example for every event.
func sshdAnalyzer(_ string, parameters daemontest.LogProcessingParameters) daemontest.Analysis {
	output := map[string]any{
		"full_log": parameters.Event,
		"rule":     map[string]any{"id": "100001", "level": 5},
		"decoder":  map[string]any{"name": "test-decoder"},
	}
	encoded, _ := json.Marshal(output)
	return daemontest.Analysis{Output: encoded, Alert: true}
}

func TestSocketTransportSessionRoundTrip(t *testing.T) {
	server := startDaemon(t)
	sessions := daemontest.NewSessions(sshdAnalyzer)
	sessions.Register(server)

	transport := NewSocketTransport(server.SocketPath(), TransportConfig{Logger: testLogger()})
	session := NewSession(transport, SessionConfig{})

	first, err := session.ProcessLog(t.Context(), "Jan 1 00:00:00 host test", session.Token())
	if err != nil {
		t.Fatalf("first ProcessLog: %v", err)
	}
	second, err := session.ProcessLog(t.Context(), "Jan 1 00:00:01 host test", session.Token())
	if err != nil {
		t.Fatalf("second ProcessLog: %v", err)
	}
	if first.Token != second.Token {
		t.Errorf("daemon opened a second session: %q then %q", first.Token, second.Token)
	}
	if len(second.Messages) != 0 {
		t.Errorf("unexpected daemon messages: %v", second.Messages)
	}
	if got := session.LastTuple(); got != (Tuple{"100001", "5", "test-decoder"}) {
		t.Errorf("tuple: got %v", got)
	}
	if active := sessions.Active(); len(active) != 1 || active[0] != first.Token {
		t.Errorf("active sessions: got %v, want [%s]", active, first.Token)
	}

	if err := session.Close(t.Context()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if active := sessions.Active(); len(active) != 0 {
		t.Errorf("sessions left open after Close: %v", active)
	}

	requests := server.Requests()
	if len(requests) != 3 {
		t.Fatalf("requests: got %d, want 3", len(requests))
	}
	if requests[2].Envelope.Command != CommandRemoveSession {
		t.Errorf("last command: got %q", requests[2].Envelope.Command)
	}
	if string(requests[2].Parameters) != `"`+first.Token+`"` {
		t.Errorf("remove_session parameters: got %s", requests[2].Parameters)
	}
}

func TestSocketTransportUnknownTokenOpensNewSession(t *testing.T) {
	server := startDaemon(t)
	daemontest.NewSessions(sshdAnalyzer).Register(server)
	session := NewSession(NewSocketTransport(server.SocketPath(), TransportConfig{}), SessionConfig{})

	stale := testutil.UniqueID("stale")
	result, err := session.ProcessLog(t.Context(), "line", stale)
	if err != nil {
		t.Fatalf("ProcessLog: %v", err)
	}
	if result.Token == stale {
		t.Fatalf("daemon accepted unknown token %q", stale)
	}
	if result.Codemsg != 1 || len(result.Messages) != 1 {
		t.Errorf("expected a new-session notice, got codemsg %d messages %v", result.Codemsg, result.Messages)
	}
}

func TestSocketTransportChunkedReply(t *testing.T) {
	server := startDaemon(t)
	server.SetChunkSize(1)
	daemontest.NewSessions(sshdAnalyzer).Register(server)

	session := NewSession(NewSocketTransport(server.SocketPath(), TransportConfig{}), SessionConfig{})
	result, err := session.ProcessLog(t.Context(), "chunked", "")
	if err != nil {
		t.Fatalf("ProcessLog: %v", err)
	}
	if result.Output.FullLog == nil || *result.Output.FullLog != "chunked" {
		t.Errorf("full_log: got %v", result.Output.FullLog)
	}
}

func TestSocketTransportConnectionRefused(t *testing.T) {
	socketPath := filepath.Join(testutil.SocketDir(t), "absent")
	transport := NewSocketTransport(socketPath, TransportConfig{})

	_, err := transport.Exchange(t.Context(), []byte(`{}`))
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("got %v, want ErrTransport", err)
	}
	if errors.Is(err, ErrProtocol) {
		t.Error("connection failure classified as protocol error")
	}
}

func TestSocketTransportFailures(t *testing.T) {
	tests := []struct {
		name   string
		writer daemontest.ReplyWriter
		kind   error
	}{
		{
			name: "garbage payload",
			writer: func(conn net.Conn) {
				frame.WriteMessage(conn, []byte("this is not json"))
			},
			kind: ErrProtocol,
		},
		{
			name: "closed without reply",
			writer: func(conn net.Conn) {
			},
			kind: ErrTransport,
		},
		{
			name: "truncated payload",
			writer: func(conn net.Conn) {
				header := make([]byte, frame.HeaderLength)
				binary.LittleEndian.PutUint32(header, 100)
				conn.Write(header)
				conn.Write([]byte(`{"er`))
			},
			kind: ErrTransport,
		},
		{
			name: "oversized header",
			writer: func(conn net.Conn) {
				header := make([]byte, frame.HeaderLength)
				binary.LittleEndian.PutUint32(header, frame.MaxPayloadLength+1)
				conn.Write(header)
			},
			kind: ErrProtocol,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := startDaemon(t)
			server.HandleRaw(CommandLogProcessing, test.writer)
			session := NewSession(NewSocketTransport(server.SocketPath(), TransportConfig{}), SessionConfig{})

			_, err := session.ProcessLog(t.Context(), "line", "")
			if !errors.Is(err, test.kind) {
				t.Fatalf("got %v, want %v", err, test.kind)
			}
			if session.Token() != "" {
				t.Errorf("token set after failure: %q", session.Token())
			}
		})
	}
}

func TestSocketTransportOversizedHeaderWrapsFrameError(t *testing.T) {
	server := startDaemon(t)
	server.HandleRaw(CommandLogProcessing, func(conn net.Conn) {
		header := make([]byte, frame.HeaderLength)
		binary.LittleEndian.PutUint32(header, 0xFFFFFFFF)
		conn.Write(header)
	})
	transport := NewSocketTransport(server.SocketPath(), TransportConfig{})
	request, err := envelope.NewCodec(DefaultOrigin).Wrap(CommandLogProcessing, map[string]string{"event": "x"})
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}

	_, err = transport.Exchange(t.Context(), request)
	if !errors.Is(err, frame.ErrPayloadTooLarge) {
		t.Errorf("got %v, want frame.ErrPayloadTooLarge in chain", err)
	}
}

func TestSocketTransportCancelUnblocksHungDaemon(t *testing.T) {
	server := startDaemon(t)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	server.HandleRaw(CommandLogProcessing, func(conn net.Conn) {
		<-release
	})

	session := NewSession(NewSocketTransport(server.SocketPath(), TransportConfig{}), SessionConfig{})
	ctx, cancel := context.WithCancel(t.Context())
	errs := make(chan error, 1)
	go func() {
		_, err := session.ProcessLog(ctx, "line", "")
		errs <- err
	}()

	// Let the request reach the daemon before cancelling.
	for len(server.Requests()) == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	err := testutil.RequireReceive(t, errs, 5*time.Second, "waiting for ProcessLog to return after cancel")
	if !errors.Is(err, ErrTransport) {
		t.Errorf("got %v, want ErrTransport", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled in chain", err)
	}
}

func TestSocketTransportCloseBoundedByContext(t *testing.T) {
	server := startDaemon(t)
	server.Handle(CommandLogProcessing, func(envelope.Request, json.RawMessage) (any, error) {
		return map[string]any{"token": "abcd1234", "output": map[string]any{}, "alert": false}, nil
	})
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	server.HandleRaw(CommandRemoveSession, func(conn net.Conn) {
		<-release
	})

	session := NewSession(NewSocketTransport(server.SocketPath(), TransportConfig{}), SessionConfig{})
	if _, err := session.ProcessLog(t.Context(), "line", ""); err != nil {
		t.Fatalf("ProcessLog: %v", err)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	errs := make(chan error, 1)
	go func() { errs <- session.Close(ctx) }()

	err := testutil.RequireReceive(t, errs, 5*time.Second, "waiting for Close to give up on a hung daemon")
	if !errors.Is(err, ErrTransport) {
		t.Errorf("got %v, want ErrTransport", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want context.DeadlineExceeded in chain", err)
	}
}

func TestSocketTransportExchangeTimeout(t *testing.T) {
	server := startDaemon(t)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	server.HandleRaw(CommandLogProcessing, func(conn net.Conn) {
		<-release
	})

	transport := NewSocketTransport(server.SocketPath(), TransportConfig{ExchangeTimeout: 50 * time.Millisecond})
	session := NewSession(transport, SessionConfig{})

	errs := make(chan error, 1)
	go func() {
		_, err := session.ProcessLog(t.Context(), "line", "")
		errs <- err
	}()
	err := testutil.RequireReceive(t, errs, 5*time.Second, "waiting for the exchange timeout")
	if !errors.Is(err, ErrTransport) {
		t.Errorf("got %v, want ErrTransport", err)
	}
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Errorf("got %v, want os.ErrDeadlineExceeded in chain", err)
	}
}

func TestSocketTransportDaemonStatusError(t *testing.T) {
	server := startDaemon(t)
	server.Handle(CommandLogProcessing, func(envelope.Request, json.RawMessage) (any, error) {
		return nil, errors.New("(7307): error parsing log_format")
	})
	session := NewSession(NewSocketTransport(server.SocketPath(), TransportConfig{}), SessionConfig{})

	_, err := session.ProcessLog(t.Context(), "line", "")
	var statusError *envelope.StatusError
	if !errors.As(err, &statusError) {
		t.Fatalf("got %v, want *envelope.StatusError", err)
	}
	if statusError.Message != "(7307): error parsing log_format" {
		t.Errorf("message: got %q", statusError.Message)
	}
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("got %v, want ErrProtocol", err)
	}
}

// stuckConn refuses every deadline.
type stuckConn struct {
	closed bool
}

func (c *stuckConn) SetDeadline(time.Time) error { return errors.New("deadline not supported") }

func (c *stuckConn) Close() error {
	c.closed = true
	return nil
}

func TestSocketTransportUnsettableDeadline(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	t.Run("exchange timeout", func(t *testing.T) {
		transport := NewSocketTransport("/run/logtest", TransportConfig{ExchangeTimeout: time.Second, Logger: logger})
		err := transport.bound(&stuckConn{})
		if !errors.Is(err, ErrTransport) {
			t.Errorf("got %v, want ErrTransport", err)
		}
	})

	t.Run("no timeout configured", func(t *testing.T) {
		transport := NewSocketTransport("/run/logtest", TransportConfig{Logger: logger})
		if err := transport.bound(&stuckConn{}); err != nil {
			t.Errorf("got %v, want nil", err)
		}
	})

	t.Run("interrupt", func(t *testing.T) {
		transport := NewSocketTransport("/run/logtest", TransportConfig{Logger: logger})
		conn := &stuckConn{}
		transport.interrupt(conn)
		if !conn.closed {
			t.Error("connection left open after the deadline could not be set")
		}
		if !strings.Contains(logs.String(), "deadline not supported") {
			t.Errorf("failure not logged:\n%s", logs.String())
		}
	})
}
