// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logtest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/bureau-foundation/logtest/lib/frame"
)

// DefaultSocketPath is where the analysis daemon listens for log-test
// requests on a standard installation.
const DefaultSocketPath = "/var/ossec/queue/ossec/logtest"

// Exchanger performs one request/reply exchange with the daemon.
// SocketTransport is the production implementation; tests substitute
// their own.
//
// Implementations should return an *Error to classify a failure.
// Unclassified errors are treated as transport failures.
type Exchanger interface {
	Exchange(ctx context.Context, payload []byte) ([]byte, error)
}

// TransportConfig bounds a SocketTransport. The zero value applies no
// bounds, which matches the daemon's own clients: a daemon that hangs
// blocks the caller until ctx is cancelled.
type TransportConfig struct {
	// DialTimeout bounds the connect phase. Zero means no bound.
	DialTimeout time.Duration

	// ExchangeTimeout bounds writing the request and reading the
	// complete reply. Zero means no bound.
	ExchangeTimeout time.Duration

	// Logger receives debug-level connection details. Nil discards.
	Logger *slog.Logger
}

// SocketTransport exchanges framed messages with the daemon over a
// Unix stream socket. Each Exchange opens a new connection, writes one
// frame, reads one frame, and closes the connection, matching the
// daemon's one-request-per-connection model.
type SocketTransport struct {
	socketPath string
	config     TransportConfig
	logger     *slog.Logger
}

// NewSocketTransport returns a transport for the daemon socket at
// socketPath. No connection is made until Exchange.
func NewSocketTransport(socketPath string, config TransportConfig) *SocketTransport {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SocketTransport{
		socketPath: socketPath,
		config:     config,
		logger:     logger,
	}
}

// SocketPath returns the socket this transport connects to.
func (t *SocketTransport) SocketPath() string {
	return t.socketPath
}

// Exchange sends payload as one frame and returns the payload of the
// reply frame. The connection is closed before Exchange returns,
// whatever the outcome.
func (t *SocketTransport) Exchange(ctx context.Context, payload []byte) ([]byte, error) {
	dialer := net.Dialer{Timeout: t.config.DialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", t.socketPath)
	if err != nil {
		return nil, transportError("connecting to %s: %w", t.socketPath, err)
	}
	defer conn.Close()

	if err := t.bound(conn); err != nil {
		return nil, err
	}
	// Cancelling ctx pulls the deadline in so a blocked read or write
	// returns. Registered after the exchange deadline so it cannot be
	// overwritten by it.
	stop := context.AfterFunc(ctx, func() {
		t.interrupt(conn)
	})
	defer stop()

	if t.logger.Enabled(ctx, slog.LevelDebug) {
		if credentials, ok := peerCredentials(conn); ok {
			t.logger.Debug("connected to daemon",
				"socket", t.socketPath,
				"pid", credentials.pid,
				"uid", credentials.uid,
			)
		}
	}

	if err := frame.WriteMessage(conn, payload); err != nil {
		return nil, t.exchangeError(ctx, "sending request", err)
	}
	reply, err := frame.ReadMessage(conn)
	if err != nil {
		return nil, t.exchangeError(ctx, "receiving reply", err)
	}

	t.logger.Debug("exchange complete",
		"socket", t.socketPath,
		"request_bytes", len(payload),
		"reply_bytes", len(reply),
	)
	return reply, nil
}

// deadlineConn is the part of a connection the exchange bounds use.
type deadlineConn interface {
	SetDeadline(time.Time) error
	Close() error
}

// bound applies the configured exchange timeout. A timeout that cannot
// be applied fails the exchange rather than leaving it unbounded.
func (t *SocketTransport) bound(conn deadlineConn) error {
	if t.config.ExchangeTimeout <= 0 {
		return nil
	}
	if err := conn.SetDeadline(time.Now().Add(t.config.ExchangeTimeout)); err != nil {
		return transportError("setting exchange deadline on %s: %w", t.socketPath, err)
	}
	return nil
}

// interrupt unblocks a pending read or write on conn. If the deadline
// cannot be moved the connection is closed instead.
func (t *SocketTransport) interrupt(conn deadlineConn) {
	if err := conn.SetDeadline(time.Now()); err != nil {
		t.logger.Debug("cannot interrupt exchange with a deadline, closing connection",
			"socket", t.socketPath,
			"error", err,
		)
		conn.Close()
	}
}

// exchangeError classifies a failure after the connection was
// established. An oversized frame is a protocol failure; everything
// else means the stream could not carry the exchange.
func (t *SocketTransport) exchangeError(ctx context.Context, phase string, err error) *Error {
	if errors.Is(err, frame.ErrPayloadTooLarge) {
		return protocolError("%s: %w", phase, err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return transportError("%s: %w", phase, ctxErr)
	}
	return transportError("%s: %w", phase, err)
}

// peerCredentialsInfo identifies the process on the other end of a
// Unix socket. Only populated on platforms with SO_PEERCRED.
type peerCredentialsInfo struct {
	pid int32
	uid uint32
}
