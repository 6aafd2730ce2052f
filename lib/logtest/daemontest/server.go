// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package daemontest provides an in-process stand-in for the analysis
// daemon's log-test socket. It speaks the real wire protocol (length
// framing plus the JSON envelope) over a real Unix socket, so client
// code is exercised end to end without the daemon installed.
package daemontest

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/bureau-foundation/logtest/lib/envelope"
	"github.com/bureau-foundation/logtest/lib/frame"
)

// HandlerFunc answers one request. The returned value becomes the
// reply's data member. A non-nil error produces a reply with error 1
// and the error text as message.
type HandlerFunc func(request envelope.Request, parameters json.RawMessage) (any, error)

// ReplyWriter controls the raw bytes written back on a connection.
// Use it to send malformed or truncated replies.
type ReplyWriter func(conn net.Conn)

// Request is one request the server received, kept for assertions.
type Request struct {
	Envelope   envelope.Request
	Parameters json.RawMessage
	Raw        []byte
}

// Server is a fake daemon. Register handlers with Handle, then Start.
type Server struct {
	socketPath string
	logger     *slog.Logger

	// chunkSize, when positive, splits every reply into writes of at
	// most this many bytes.
	chunkSize int

	mutex    sync.Mutex
	handlers map[string]HandlerFunc
	raw      map[string]ReplyWriter
	requests []Request

	listener          net.Listener
	activeConnections sync.WaitGroup
}

// NewServer creates a server that will listen on socketPath.
func NewServer(socketPath string, logger *slog.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		logger:     logger,
		handlers:   make(map[string]HandlerFunc),
		raw:        make(map[string]ReplyWriter),
	}
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// SetChunkSize makes the server write replies in pieces of at most
// size bytes, so clients see partial reads.
func (s *Server) SetChunkSize(size int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.chunkSize = size
}

// Handle registers handler for command, replacing any previous one.
func (s *Server) Handle(command string, handler HandlerFunc) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.handlers[command] = handler
	delete(s.raw, command)
}

// HandleRaw registers a writer that produces the whole reply for
// command itself, bypassing framing and the envelope.
func (s *Server) HandleRaw(command string, writer ReplyWriter) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.raw[command] = writer
	delete(s.handlers, command)
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]Request(nil), s.requests...)
}

// Start listens and serves in the background until ctx is cancelled.
// The listener is open when Start returns.
func (s *Server) Start(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	s.listener = listener

	go func() {
		<-ctx.Done()
		listener.Close()
	}()
	s.activeConnections.Add(1)
	go func() {
		defer s.activeConnections.Done()
		s.serve(ctx)
	}()
	return nil
}

// Wait blocks until the accept loop and every connection handler have
// finished. Call after cancelling the Start context.
func (s *Server) Wait() {
	s.activeConnections.Wait()
	os.Remove(s.socketPath)
}

func (s *Server) serve(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection processes one request-reply cycle.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	payload, err := frame.ReadMessage(conn)
	if err != nil {
		s.logger.Debug("reading request failed", "error", err)
		return
	}

	var request envelope.Request
	var parameters struct {
		Parameters json.RawMessage `json:"parameters"`
	}
	if err := json.Unmarshal(payload, &request); err != nil {
		s.writeReply(conn, envelope.Response{Error: 1, Message: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	json.Unmarshal(payload, &parameters)

	s.mutex.Lock()
	s.requests = append(s.requests, Request{Envelope: request, Parameters: parameters.Parameters, Raw: payload})
	handler := s.handlers[request.Command]
	raw := s.raw[request.Command]
	s.mutex.Unlock()

	if raw != nil {
		raw(conn)
		return
	}
	if handler == nil {
		s.writeReply(conn, envelope.Response{Error: 1, Message: fmt.Sprintf("unknown command %q", request.Command)})
		return
	}

	result, err := handler(request, parameters.Parameters)
	if err != nil {
		s.writeReply(conn, envelope.Response{Error: 1, Message: err.Error()})
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		s.writeReply(conn, envelope.Response{Error: 1, Message: fmt.Sprintf("internal: marshaling reply: %v", err)})
		return
	}
	s.writeReply(conn, envelope.Response{Data: data})
}

// writeReply frames and writes a reply, honouring the chunk size.
func (s *Server) writeReply(conn net.Conn, response envelope.Response) {
	encoded, err := json.Marshal(response)
	if err != nil {
		s.logger.Debug("encoding reply failed", "error", err)
		return
	}
	s.mutex.Lock()
	chunkSize := s.chunkSize
	s.mutex.Unlock()

	if chunkSize <= 0 {
		if err := frame.WriteMessage(conn, encoded); err != nil {
			s.logger.Debug("writing reply failed", "error", err)
		}
		return
	}

	framed := make([]byte, frame.HeaderLength+len(encoded))
	binary.LittleEndian.PutUint32(framed, uint32(len(encoded)))
	copy(framed[frame.HeaderLength:], encoded)
	for len(framed) > 0 {
		size := min(chunkSize, len(framed))
		if _, err := conn.Write(framed[:size]); err != nil {
			s.logger.Debug("writing reply chunk failed", "error", err)
			return
		}
		framed = framed[size:]
	}
}
