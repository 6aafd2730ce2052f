// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logtest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/logtest/lib/envelope"
)

// Daemon commands.
const (
	CommandLogProcessing = "log_processing"
	CommandRemoveSession = "remove_session"
)

// Defaults for the fixed request fields, matching what the daemon's
// own log-test tool sends.
const (
	DefaultLocation  = "master->/var/log/syslog"
	DefaultLogFormat = "syslog"
)

// DefaultOrigin is the sender identity stamped on requests.
var DefaultOrigin = envelope.Origin{Name: "wazuh-logtest", Module: "wazuh-logtest"}

// SessionConfig holds the fixed fields of every log_processing request.
// Empty fields take the package defaults.
type SessionConfig struct {
	// Location is the log origin reported to the daemon.
	Location string

	// LogFormat selects the daemon's pre-decoder (syslog, json, ...).
	LogFormat string

	// Origin identifies this client in the request envelope.
	Origin envelope.Origin

	// Logger receives request/reply dumps at debug level and daemon
	// messages at warn level. Nil discards.
	Logger *slog.Logger
}

// Session runs log_processing and remove_session exchanges and holds
// the token and tuple of the most recent successful log_processing.
type Session struct {
	transport Exchanger
	codec     envelope.Codec
	location  string
	logFormat string
	logger    *slog.Logger

	token string
	tuple Tuple

	closeOnce sync.Once
	closeErr  error
}

// logProcessingParameters is the parameter map of log_processing.
// Token is omitted until the daemon has assigned one.
type logProcessingParameters struct {
	Location  string `json:"location"`
	LogFormat string `json:"log_format"`
	Event     string `json:"event"`
	Token     string `json:"token,omitempty"`
}

// NewSession returns a session with no token. Nothing is exchanged
// until the first ProcessLog.
func NewSession(transport Exchanger, config SessionConfig) *Session {
	if config.Location == "" {
		config.Location = DefaultLocation
	}
	if config.LogFormat == "" {
		config.LogFormat = DefaultLogFormat
	}
	if config.Origin == (envelope.Origin{}) {
		config.Origin = DefaultOrigin
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		transport: transport,
		codec:     envelope.NewCodec(config.Origin),
		location:  config.Location,
		logFormat: config.LogFormat,
		logger:    logger,
	}
}

// Token returns the token of the most recent successful log_processing
// exchange, or "" if there has been none (or it was removed).
func (s *Session) Token() string {
	return s.token
}

// LastTuple returns the tuple extracted from the most recent successful
// log_processing reply.
func (s *Session) LastTuple() Tuple {
	return s.tuple
}

// ProcessLog submits one log line. A non-empty token continues that
// session; an empty token asks the daemon for a new one. On success the
// held token becomes the reply's token and the tuple is recomputed from
// scratch. On failure neither changes.
//
// Callers normally pass s.Token(). A result token that differs from the
// supplied one means the daemon did not know the supplied token and
// created a new session.
func (s *Session) ProcessLog(ctx context.Context, event, token string) (*Result, error) {
	if event == "" {
		return nil, ErrEmptyEvent
	}

	data, err := s.exchange(ctx, CommandLogProcessing, logProcessingParameters{
		Location:  s.location,
		LogFormat: s.logFormat,
		Event:     event,
		Token:     token,
	})
	if err != nil {
		return nil, err
	}

	result, err := decodeResult(data)
	if err != nil {
		return nil, &Error{Kind: KindProtocol, Command: CommandLogProcessing, Err: err}
	}

	s.token = result.Token
	s.tuple = TupleOf(result.Output)

	for _, message := range result.Messages {
		s.logger.Warn("daemon message",
			"command", CommandLogProcessing,
			"codemsg", result.Codemsg,
			"message", message,
		)
	}
	return result, nil
}

// RemoveSession asks the daemon to discard the session identified by
// token and returns the reply data. If token is the held token it is
// cleared, so a later RemoveLastSession does not remove it again.
func (s *Session) RemoveSession(ctx context.Context, token string) (json.RawMessage, error) {
	s.logger.Debug("removing session", "token", token)
	data, err := s.exchange(ctx, CommandRemoveSession, token)
	if err != nil {
		return nil, err
	}
	if token == s.token {
		s.token = ""
	}
	return data, nil
}

// RemoveLastSession removes the held session. It does nothing, and
// exchanges nothing, when no token is held.
func (s *Session) RemoveLastSession(ctx context.Context) error {
	if s.token == "" {
		return nil
	}
	_, err := s.RemoveSession(ctx, s.token)
	return err
}

// Close removes the held session. Only the first call does anything;
// later calls return the first call's error. Defer it right after
// NewSession so cleanup runs on every exit path.
//
// ctx bounds the removal. On shutdown the caller's run context is
// usually already cancelled, so pass a fresh one with a deadline: a
// daemon that accepts and never answers would otherwise hold up exit.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.RemoveLastSession(ctx)
	})
	return s.closeErr
}

// exchange wraps parameters under command, performs the exchange, and
// returns the reply's data member.
func (s *Session) exchange(ctx context.Context, command string, parameters any) (json.RawMessage, error) {
	request, err := s.codec.Wrap(command, parameters)
	if err != nil {
		return nil, &Error{Kind: KindProtocol, Command: command, Err: err}
	}
	s.logger.Debug("request", "command", command, "payload", string(request))

	reply, err := s.transport.Exchange(ctx, request)
	if err != nil {
		return nil, classify(command, err)
	}
	s.logger.Debug("reply", "command", command, "payload", string(reply))

	data, err := envelope.Unwrap(reply)
	if err != nil {
		return nil, &Error{Kind: KindProtocol, Command: command, Err: err}
	}
	return data, nil
}
