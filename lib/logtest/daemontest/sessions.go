// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package daemontest

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/bureau-foundation/logtest/lib/envelope"
)

// LogProcessingParameters is what a client sends with log_processing.
type LogProcessingParameters struct {
	Location  string `json:"location"`
	LogFormat string `json:"log_format"`
	Event     string `json:"event"`
	Token     string `json:"token,omitempty"`
}

// Analysis is the verdict for one event. Output is written verbatim as
// the reply's output member, so its member order is preserved.
type Analysis struct {
	Output json.RawMessage
	Alert  bool
}

// Analyzer decides what the fake daemon reports for an event. token is
// the session the event was processed in, after any new session was
// opened, so analyzers can emulate correlation across lines.
type Analyzer func(token string, parameters LogProcessingParameters) Analysis

// Sessions emulates the daemon's session table: log_processing with no
// token or an unknown token opens a new session, and remove_session
// closes one.
type Sessions struct {
	analyze Analyzer

	mutex  sync.Mutex
	next   int
	active map[string]bool
}

// NewSessions returns an empty session table that answers events with
// analyze.
func NewSessions(analyze Analyzer) *Sessions {
	return &Sessions{
		analyze: analyze,
		active:  make(map[string]bool),
	}
}

// Register installs the log_processing and remove_session handlers on
// server.
func (s *Sessions) Register(server *Server) {
	server.Handle("log_processing", s.logProcessing)
	server.Handle("remove_session", s.removeSession)
}

// Active returns the open session tokens in sorted order.
func (s *Sessions) Active() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	tokens := make([]string, 0, len(s.active))
	for token := range s.active {
		tokens = append(tokens, token)
	}
	slices.Sort(tokens)
	return tokens
}

type logProcessingReply struct {
	Messages []string        `json:"messages,omitempty"`
	Token    string          `json:"token"`
	Output   json.RawMessage `json:"output"`
	Alert    bool            `json:"alert"`
	Codemsg  int             `json:"codemsg"`
}

func (s *Sessions) logProcessing(_ envelope.Request, raw json.RawMessage) (any, error) {
	var parameters LogProcessingParameters
	if err := json.Unmarshal(raw, &parameters); err != nil {
		return nil, fmt.Errorf("invalid log_processing parameters: %w", err)
	}
	if parameters.Event == "" {
		return nil, fmt.Errorf("(7308): 'event' JSON field is required")
	}

	var reply logProcessingReply
	s.mutex.Lock()
	token := parameters.Token
	if token == "" || !s.active[token] {
		if token != "" {
			reply.Messages = append(reply.Messages,
				fmt.Sprintf("WARNING: (7309): '%s' is not a valid token, creating new session", token))
			reply.Codemsg = 1
		}
		s.next++
		token = fmt.Sprintf("%08x", s.next)
		s.active[token] = true
	}
	s.mutex.Unlock()

	analysis := s.analyze(token, parameters)
	reply.Token = token
	reply.Output = analysis.Output
	if reply.Output == nil {
		reply.Output = json.RawMessage("{}")
	}
	reply.Alert = analysis.Alert
	return reply, nil
}

type removeSessionReply struct {
	Messages []string `json:"messages"`
	Codemsg  int      `json:"codemsg"`
}

func (s *Sessions) removeSession(_ envelope.Request, raw json.RawMessage) (any, error) {
	var token string
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("remove_session parameters must be a token string: %w", err)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.active[token] {
		return nil, fmt.Errorf("(7004): session '%s' not found", token)
	}
	delete(s.active, token)
	return removeSessionReply{
		Messages: []string{fmt.Sprintf("INFO: (7206): The session '%s' was closed successfully", token)},
	}, nil
}
