// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ProtocolVersion is the only envelope version the daemons speak.
const ProtocolVersion = 1

var (
	// ErrMalformed is wrapped by every decoding failure: invalid JSON,
	// a non-object envelope, or a missing data member.
	ErrMalformed = errors.New("envelope: malformed message")

	// ErrMissingData is returned when a reply has no "data" member.
	ErrMissingData = fmt.Errorf("%w: missing data field", ErrMalformed)
)

// Origin identifies the sender of a request.
type Origin struct {
	Name   string `json:"name"`
	Module string `json:"module"`
}

// Request is the wire form of a request envelope. Parameters is
// whatever the command takes: a map for log_processing, a bare string
// for remove_session.
type Request struct {
	Version    int    `json:"version"`
	Origin     Origin `json:"origin"`
	Command    string `json:"command"`
	Parameters any    `json:"parameters"`
}

// Response is the wire form of a reply envelope. Data is kept raw so
// each command decodes it into its own type.
type Response struct {
	Error   int             `json:"error"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data"`
}

// StatusError is returned by Unwrap when the daemon answered with a
// non-zero error code. Data holds the reply payload, which often
// carries the daemon's diagnostic messages.
type StatusError struct {
	Code    int
	Message string
	Data    json.RawMessage
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned error %d", e.Code)
	}
	return fmt.Sprintf("daemon returned error %d: %s", e.Code, e.Message)
}

// Codec wraps requests with a fixed origin. The zero value sends an
// empty origin; use NewCodec.
type Codec struct {
	origin Origin
}

// NewCodec returns a codec that stamps every request with origin.
func NewCodec(origin Origin) Codec {
	return Codec{origin: origin}
}

// Wrap builds the request envelope for command and serializes it.
func (c Codec) Wrap(command string, parameters any) ([]byte, error) {
	encoded, err := json.Marshal(Request{
		Version:    ProtocolVersion,
		Origin:     c.origin,
		Command:    command,
		Parameters: parameters,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", command, err)
	}
	return encoded, nil
}

// Unwrap parses a reply envelope and returns its data member.
func Unwrap(payload []byte) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if fields == nil {
		// The literal "null" decodes into a nil map without error.
		return nil, fmt.Errorf("%w: envelope is null", ErrMalformed)
	}

	var response Response
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if response.Error != 0 {
		return nil, &StatusError{
			Code:    response.Error,
			Message: response.Message,
			Data:    response.Data,
		}
	}
	if _, present := fields["data"]; !present {
		return nil, ErrMissingData
	}
	return response.Data, nil
}
