// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logtest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Result is the data payload of a log_processing reply.
type Result struct {
	// Token identifies the session the daemon used. It differs from the
	// supplied token when the daemon created a new session.
	Token string

	// Output is the analysis of the submitted log line.
	Output Output

	// Alert is true when the matched rule would generate an alert.
	Alert bool

	// Messages are diagnostics from the daemon, such as a notice that
	// the supplied token was unknown and a new session was created.
	Messages []string

	// Codemsg is the daemon's status code for Messages, zero when
	// there is nothing to report.
	Codemsg int

	// Raw is the undecoded data payload, kept for debug output.
	Raw json.RawMessage
}

// Output is the per-phase analysis of one log line. Pointer and nil
// slice fields are absent from the reply when nil.
type Output struct {
	// FullLog is the complete log text as the daemon saw it. Rules with
	// the no_full_log option omit it.
	FullLog *string

	// Predecoder holds fields extracted before decoding (timestamp,
	// hostname, program name).
	Predecoder Fields

	// Decoder is nil when the reply has no decoder member at all. A
	// non-nil pointer to an empty Fields means the member was present
	// but null or empty: no decoder matched.
	Decoder *Fields

	// Data holds the fields the matched decoder extracted.
	Data Fields

	// Rule is nil when no rule member was present.
	Rule *Fields

	// All holds every member of the output object in reply order,
	// including the ones broken out above.
	All Fields
}

// DecoderMatched reports whether the reply names a decoder.
func (o Output) DecoderMatched() bool {
	return o.Decoder != nil && len(*o.Decoder) > 0
}

// Field is one member of a JSON object, kept in its original position.
type Field struct {
	Key   string
	Value json.RawMessage
}

// Text returns the field value as display text: strings unquoted,
// everything else in compact JSON form.
func (f Field) Text() string {
	return valueText(f.Value)
}

// Fields is a JSON object decoded with its member order preserved. The
// daemon orders fields meaningfully (decoder name before parent, rule
// id before level), so they are never round-tripped through a map.
type Fields []Field

// Get returns the raw value of key.
func (f Fields) Get(key string) (json.RawMessage, bool) {
	for _, field := range f {
		if field.Key == key {
			return field.Value, true
		}
	}
	return nil, false
}

// Text returns the display text of key.
func (f Fields) Text(key string) (string, bool) {
	value, ok := f.Get(key)
	if !ok {
		return "", false
	}
	return valueText(value), true
}

// UnmarshalJSON decodes a JSON object member by member. The literal
// null decodes to nil.
func (f *Fields) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*f = nil
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(data))

	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delimiter, ok := token.(json.Delim); !ok || delimiter != '{' {
		return fmt.Errorf("expected JSON object, got %s", describe(data))
	}

	fields := Fields{}
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return err
		}
		key, ok := token.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", token)
		}
		var value json.RawMessage
		if err := decoder.Decode(&value); err != nil {
			return fmt.Errorf("decoding %q: %w", key, err)
		}
		fields = append(fields, Field{Key: key, Value: value})
	}
	if _, err := decoder.Token(); err != nil {
		return err
	}
	*f = fields
	return nil
}

// MarshalJSON encodes the fields as an object in their stored order.
func (f Fields) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for index, field := range f {
		if index > 0 {
			buffer.WriteByte(',')
		}
		key, err := json.Marshal(field.Key)
		if err != nil {
			return nil, err
		}
		buffer.Write(key)
		buffer.WriteByte(':')
		buffer.Write(field.Value)
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

// UnmarshalJSON decodes and validates the output object. Members the
// interpreter relies on must have the right JSON type; anything else is
// kept only in All.
func (o *Output) UnmarshalJSON(data []byte) error {
	var all Fields
	if err := all.UnmarshalJSON(data); err != nil {
		return err
	}
	if all == nil {
		return errors.New("output is null")
	}

	output := Output{All: all}
	for _, field := range all {
		switch field.Key {
		case "full_log":
			var text string
			if err := json.Unmarshal(field.Value, &text); err != nil {
				return fmt.Errorf("full_log: expected string, got %s", describe(field.Value))
			}
			output.FullLog = &text
		case "predecoder":
			if err := output.Predecoder.UnmarshalJSON(field.Value); err != nil {
				return fmt.Errorf("predecoder: %w", err)
			}
		case "decoder":
			var decoder Fields
			if err := decoder.UnmarshalJSON(field.Value); err != nil {
				return fmt.Errorf("decoder: %w", err)
			}
			output.Decoder = &decoder
		case "data":
			if err := output.Data.UnmarshalJSON(field.Value); err != nil {
				return fmt.Errorf("data: %w", err)
			}
		case "rule":
			var rule Fields
			if err := rule.UnmarshalJSON(field.Value); err != nil {
				return fmt.Errorf("rule: %w", err)
			}
			output.Rule = &rule
		}
	}
	*o = output
	return nil
}

// resultWire is the JSON shape of a log_processing data payload. Token
// and Output are pointers so their absence can be told from zero values.
type resultWire struct {
	Token    *string  `json:"token"`
	Output   *Output  `json:"output"`
	Alert    bool     `json:"alert"`
	Messages []string `json:"messages"`
	Codemsg  int      `json:"codemsg"`
}

// decodeResult validates a log_processing data payload.
func decodeResult(data json.RawMessage) (*Result, error) {
	if isNull(data) {
		return nil, errors.New("reply data is null")
	}
	var wire resultWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decoding reply data: %w", err)
	}
	if wire.Token == nil {
		return nil, errors.New("reply data has no token")
	}
	if wire.Output == nil {
		return nil, errors.New("reply data has no output")
	}
	return &Result{
		Token:    *wire.Token,
		Output:   *wire.Output,
		Alert:    wire.Alert,
		Messages: wire.Messages,
		Codemsg:  wire.Codemsg,
		Raw:      data,
	}, nil
}

// valueText renders a raw JSON value for display. Strings lose their
// quotes; numbers keep their literal spelling; objects and arrays are
// compacted.
func valueText(value json.RawMessage) string {
	if isNull(value) {
		return "null"
	}
	var text string
	if err := json.Unmarshal(value, &text); err == nil {
		return text
	}
	var compacted bytes.Buffer
	if err := json.Compact(&compacted, value); err != nil {
		return string(value)
	}
	return compacted.String()
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

// describe names the JSON type of data for error messages.
func describe(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return "nothing"
	}
	switch trimmed[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
