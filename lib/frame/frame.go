// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderLength is the size of the length prefix in bytes.
const HeaderLength = 4

// MaxPayloadLength is the largest payload ReadMessage accepts. The
// daemon's replies for a single log line are a few kilobytes; 16 MB
// bounds memory use if the stream is garbage.
const MaxPayloadLength = 16 * 1024 * 1024

var (
	// ErrPayloadTooLarge is returned when a header announces (or a
	// caller tries to write) more than MaxPayloadLength bytes.
	ErrPayloadTooLarge = errors.New("frame: payload too large")

	// ErrTruncated is returned when the stream ends before the header
	// or the announced payload has been fully received.
	ErrTruncated = errors.New("frame: truncated message")
)

// WriteMessage writes one framed message to w. Header and payload go
// out in a single Write so a message is never split across two
// syscalls on a stream socket.
func WriteMessage(w io.Writer, payload []byte) error {
	if len(payload) > MaxPayloadLength {
		return fmt.Errorf("%w: %d bytes exceeds maximum %d", ErrPayloadTooLarge, len(payload), MaxPayloadLength)
	}
	buffer := make([]byte, HeaderLength+len(payload))
	binary.LittleEndian.PutUint32(buffer[:HeaderLength], uint32(len(payload)))
	copy(buffer[HeaderLength:], payload)
	if _, err := w.Write(buffer); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// ReadMessage reads one framed message from r and returns its payload.
// It reads exactly HeaderLength + length bytes and never more, so the
// reader stays positioned at the next frame.
func ReadMessage(r io.Reader) ([]byte, error) {
	var header [HeaderLength]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read message header: %w", truncation(err))
	}
	length := binary.LittleEndian.Uint32(header[:])
	if length > MaxPayloadLength {
		return nil, fmt.Errorf("%w: header announces %d bytes, maximum %d", ErrPayloadTooLarge, length, MaxPayloadLength)
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("read message payload (%d bytes): %w", length, truncation(err))
		}
	}
	return payload, nil
}

// truncation maps the io package's short-read errors onto ErrTruncated
// and passes every other error through.
func truncation(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return err
}
