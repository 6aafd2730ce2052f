// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/bureau-foundation/logtest/lib/logtest"
	"github.com/bureau-foundation/logtest/lib/version"
)

// maxLineLength bounds one input line. The daemon truncates events far
// below this.
const maxLineLength = 1 << 20

// interactiveLoop reads log lines and reports on each until input ends
// or the context is cancelled.
type interactiveLoop struct {
	session    *logtest.Session
	socketPath string
	renderer   *logtest.Renderer

	// expected is the unit-test expectation, nil outside unit-test mode.
	expected *logtest.Tuple

	quiet   bool
	dump    bool
	dumpOut io.Writer
	color   bool
	logger  *slog.Logger
}

func (l *interactiveLoop) run(ctx context.Context, stdin io.Reader) int {
	l.logger.Info("starting logtest", "version", version.Short(), "commit", version.Commit())
	l.logger.Info("type one log per line")

	lines, readErrors := readLines(ctx, stdin)
	for {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return l.exitStatus()
		case err := <-readErrors:
			l.logger.Error("reading input failed", "error", err)
			return l.exitStatus()
		case line, ok = <-lines:
			if !ok {
				return l.exitStatus()
			}
		}
		if line == "" {
			continue
		}
		l.process(ctx, line)
	}
}

// process submits one line and reports on it. Failures are logged and
// the loop carries on with the next line.
func (l *interactiveLoop) process(ctx context.Context, line string) {
	token := l.session.Token()
	result, err := l.session.ProcessLog(ctx, line, token)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			// Interrupted. The loop stops on its next select.
		case errors.Is(err, logtest.ErrTransport):
			logTransportError(l.logger, "error when connecting with logtest", err, l.socketPath)
		default:
			l.logger.Error("error when handling output", "error", err)
		}
		return
	}

	if token != "" && result.Token != token {
		l.logger.Warn("new session was created", "previous_token", token, "token", result.Token)
	}

	if l.dump {
		if err := dumpReply(l.dumpOut, result.Raw, l.color); err != nil {
			l.logger.Debug("dumping reply failed", "error", err)
		}
	}

	if l.quiet {
		return
	}
	if err := l.renderer.Summary(logtest.Summarize(result)); err != nil {
		l.logger.Error("writing output failed", "error", err)
		return
	}
	if l.expected != nil {
		if err := l.renderer.UnitTest(*l.expected, l.session.LastTuple()); err != nil {
			l.logger.Error("writing output failed", "error", err)
		}
	}
}

// exitStatus is 0 unless unit-test mode is on and the last tuple does
// not match the expectation.
func (l *interactiveLoop) exitStatus() int {
	if l.expected == nil || l.session.LastTuple().Matches(*l.expected) {
		return 0
	}
	return 1
}

// readLines scans r in a goroutine so the caller can stop waiting on
// input when ctx is cancelled. The lines channel is closed at end of
// input; a read error is sent on the error channel instead.
func readLines(ctx context.Context, r io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErrors := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErrors <- err
			return
		}
		close(lines)
	}()
	return lines, readErrors
}
